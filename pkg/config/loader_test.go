package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asciiarena/pkg/resilience"
)

// resetCircuitBreakerForTesting resets the circuit breaker state for testing
func resetCircuitBreakerForTesting() {
	manager := resilience.GetGlobalCircuitBreakerManager()
	// Remove the existing config_loader circuit breaker to reset its state
	manager.Remove("config_loader")
}

func TestLoadRoster_ValidYAMLFile(t *testing.T) {
	resetCircuitBreakerForTesting()

	tempDir := t.TempDir()
	validYAMLFile := filepath.Join(tempDir, "valid_roster.yaml")

	validYAMLContent := `
- letter: A
  max_health: 150
  energy: 80
  speed: 3.5

- letter: B
  max_health: 90
  energy: 120
  speed: 5.0
`

	err := os.WriteFile(validYAMLFile, []byte(validYAMLContent), 0o644)
	require.NoError(t, err)

	roster, err := LoadRoster(validYAMLFile)
	require.NoError(t, err)
	require.NotNil(t, roster)

	a := roster.Template("A")
	assert.Equal(t, 150, a.MaxHealth)
	assert.Equal(t, 80, a.Energy)
	assert.Equal(t, 3.5, a.Speed)

	b := roster.Template("B")
	assert.Equal(t, 90, b.MaxHealth)

	// Any letter not present in the file still falls back to the default.
	z := roster.Template("Z")
	assert.Equal(t, 100, z.MaxHealth)
}

func TestLoadRoster_EmptyYAMLFile(t *testing.T) {
	resetCircuitBreakerForTesting()

	tempDir := t.TempDir()
	emptyFile := filepath.Join(tempDir, "empty.yaml")

	err := os.WriteFile(emptyFile, []byte(""), 0o644)
	require.NoError(t, err)

	roster, err := LoadRoster(emptyFile)
	require.NoError(t, err)
	require.NotNil(t, roster)

	// An empty overrides file still yields the full default A-Z roster.
	a := roster.Template("A")
	assert.Equal(t, 100, a.MaxHealth)
}

func TestLoadRoster_FileNotFound(t *testing.T) {
	resetCircuitBreakerForTesting()

	roster, err := LoadRoster("this_file_does_not_exist.yaml")
	assert.Error(t, err)
	assert.Nil(t, roster)
}

func TestLoadRoster_InvalidYAMLSyntax(t *testing.T) {
	resetCircuitBreakerForTesting()

	tempDir := t.TempDir()
	invalidYAMLFile := filepath.Join(tempDir, "invalid.yaml")

	invalidYAMLContent := `
- letter: A
  max_health: 150
  invalid_indent:
wrong_nesting
`

	err := os.WriteFile(invalidYAMLFile, []byte(invalidYAMLContent), 0o644)
	require.NoError(t, err)

	roster, err := LoadRoster(invalidYAMLFile)
	assert.Error(t, err)
	assert.Nil(t, roster)
}

func TestLoadRoster_TableDriven(t *testing.T) {
	resetCircuitBreakerForTesting()

	tempDir := t.TempDir()

	tests := []struct {
		name        string
		yamlContent string
		expectError bool
	}{
		{
			name: "single override",
			yamlContent: `
- letter: C
  max_health: 200
  energy: 60
  speed: 2.0
`,
			expectError: false,
		},
		{
			name: "multiple overrides",
			yamlContent: `
- letter: D
  max_health: 50
  energy: 200
  speed: 8.0

- letter: E
  max_health: 120
  energy: 100
  speed: 4.5
`,
			expectError: false,
		},
		{
			name: "invalid structure",
			yamlContent: `
not_an_array: true
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			testFile := filepath.Join(tempDir, "test_"+tt.name+".yaml")
			err := os.WriteFile(testFile, []byte(tt.yamlContent), 0o644)
			require.NoError(t, err)

			roster, err := LoadRoster(testFile)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, roster)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, roster)
			}
		})
	}
}
