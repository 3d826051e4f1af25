package config

import (
	"context"

	"asciiarena/pkg/arena"
	"asciiarena/pkg/integration"
)

// LoadRoster loads character template overrides from a YAML file, merged
// onto the built-in roster. This function is protected by both circuit
// breaker and retry patterns to prevent cascade failures and handle
// transient file system issues during startup.
//
// Parameters:
//   - filename: Path to the YAML file containing character template overrides
//
// Returns:
//   - *arena.Roster: The merged roster
//   - error: File read, YAML parsing, circuit breaker, or retry errors if any occurred
func LoadRoster(filename string) (*arena.Roster, error) {
	var roster *arena.Roster
	ctx := context.Background()

	err := integration.ExecuteConfigOperation(ctx, func(ctx context.Context) error {
		r, err := arena.LoadRoster(filename)
		if err != nil {
			return err
		}
		roster = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	return roster, nil
}
