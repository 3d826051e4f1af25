package arena

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CharacterTemplate is the immutable, shared definition of a playable
// character letter (A-Z). Many entities across many arenas of the same
// game reference the same template by pointer; it is never mutated after
// load, so sharing it needs no synchronization.
type CharacterTemplate struct {
	Letter    string  `yaml:"letter"`
	MaxHealth int     `yaml:"max_health"`
	Energy    int     `yaml:"energy"`
	Speed     float64 `yaml:"speed"`
}

// defaultTemplate is used for any letter not present in a loaded roster,
// so the game remains playable with zero configuration.
var defaultTemplate = &CharacterTemplate{MaxHealth: 100, Energy: 100, Speed: 4}

// Roster is a per-game, immutable table of character templates keyed by
// their letter, handed out by reference to every entity created for that
// letter.
type Roster struct {
	templates map[string]*CharacterTemplate
}

// DefaultRoster returns a Roster where every A-Z letter maps to the same
// balanced default template.
func DefaultRoster() *Roster {
	templates := make(map[string]*CharacterTemplate, 26)
	for c := 'A'; c <= 'Z'; c++ {
		letter := string(c)
		t := *defaultTemplate
		t.Letter = letter
		templates[letter] = &t
	}
	return &Roster{templates: templates}
}

// LoadRoster reads a YAML document of the form:
//
//	- letter: A
//	  max_health: 100
//	  energy: 100
//	  speed: 4.0
//
// and overlays it onto DefaultRoster, so a partial file still yields a
// complete A-Z roster.
func LoadRoster(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("arena: read roster %q: %w", path, err)
	}

	var entries []CharacterTemplate
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("arena: parse roster %q: %w", path, err)
	}

	roster := DefaultRoster()
	for _, entry := range entries {
		t := entry
		roster.templates[t.Letter] = &t
	}
	return roster, nil
}

// Template returns the shared template for letter, falling back to the
// package default if the roster has no entry for it.
func (r *Roster) Template(letter string) *CharacterTemplate {
	if t, ok := r.templates[letter]; ok {
		return t
	}
	return defaultTemplate
}
