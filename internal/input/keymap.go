package input

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
)

// ActionBinding is one [[action]] table of an action map file.
type ActionBinding struct {
	Name    Action   `toml:"name"`
	Keys    []string `toml:"keys"`
	Buttons []string `toml:"buttons"`
}

// Map is the decoded form of an action map file:
//
//	[[action]]
//	name = "jump"
//	keys = ["Space", "W"]
//	buttons = ["Left"]
type Map struct {
	Actions []ActionBinding `toml:"action"`
}

// DefaultMap binds the actions the engine reacts to.
func DefaultMap() Map {
	return Map{Actions: []ActionBinding{
		{Name: ActionQuit, Keys: []string{"Escape"}},
		{Name: ActionRestart, Keys: []string{"F5"}},
	}}
}

// ParseMap decodes an action map from TOML text.
func ParseMap(data string) (Map, error) {
	var m Map
	md, err := toml.Decode(data, &m)
	if err != nil {
		return Map{}, fmt.Errorf("action map: %w", err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return Map{}, fmt.Errorf("action map: unknown key %s", keys[0])
	}
	return m, m.validate()
}

// LoadMap reads an action map file.
func LoadMap(path string) (Map, error) {
	var m Map
	md, err := toml.DecodeFile(path, &m)
	if err != nil {
		return Map{}, fmt.Errorf("action map %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return Map{}, fmt.Errorf("action map %s: unknown key %s", path, keys[0])
	}
	if err := m.validate(); err != nil {
		return Map{}, fmt.Errorf("action map %s: %w", path, err)
	}
	return m, nil
}

func (m Map) validate() error {
	for i, a := range m.Actions {
		if a.Name == "" {
			return fmt.Errorf("action #%d has no name", i+1)
		}
		if len(a.Keys) == 0 && len(a.Buttons) == 0 {
			return fmt.Errorf("action %q binds nothing", a.Name)
		}
	}
	return nil
}

// ErrNoBindings is returned by Apply for an empty map.
var ErrNoBindings = errors.New("action map has no actions")

// Apply binds every action of m on s.
func (m Map) Apply(s *State) error {
	if len(m.Actions) == 0 {
		return ErrNoBindings
	}
	for _, a := range m.Actions {
		for _, k := range a.Keys {
			s.BindKey(k, a.Name)
		}
		for _, b := range a.Buttons {
			s.BindButton(b, a.Name)
		}
	}
	return nil
}
