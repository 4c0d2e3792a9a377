// Package scenario loads battlefield descriptions from YAML and turns them
// into encounter setups.
package scenario

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/battle"
	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/encounter"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
	"github.com/cory-johannsen/skirmish/internal/game/unit"
)

// Placement puts one unit from a template onto the map.
type Placement struct {
	ID        string     `yaml:"id"`
	Template  string     `yaml:"template"`
	Side      unit.Side  `yaml:"side"`
	Position  grid.Point `yaml:"position"`
	AIProfile string     `yaml:"ai_profile"` // overrides the template's profile
}

// Effect is an environmental effect present when the battle starts.
type Effect struct {
	ID        string         `yaml:"id"`
	Kind      battle.EnvKind `yaml:"kind"`
	Center    grid.Point     `yaml:"center"`
	Radius    int            `yaml:"radius"`
	Duration  int            `yaml:"duration"`
	Magnitude int            `yaml:"magnitude"`
}

// Scenario is a battlefield: terrain rows, the units on it and any lingering effects.
type Scenario struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// Seed fixes the encounter RNG; 0 leaves the choice to the caller.
	Seed uint64 `yaml:"seed"`
	// MaxRounds overrides the configured round limit when positive.
	MaxRounds   int         `yaml:"max_rounds"`
	Map         []string    `yaml:"map"`
	Units       []Placement `yaml:"units"`
	Environment []Effect    `yaml:"environment"`
}

// Validate checks the parts of s that do not need a template catalog.
//
// Postcondition: Returns nil iff s has an ID, a parseable map, unique unit IDs
// with a known side, and at least one unit per side.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("scenario: id must not be empty")
	}
	if _, err := grid.ParseRows(s.Map); err != nil {
		return fmt.Errorf("scenario %q: map: %w", s.ID, err)
	}
	seen := make(map[string]bool, len(s.Units))
	sides := make(map[unit.Side]int)
	for _, p := range s.Units {
		if p.ID == "" || p.Template == "" {
			return fmt.Errorf("scenario %q: unit needs an id and a template", s.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("scenario %q: duplicate unit %q", s.ID, p.ID)
		}
		seen[p.ID] = true
		switch p.Side {
		case unit.Player, unit.Enemy:
			sides[p.Side]++
		default:
			return fmt.Errorf("scenario %q: unit %q has unknown side %q", s.ID, p.ID, p.Side)
		}
	}
	if sides[unit.Player] == 0 || sides[unit.Enemy] == 0 {
		return fmt.Errorf("scenario %q: both sides need at least one unit", s.ID)
	}
	return nil
}

// Setup spawns the scenario's units from catalog and builds the encounter setup.
//
// Precondition: s has been validated; catalog must not be nil.
// Postcondition: Every call returns fresh units and a fresh map.
func (s *Scenario) Setup(catalog *unit.Catalog, reg *condition.Registry) (encounter.Setup, error) {
	m, err := grid.ParseRows(s.Map)
	if err != nil {
		return encounter.Setup{}, fmt.Errorf("scenario %q: map: %w", s.ID, err)
	}
	units := make([]*unit.Unit, 0, len(s.Units))
	for _, p := range s.Units {
		tmpl, ok := catalog.Get(p.Template)
		if !ok {
			return encounter.Setup{}, fmt.Errorf("scenario %q: unit %q: unknown template %q", s.ID, p.ID, p.Template)
		}
		u := tmpl.Spawn(p.ID, p.Side, p.Position)
		if p.AIProfile != "" {
			u.AIProfile = p.AIProfile
		}
		units = append(units, u)
	}
	env := make([]*battle.Environmental, 0, len(s.Environment))
	for i, fx := range s.Environment {
		id := fx.ID
		if id == "" {
			id = fmt.Sprintf("%s-%d", fx.Kind, i+1)
		}
		e, err := battle.NewEnvironmental(m, id, fx.Kind, fx.Center, fx.Radius, fx.Duration, fx.Magnitude)
		if err != nil {
			return encounter.Setup{}, fmt.Errorf("scenario %q: %w", s.ID, err)
		}
		env = append(env, e)
	}
	return encounter.Setup{
		Map:         m,
		Units:       units,
		Environment: env,
		Conditions:  reg,
		Seed:        s.Seed,
	}, nil
}

// Config applies the scenario's overrides to base.
func (s *Scenario) Config(base encounter.Config) encounter.Config {
	if s.MaxRounds > 0 {
		base.MaxRounds = s.MaxRounds
	}
	base.Scenario = s.ID
	return base
}

// LoadFromBytes parses and validates a single scenario.
func LoadFromBytes(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and validates the scenario file at path.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	s, err := LoadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %q: %w", path, err)
	}
	return s, nil
}

// LoadDirectory reads every *.yaml scenario in dir, keyed by ID.
//
// Postcondition: Returns an error on the first bad file or on a duplicate ID.
func LoadDirectory(dir string) (map[string]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading scenario dir %q: %w", dir, err)
	}
	out := make(map[string]*Scenario)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		s, err := Load(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := out[s.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario %q", s.ID)
		}
		out[s.ID] = s
	}
	return out, nil
}

// IDs returns the keys of scenarios in sorted order.
func IDs(scenarios map[string]*Scenario) []string {
	out := make([]string, 0, len(scenarios))
	for id := range scenarios {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
