// Package ai implements the fixed-priority decision engine for computer-controlled units.
//
// Each invocation walks a closed pipeline of steps (boss overrides, support,
// attack, advance, take cover, pass) and returns the first applicable command.
// Boss override preconditions are evaluated as Lua hooks.
package ai

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Target selectors understood by overrides.
const (
	TargetSelf            = "self"
	TargetNearestEnemy    = "nearest_enemy"
	TargetWeakestEnemy    = "weakest_enemy"
	TargetMostWoundedAlly = "most_wounded_ally"
)

// Override is a scripted boss behavior tried before the regular pipeline.
//
// Precondition: ID and Ability must be non-empty.
// Precondition: Precondition is a Lua function name; empty means always applicable.
type Override struct {
	ID string `yaml:"id"`
	// HealthBelow fires the override only while the boss's health fraction is below it; 0 = always.
	HealthBelow  float64 `yaml:"health_below"`
	Ability      string  `yaml:"ability"`
	Target       string  `yaml:"target"`       // one of the Target* selectors
	Precondition string  `yaml:"precondition"` // Lua function name; empty = always applicable
}

// Profile tunes the decision pipeline for a group of units.
//
// Invariant: override IDs are unique.
type Profile struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	// SupportRadius overrides the configured support radius when > 0.
	SupportRadius int `yaml:"support_radius"`
	// LowHealthFraction overrides the configured low-health fraction when > 0.
	LowHealthFraction float64     `yaml:"low_health_fraction"`
	Overrides         []*Override `yaml:"overrides"`
}

// Validate checks all required fields and cross-field constraints.
//
// Postcondition: nil return guarantees a non-empty ID, fractions in [0,1], a non-negative
// radius, and overrides with unique non-empty IDs, a named ability and a known target selector.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("ai.Profile: ID must not be empty")
	}
	if p.SupportRadius < 0 {
		return fmt.Errorf("ai.Profile %q: support_radius must be >= 0", p.ID)
	}
	if p.LowHealthFraction < 0 || p.LowHealthFraction > 1 {
		return fmt.Errorf("ai.Profile %q: low_health_fraction must be in [0,1]", p.ID)
	}
	ids := make(map[string]struct{}, len(p.Overrides))
	for _, o := range p.Overrides {
		if o.ID == "" || o.Ability == "" {
			return fmt.Errorf("ai.Profile %q: override missing ID or Ability", p.ID)
		}
		if _, dup := ids[o.ID]; dup {
			return fmt.Errorf("ai.Profile %q: duplicate override ID %q", p.ID, o.ID)
		}
		ids[o.ID] = struct{}{}
		switch o.Target {
		case TargetSelf, TargetNearestEnemy, TargetWeakestEnemy, TargetMostWoundedAlly:
		default:
			return fmt.Errorf("ai.Profile %q override %q: unknown target %q", p.ID, o.ID, o.Target)
		}
		if o.HealthBelow < 0 || o.HealthBelow > 1 {
			return fmt.Errorf("ai.Profile %q override %q: health_below must be in [0,1]", p.ID, o.ID)
		}
	}
	return nil
}

// yamlProfileFile wraps the YAML top-level key.
type yamlProfileFile struct {
	Profile *Profile `yaml:"profile"`
}

// LoadProfiles reads all *.yaml files from dir and returns parsed Profiles.
//
// Precondition: dir must be a readable directory.
// Postcondition: returns error if any YAML file fails to parse or validate.
// Postcondition: returns (nil, nil) if dir contains no .yaml files.
func LoadProfiles(dir string) ([]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("ai.LoadProfiles: reading %q: %w", dir, err)
	}
	var profiles []*Profile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("ai.LoadProfiles: reading %s: %w", e.Name(), err)
		}
		var f yamlProfileFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("ai.LoadProfiles: parsing %s: %w", e.Name(), err)
		}
		if f.Profile == nil {
			return nil, fmt.Errorf("ai.LoadProfiles: %s missing top-level 'profile' key", e.Name())
		}
		if err := f.Profile.Validate(); err != nil {
			return nil, err
		}
		profiles = append(profiles, f.Profile)
	}
	return profiles, nil
}
