package condition

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies a status effect family.
type Kind string

const (
	Poison      Kind = "poison"
	Stun        Kind = "stun"
	Shield      Kind = "shield"
	Suppression Kind = "suppression"
	Buff        Kind = "buff"
	Debuff      Kind = "debuff"
)

// Kinds lists every status kind in declaration order.
var Kinds = []Kind{Poison, Stun, Shield, Suppression, Buff, Debuff}

// ParseKind maps a content name to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown status kind %q", s)
}

// Policy decides what happens when a status is applied to a unit that already carries one of the same kind.
type Policy string

const (
	// Independent keeps every application as its own instance with its own counter.
	Independent Policy = "independent"
	// Additive merges into the existing instance: magnitudes and modifiers add, the longer duration wins.
	Additive Policy = "additive"
	// Refresh resets the existing instance's duration and keeps its magnitude.
	Refresh Policy = "refresh"
)

// Def is the static definition of a status kind, loaded from YAML.
type Def struct {
	Kind        Kind   `yaml:"kind"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Stacking    Policy `yaml:"stacking"` // "independent" | "additive" | "refresh"; empty = independent
}

// Validate checks the definition's closed-set fields.
//
// Postcondition: Returns nil iff Kind is known and Stacking is empty or a known policy.
func (d *Def) Validate() error {
	if _, err := ParseKind(string(d.Kind)); err != nil {
		return err
	}
	switch d.Stacking {
	case "", Independent, Additive, Refresh:
		return nil
	}
	return fmt.Errorf("status %q: unknown stacking policy %q", d.Kind, d.Stacking)
}

// Registry holds the known status definitions keyed by kind.
type Registry struct {
	defs map[Kind]*Def
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[Kind]*Def)}
}

// DefaultRegistry returns a registry defining every kind with the Independent policy.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	for _, k := range Kinds {
		reg.Register(&Def{Kind: k, Name: string(k), Stacking: Independent})
	}
	return reg
}

// Register adds def to the registry, overwriting any existing entry of the same kind.
// Precondition: def must not be nil.
func (r *Registry) Register(def *Def) {
	r.defs[def.Kind] = def
}

// Get returns the Def for kind, or (nil, false) if not found.
func (r *Registry) Get(kind Kind) (*Def, bool) {
	d, ok := r.defs[kind]
	return d, ok
}

// Policy returns the stacking policy for kind. Unknown kinds and empty policies are Independent.
func (r *Registry) Policy(kind Kind) Policy {
	if r == nil {
		return Independent
	}
	if d, ok := r.defs[kind]; ok && d.Stacking != "" {
		return d.Stacking
	}
	return Independent
}

// All returns the registered definitions ordered by kind.
func (r *Registry) All() []*Def {
	out := make([]*Def, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Def, and
// layers them over DefaultRegistry.
// Precondition: dir must be a readable directory.
// Postcondition: Returns a registry covering every kind, or an error if any file fails to parse or validate.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading status dir %q: %w", dir, err)
	}
	reg := DefaultRegistry()
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var def Def
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		reg.Register(&def)
	}
	return reg, nil
}
