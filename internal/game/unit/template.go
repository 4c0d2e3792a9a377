package unit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/skirmish/internal/game/condition"
	"github.com/cory-johannsen/skirmish/internal/game/grid"
)

// Template defines a reusable unit archetype loaded from YAML.
type Template struct {
	ID          string    `yaml:"id"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Type        Type      `yaml:"type"`
	Faction     Faction   `yaml:"faction"`
	Tier        Tier      `yaml:"tier"` // empty = regular
	Level       int       `yaml:"level"`
	Stats       Stats     `yaml:"stats"`
	Weapons     []Weapon  `yaml:"weapons"`
	Armor       *Armor    `yaml:"armor"`
	Abilities   []Ability `yaml:"abilities"`
	AIProfile   string    `yaml:"ai_profile"` // empty = default profile
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, the closed-set fields are
// known, Level >= 1, MaxHealth >= 1, and every weapon, armor and ability validates;
// returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("unit template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("unit template %q: name must not be empty", t.ID)
	}
	switch t.Type {
	case SpaceMarine, Guardsman, Commissar, TechPriest, OrkBoy, OrkNob, Weirdboy, Cultist, ChaosMarine, Daemon:
	default:
		return fmt.Errorf("unit template %q: unknown type %q", t.ID, t.Type)
	}
	switch t.Faction {
	case Imperial, Ork, Chaos:
	default:
		return fmt.Errorf("unit template %q: unknown faction %q", t.ID, t.Faction)
	}
	switch t.Tier {
	case "", Regular, Elite, Boss:
	default:
		return fmt.Errorf("unit template %q: unknown tier %q", t.ID, t.Tier)
	}
	if t.Level < 1 {
		return fmt.Errorf("unit template %q: level must be >= 1", t.ID)
	}
	if t.Stats.MaxHealth < 1 {
		return fmt.Errorf("unit template %q: max_health must be >= 1", t.ID)
	}
	for i := range t.Weapons {
		if err := t.Weapons[i].Validate(); err != nil {
			return fmt.Errorf("unit template %q: %w", t.ID, err)
		}
	}
	if t.Armor != nil {
		if err := t.Armor.Validate(); err != nil {
			return fmt.Errorf("unit template %q: %w", t.ID, err)
		}
	}
	seen := make(map[string]bool, len(t.Abilities))
	for i := range t.Abilities {
		a := &t.Abilities[i]
		if err := a.Validate(); err != nil {
			return fmt.Errorf("unit template %q: %w", t.ID, err)
		}
		if seen[a.ID] {
			return fmt.Errorf("unit template %q: duplicate ability %q", t.ID, a.ID)
		}
		seen[a.ID] = true
	}
	return nil
}

// Spawn creates a fresh unit from the template.
//
// Precondition: t has been validated; id is unique within the encounter.
// Postcondition: The unit is alive at full health with ready abilities and a refilled turn budget.
func (t *Template) Spawn(id string, side Side, pos grid.Point) *Unit {
	tier := t.Tier
	if tier == "" {
		tier = Regular
	}
	u := &Unit{
		ID:        id,
		Name:      t.Name,
		Type:      t.Type,
		Faction:   t.Faction,
		Side:      side,
		Tier:      tier,
		Level:     t.Level,
		Base:      t.Stats,
		Position:  pos,
		Abilities: append([]Ability(nil), t.Abilities...),
		Weapons:   append([]Weapon(nil), t.Weapons...),
		Statuses:  condition.NewSet(),
		AIProfile: t.AIProfile,
	}
	for i := range u.Abilities {
		u.Abilities[i].CurrentCooldown = 0
	}
	for i := range u.Weapons {
		u.grantAbilities(&u.Weapons[i])
	}
	if t.Armor != nil {
		a := *t.Armor
		u.Armor = &a
	}
	u.Base.MaxAction = MaxActionFor(u.Base.Agility)
	u.RecomputeStats()
	u.HP = u.Current.MaxHealth
	u.StartTurn()
	return u
}

// LoadTemplateFromBytes parses a single unit template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading unit dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}

// Catalog indexes templates by ID.
type Catalog struct {
	byID map[string]*Template
}

// NewCatalog builds a catalog from templates.
//
// Postcondition: Returns an error if two templates share an ID.
func NewCatalog(templates []*Template) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate unit template %q", t.ID)
		}
		c.byID[t.ID] = t
	}
	return c, nil
}

// Get returns the template with id.
func (c *Catalog) Get(id string) (*Template, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// IDs returns every template ID in sorted order.
func (c *Catalog) IDs() []string {
	out := make([]string, 0, len(c.byID))
	for id := range c.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
