package condition

// StatModifier is a signed adjustment to each attribute.
type StatModifier struct {
	Strength   int `json:"strength,omitempty" yaml:"strength"`
	Toughness  int `json:"toughness,omitempty" yaml:"toughness"`
	Agility    int `json:"agility,omitempty" yaml:"agility"`
	Intellect  int `json:"intellect,omitempty" yaml:"intellect"`
	Willpower  int `json:"willpower,omitempty" yaml:"willpower"`
	Fellowship int `json:"fellowship,omitempty" yaml:"fellowship"`
	MaxHealth  int `json:"max_health,omitempty" yaml:"max_health"`
}

// Add returns the field-wise sum of m and o.
func (m StatModifier) Add(o StatModifier) StatModifier {
	return StatModifier{
		Strength:   m.Strength + o.Strength,
		Toughness:  m.Toughness + o.Toughness,
		Agility:    m.Agility + o.Agility,
		Intellect:  m.Intellect + o.Intellect,
		Willpower:  m.Willpower + o.Willpower,
		Fellowship: m.Fellowship + o.Fellowship,
		MaxHealth:  m.MaxHealth + o.MaxHealth,
	}
}

// Negate returns m with every field sign-flipped.
func (m StatModifier) Negate() StatModifier {
	return StatModifier{
		Strength:   -m.Strength,
		Toughness:  -m.Toughness,
		Agility:    -m.Agility,
		Intellect:  -m.Intellect,
		Willpower:  -m.Willpower,
		Fellowship: -m.Fellowship,
		MaxHealth:  -m.MaxHealth,
	}
}

// IsZero reports whether m changes nothing.
func (m StatModifier) IsZero() bool {
	return m == StatModifier{}
}

// Modifiers returns the net stat adjustment from every active instance:
// buffs add their modifier, debuffs subtract theirs, suppression subtracts its
// magnitude from agility.
func Modifiers(s *Set) StatModifier {
	var total StatModifier
	for _, in := range s.list {
		switch in.Kind {
		case Buff:
			total = total.Add(in.Modifier)
		case Debuff:
			total = total.Add(in.Modifier.Negate())
		case Suppression:
			total.Agility -= in.Magnitude
		}
	}
	return total
}

// ShieldTotal returns the damage the set's shields can still absorb.
//
// Postcondition: Returns >= 0.
func ShieldTotal(s *Set) int {
	total := 0
	for _, in := range s.list {
		if in.Kind == Shield {
			total += in.Magnitude
		}
	}
	return total
}
