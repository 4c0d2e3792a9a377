package condition

import (
	"encoding/json"
	"fmt"
)

// Instance is one status effect applied to a unit.
type Instance struct {
	Kind      Kind         `json:"kind"`
	Remaining int          `json:"remaining"`
	Magnitude int          `json:"magnitude"`
	Modifier  StatModifier `json:"modifier,omitzero"`
	SourceID  string       `json:"source_id,omitempty"`
}

// Set holds the statuses on one unit in application order.
// It is not safe for concurrent use; the caller must serialise access.
type Set struct {
	list []Instance
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Apply adds in to the set according to the stacking policy reg assigns to in.Kind.
// A nil reg applies the Independent policy.
//
// Precondition: in.Remaining > 0; in.Magnitude >= 0.
// Postcondition: Has(in.Kind) is true; returns the resulting instance and whether
// it was merged into an existing one.
func (s *Set) Apply(reg *Registry, in Instance) (Instance, bool, error) {
	if in.Remaining <= 0 {
		return Instance{}, false, fmt.Errorf("apply %s: duration must be positive, got %d", in.Kind, in.Remaining)
	}
	if in.Magnitude < 0 {
		return Instance{}, false, fmt.Errorf("apply %s: magnitude must not be negative, got %d", in.Kind, in.Magnitude)
	}
	policy := reg.Policy(in.Kind)
	if policy != Independent {
		for i := range s.list {
			ex := &s.list[i]
			if ex.Kind != in.Kind {
				continue
			}
			switch policy {
			case Additive:
				ex.Magnitude += in.Magnitude
				ex.Modifier = ex.Modifier.Add(in.Modifier)
				ex.Remaining = max(ex.Remaining, in.Remaining)
			case Refresh:
				*ex = in
			}
			return *ex, true, nil
		}
	}
	s.list = append(s.list, in)
	return in, false, nil
}

// Has reports whether any instance of kind is active.
func (s *Set) Has(kind Kind) bool {
	for _, in := range s.list {
		if in.Kind == kind {
			return true
		}
	}
	return false
}

// Count returns the number of active instances of kind.
func (s *Set) Count(kind Kind) int {
	n := 0
	for _, in := range s.list {
		if in.Kind == kind {
			n++
		}
	}
	return n
}

// Len returns the number of active instances.
func (s *Set) Len() int { return len(s.list) }

// All returns a copy of the active instances in application order.
func (s *Set) All() []Instance {
	out := make([]Instance, len(s.list))
	copy(out, s.list)
	return out
}

// Clear removes every instance.
func (s *Set) Clear() {
	s.list = nil
}

// Absorb runs dmg through the shields in application order. Each shield's
// magnitude is consumed by what it absorbs and a shield reaching zero is removed.
//
// Precondition: dmg >= 0.
// Postcondition: remaining + absorbed == dmg.
func (s *Set) Absorb(dmg int) (remaining, absorbed int) {
	remaining = dmg
	kept := s.list[:0]
	for _, in := range s.list {
		if in.Kind == Shield && remaining > 0 {
			take := min(in.Magnitude, remaining)
			in.Magnitude -= take
			remaining -= take
			absorbed += take
			if in.Magnitude == 0 {
				continue
			}
		}
		kept = append(kept, in)
	}
	s.list = kept
	return remaining, absorbed
}

// Tick is the outcome of advancing one instance by a turn.
type Tick struct {
	Instance Instance
	Expired  bool
}

// Advance ages every instance by one turn, in application order, and removes
// those reaching zero. Returned ticks carry each instance as it was before the
// decrement so the caller can resolve per-turn effects such as poison.
//
// Postcondition: every Tick with Expired set is no longer in the set; remaining
// counters of the others are one lower.
func (s *Set) Advance() []Tick {
	ticks := make([]Tick, 0, len(s.list))
	kept := s.list[:0]
	for _, in := range s.list {
		before := in
		in.Remaining--
		expired := in.Remaining <= 0
		ticks = append(ticks, Tick{Instance: before, Expired: expired})
		if !expired {
			kept = append(kept, in)
		}
	}
	s.list = kept
	return ticks
}

// MarshalJSON encodes the set as its ordered instance list.
func (s *Set) MarshalJSON() ([]byte, error) {
	if s.list == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.list)
}

// UnmarshalJSON restores a set from its ordered instance list.
func (s *Set) UnmarshalJSON(data []byte) error {
	var list []Instance
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("decoding status set: %w", err)
	}
	s.list = list
	return nil
}
