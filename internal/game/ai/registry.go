package ai

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/ability"
)

// DefaultProfileID names the profile used by units without one.
const DefaultProfileID = "default"

// Registry indexes Evaluators by profile ID.
//
// Invariant: each profile ID is registered at most once; DefaultProfileID is always present.
type Registry struct {
	evaluators map[string]*Evaluator
	settings   Settings
	engine     *ability.Engine
	caller     ScriptCaller
	scope      string
	// customDefault is set once a loaded profile replaces the built-in default.
	customDefault bool
}

// NewRegistry returns a Registry holding only the default profile.
//
// Precondition: engine and caller must not be nil.
func NewRegistry(settings Settings, engine *ability.Engine, caller ScriptCaller, scope string) *Registry {
	r := &Registry{
		evaluators: make(map[string]*Evaluator),
		settings:   settings,
		engine:     engine,
		caller:     caller,
		scope:      scope,
	}
	r.evaluators[DefaultProfileID] = NewEvaluator(&Profile{ID: DefaultProfileID}, settings, engine, caller, scope)
	return r
}

// Register creates and stores an Evaluator for profile. A profile with
// DefaultProfileID replaces the built-in default.
//
// Precondition: profile must not be nil.
// Postcondition: returns error on profile ID collision.
func (r *Registry) Register(profile *Profile) error {
	if _, exists := r.evaluators[profile.ID]; exists {
		if profile.ID != DefaultProfileID || r.customDefault {
			return fmt.Errorf("ai.Registry: profile %q already registered", profile.ID)
		}
		r.customDefault = true
	}
	r.evaluators[profile.ID] = NewEvaluator(profile, r.settings, r.engine, r.caller, r.scope)
	return nil
}

// EvaluatorFor returns the Evaluator for profileID, falling back to the default
// profile for an empty ID. Unknown non-empty IDs report false.
func (r *Registry) EvaluatorFor(profileID string) (*Evaluator, bool) {
	if profileID == "" {
		profileID = DefaultProfileID
	}
	e, ok := r.evaluators[profileID]
	return e, ok
}
