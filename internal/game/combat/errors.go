package combat

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalAction matches every ActionError of kind IllegalAction.
	ErrIllegalAction = errors.New("illegal action")
	// ErrInvalidTarget matches every ActionError of kind InvalidTarget.
	ErrInvalidTarget = errors.New("invalid target")
)

// ErrorKind separates commands that are not allowed now from commands aimed at the wrong thing.
type ErrorKind int

const (
	IllegalAction ErrorKind = iota
	InvalidTarget
)

// String returns the lowercase kind name.
func (k ErrorKind) String() string {
	if k == InvalidTarget {
		return "invalid_target"
	}
	return "illegal_action"
}

// Reason is the machine-readable cause of a rejected command.
type Reason string

const (
	ReasonInsufficientAP Reason = "insufficient_ap"
	ReasonCooldown       Reason = "cooldown"
	ReasonOutOfRange     Reason = "out_of_range"
	ReasonUnreachable    Reason = "unreachable"
	ReasonOccupied       Reason = "occupied"
	ReasonImpassable     Reason = "impassable"
	ReasonOutOfBounds    Reason = "out_of_bounds"
	ReasonWrongPhase     Reason = "wrong_phase"
	ReasonNotYourTurn    Reason = "not_your_turn"
	ReasonNoLineOfSight  Reason = "no_line_of_sight"
	ReasonNoTarget       Reason = "no_target"
	ReasonUnknownUnit    Reason = "unknown_unit"
	ReasonUnknownAbility Reason = "unknown_ability"
	ReasonUnknownWeapon  Reason = "unknown_weapon"
	ReasonTargetDead     Reason = "target_dead"
	ReasonFactionRule    Reason = "faction_rule"
	ReasonEncounterOver  Reason = "encounter_over"
)

// ActionError reports a rejected command. A rejected command never changes state.
type ActionError struct {
	Kind   ErrorKind
	Reason Reason
	Detail string
}

// Error implements error.
func (e *ActionError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Reason, e.Detail)
}

// Is lets errors.Is match the kind sentinels.
func (e *ActionError) Is(target error) bool {
	switch target {
	case ErrIllegalAction:
		return e.Kind == IllegalAction
	case ErrInvalidTarget:
		return e.Kind == InvalidTarget
	}
	return false
}

// Illegal builds an IllegalAction error.
func Illegal(reason Reason, format string, args ...any) *ActionError {
	return &ActionError{Kind: IllegalAction, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// Invalid builds an InvalidTarget error.
func Invalid(reason Reason, format string, args ...any) *ActionError {
	return &ActionError{Kind: InvalidTarget, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

// ReasonOf extracts the rejection reason from err.
//
// Postcondition: Returns ("", false) when err carries no ActionError.
func ReasonOf(err error) (Reason, bool) {
	var ae *ActionError
	if errors.As(err, &ae) {
		return ae.Reason, true
	}
	return "", false
}
