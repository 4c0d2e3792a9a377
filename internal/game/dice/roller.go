package dice

import (
	"fmt"

	"go.uber.org/zap"
)

// Roller wraps a Source and logger to provide logged dice rolling.
// Every roll is logged at debug level with its purpose and audit string.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Roll draws one die with the given number of sides.
//
// Precondition: sides >= 2.
// Postcondition: result.Total() is in [1, sides].
func (r *Roller) Roll(purpose string, sides int) RollResult {
	v := r.src.Intn(sides) + 1
	result := RollResult{
		Expression: fmt.Sprintf("d%d", sides),
		Purpose:    purpose,
		Dice:       []int{v},
	}
	r.logger.Debug("dice roll",
		zap.String("purpose", purpose),
		zap.Stringer("roll", result),
		zap.Int("total", result.Total()),
	)
	return result
}

// D100 draws a uniform integer in [1,100].
//
// Postcondition: Returns a value in [1, 100].
func (r *Roller) D100(purpose string) int {
	return r.Roll(purpose, 100).Total()
}

// D20 draws a uniform integer in [1,20].
//
// Postcondition: Returns a value in [1, 20].
func (r *Roller) D20(purpose string) int {
	return r.Roll(purpose, 20).Total()
}
