package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger to provide logged die rolling.
// All rolls are logged at debug level with die size and result.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// Src returns the underlying Source for code that rolls directly.
func (r *Roller) Src() Source { return r.src }

// Roll rolls a single die with the given number of sides and logs the result.
//
// Precondition: sides >= 2.
// Postcondition: Returns a value in [1, sides].
func (r *Roller) Roll(sides int) int {
	result := RollDie(sides, r.src)
	r.logger.Debug("die roll",
		zap.Int("sides", sides),
		zap.Int("result", result),
	)
	return result
}

// D20 rolls a twenty-sided die.
func (r *Roller) D20() int { return r.Roll(20) }

// D8 rolls an eight-sided die.
func (r *Roller) D8() int { return r.Roll(8) }

// D6 rolls a six-sided die.
func (r *Roller) D6() int { return r.Roll(6) }
