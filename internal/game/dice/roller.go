package dice

import "go.uber.org/zap"

// Roller wraps a Source and logger so that every combat draw leaves an audit
// trail at debug level.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that draws from src and logs to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	if src == nil || logger == nil {
		panic("dice: NewLoggedRoller requires non-nil src and logger")
	}
	return &Roller{src: src, logger: logger}
}

// Float64 draws an unlabelled value; it lets a Roller stand in for a Source.
func (r *Roller) Float64() float64 {
	return r.Draw("draw").Value
}

// Draw takes one uniform value and logs it under purpose.
//
// Postcondition: 0 <= result.Value < 1.
func (r *Roller) Draw(purpose string) Draw {
	d := Draw{Purpose: purpose, Value: r.src.Float64()}
	r.logger.Debug("dice draw",
		zap.String("purpose", d.Purpose),
		zap.Float64("value", d.Value),
	)
	return d
}
