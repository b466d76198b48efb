package strategy

import (
	"fmt"

	"equity-lab/internal/model"
)

// Signal is the outcome of evaluating one bar.
type Signal int

const (
	SignalNone Signal = iota
	SignalEnter
)

// Evaluator maps a bar (plus the previous bar when available) to a trading
// signal. Implementations must be pure: a missing or undefined indicator means
// SignalNone, never an error.
type Evaluator interface {
	Name() string
	Evaluate(bar *model.Bar, prev *model.Bar) Signal
}

// ForName resolves a strategy by its request name.
func ForName(name string, tolerance, rsiThreshold float64) (Evaluator, error) {
	switch name {
	case NameEMAPullback:
		return NewEMAPullback(tolerance), nil
	case NameTrendRSI:
		return NewTrendRSI(rsiThreshold), nil
	default:
		return nil, fmt.Errorf("unknown strategy '%s'", name)
	}
}
