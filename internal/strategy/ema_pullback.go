package strategy

import (
	"equity-lab/internal/dto"
	"equity-lab/internal/model"
)

const NameEMAPullback = "ema-pullback"

// EMAPullback enters when the long trend is up (close above EMA200) and price
// has pulled back to within a tolerance band around EMA20.
type EMAPullback struct {
	tolerance float64
}

func NewEMAPullback(tolerance float64) *EMAPullback {
	if tolerance <= 0 {
		tolerance = 0.015
	}
	return &EMAPullback{tolerance: tolerance}
}

func (s *EMAPullback) Name() string {
	return NameEMAPullback
}

func (s *EMAPullback) Evaluate(bar *model.Bar, _ *model.Bar) Signal {
	ema200, ok := bar.Indicator(dto.IndicatorEMA200)
	if !ok {
		return SignalNone
	}
	ema20, ok := bar.Indicator(dto.IndicatorEMA20)
	if !ok {
		return SignalNone
	}

	trendUp := bar.Close > ema200
	touchEMA20 := bar.Close >= ema20*(1-s.tolerance) && bar.Close <= ema20*(1+s.tolerance)

	if trendUp && touchEMA20 {
		return SignalEnter
	}
	return SignalNone
}
