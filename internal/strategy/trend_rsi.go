package strategy

import (
	"equity-lab/internal/dto"
	"equity-lab/internal/model"
)

const NameTrendRSI = "trend-rsi"

// TrendRSI enters when the medium trend is up (close above EMA60) while RSI is
// still below the threshold, i.e. the move has not overheated yet.
type TrendRSI struct {
	rsiThreshold float64
}

func NewTrendRSI(rsiThreshold float64) *TrendRSI {
	if rsiThreshold <= 0 {
		rsiThreshold = 55
	}
	return &TrendRSI{rsiThreshold: rsiThreshold}
}

func (s *TrendRSI) Name() string {
	return NameTrendRSI
}

func (s *TrendRSI) Evaluate(bar *model.Bar, _ *model.Bar) Signal {
	ema60, ok := bar.Indicator(dto.IndicatorEMA60)
	if !ok {
		return SignalNone
	}
	rsi, ok := bar.Indicator(dto.IndicatorRSI)
	if !ok {
		return SignalNone
	}

	if bar.Close > ema60 && rsi < s.rsiThreshold {
		return SignalEnter
	}
	return SignalNone
}
