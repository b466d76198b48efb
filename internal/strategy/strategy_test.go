package strategy

import (
	"testing"

	"equity-lab/internal/dto"
	"equity-lab/internal/model"

	"github.com/stretchr/testify/assert"
)

func barWith(close float64, indicators map[string]float64) *model.Bar {
	b := &model.Bar{Close: close}
	for name, value := range indicators {
		b.SetIndicator(name, value)
	}
	return b
}

func TestTrendRSI_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		bar        *model.Bar
		rsiLimit   float64
		wantSignal Signal
	}{
		{
			name:       "uptrend with cool RSI enters",
			bar:        barWith(100, map[string]float64{dto.IndicatorEMA60: 90, dto.IndicatorRSI: 40}),
			wantSignal: SignalEnter,
		},
		{
			name:       "overheated RSI holds off",
			bar:        barWith(100, map[string]float64{dto.IndicatorEMA60: 90, dto.IndicatorRSI: 70}),
			wantSignal: SignalNone,
		},
		{
			name:       "below trend holds off",
			bar:        barWith(85, map[string]float64{dto.IndicatorEMA60: 90, dto.IndicatorRSI: 40}),
			wantSignal: SignalNone,
		},
		{
			name:       "missing EMA means no signal",
			bar:        barWith(100, map[string]float64{dto.IndicatorRSI: 40}),
			wantSignal: SignalNone,
		},
		{
			name:       "missing RSI means no signal",
			bar:        barWith(100, map[string]float64{dto.IndicatorEMA60: 90}),
			wantSignal: SignalNone,
		},
		{
			name:       "custom threshold",
			bar:        barWith(100, map[string]float64{dto.IndicatorEMA60: 90, dto.IndicatorRSI: 40}),
			rsiLimit:   35,
			wantSignal: SignalNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewTrendRSI(tt.rsiLimit)
			assert.Equal(t, tt.wantSignal, s.Evaluate(tt.bar, nil))
		})
	}
}

func TestEMAPullback_Evaluate(t *testing.T) {
	tests := []struct {
		name       string
		bar        *model.Bar
		tolerance  float64
		wantSignal Signal
	}{
		{
			name:       "pullback onto EMA20 in an uptrend enters",
			bar:        barWith(100.5, map[string]float64{dto.IndicatorEMA200: 80, dto.IndicatorEMA20: 100}),
			wantSignal: SignalEnter,
		},
		{
			name:       "price far above EMA20 holds off",
			bar:        barWith(110, map[string]float64{dto.IndicatorEMA200: 80, dto.IndicatorEMA20: 100}),
			wantSignal: SignalNone,
		},
		{
			name:       "downtrend holds off even at the band",
			bar:        barWith(100, map[string]float64{dto.IndicatorEMA200: 120, dto.IndicatorEMA20: 100}),
			wantSignal: SignalNone,
		},
		{
			name:       "missing indicators mean no signal",
			bar:        barWith(100, nil),
			wantSignal: SignalNone,
		},
		{
			name:       "wider tolerance admits a deeper pullback",
			bar:        barWith(96, map[string]float64{dto.IndicatorEMA200: 80, dto.IndicatorEMA20: 100}),
			tolerance:  0.05,
			wantSignal: SignalEnter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewEMAPullback(tt.tolerance)
			assert.Equal(t, tt.wantSignal, s.Evaluate(tt.bar, nil))
		})
	}
}

func TestForName(t *testing.T) {
	s, err := ForName(NameTrendRSI, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, NameTrendRSI, s.Name())

	s, err = ForName(NameEMAPullback, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, NameEMAPullback, s.Name())

	_, err = ForName("momentum-x", 0, 0)
	assert.Error(t, err)
}
