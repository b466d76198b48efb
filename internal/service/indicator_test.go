package service

import (
	"math"
	"testing"
	"time"

	"equity-lab/internal/dto"
	"equity-lab/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestSMA(t *testing.T) {
	got := sma([]float64{1, 2, 3, 4}, 2)

	assert.True(t, math.IsNaN(got[0]))
	assert.InDelta(t, 1.5, got[1], 1e-9)
	assert.InDelta(t, 2.5, got[2], 1e-9)
	assert.InDelta(t, 3.5, got[3], 1e-9)
}

func TestEMA_ConstantSeriesStaysFlat(t *testing.T) {
	got := ema([]float64{10, 10, 10, 10}, 3)
	for _, v := range got {
		assert.InDelta(t, 10.0, v, 1e-9)
	}
}

func TestEMA_SpanAlpha(t *testing.T) {
	// alpha = 2/(3+1) = 0.5, seeded from the first value.
	got := ema([]float64{10, 20}, 3)
	assert.InDelta(t, 10.0, got[0], 1e-9)
	assert.InDelta(t, 15.0, got[1], 1e-9)
}

func TestRSI14_AllGainsSaturate(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	got := rsi14(closes)
	assert.True(t, math.IsNaN(got[0]))
	for _, v := range got[1:] {
		assert.InDelta(t, 100.0, v, 1e-9)
	}
}

func TestRSI14_MixedMoves(t *testing.T) {
	closes := []float64{100, 102, 101, 103, 102, 104, 103, 105, 104, 106, 105, 107, 106, 108, 107, 109}

	got := rsi14(closes)
	last := got[len(got)-1]
	assert.Greater(t, last, 0.0)
	assert.Less(t, last, 100.0)
}

func TestATR14_FirstBarUndefined(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	bars := []model.Bar{
		{Timestamp: start, High: 105, Low: 95, Close: 100},
		{Timestamp: start.AddDate(0, 0, 1), High: 106, Low: 98, Close: 104},
	}

	got := atr14(bars)
	assert.True(t, math.IsNaN(got[0]))
	assert.False(t, math.IsNaN(got[1]))
	assert.Greater(t, got[1], 0.0)
}

func TestATR14_TrueRangeUsesGaps(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	// Second bar gaps far above the prior close, so its true range comes from
	// high minus previous close rather than its own high-low span.
	bars := []model.Bar{
		{Timestamp: start, High: 101, Low: 99, Close: 100},
		{Timestamp: start.AddDate(0, 0, 1), High: 120, Low: 119, Close: 119.5},
	}

	got := atr14(bars)
	// wilder(tr, 14): tr[1] = max(1, 20, 19) = 20, alpha = 1/14.
	want := (1.0/14.0)*20 + (13.0/14.0)*2
	assert.InDelta(t, want, got[1], 1e-9)
}

func TestComputeIndicators_WarmupHandling(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]model.Bar, 30)
	for i := range bars {
		bars[i] = dailyBar("AAPL", start.AddDate(0, 0, i), 100, nil)
	}

	bars = ComputeIndicators(bars)

	last := bars[len(bars)-1]
	ema20, ok := last.Indicator(dto.IndicatorEMA20)
	assert.True(t, ok)
	assert.InDelta(t, 100.0, ema20, 1e-9)

	// 30 bars are not enough for the longer windows.
	_, ok = last.Indicator(dto.IndicatorEMA60)
	assert.False(t, ok)
	_, ok = last.Indicator(dto.IndicatorMA200)
	assert.False(t, ok)

	// Flat closes: no losses, RSI saturates; bands collapse onto the middle.
	rsi, ok := last.Indicator(dto.IndicatorRSI)
	assert.True(t, ok)
	assert.InDelta(t, 100.0, rsi, 1e-9)

	bbu, _ := last.Indicator(dto.IndicatorBBU)
	bbl, _ := last.Indicator(dto.IndicatorBBL)
	assert.InDelta(t, 100.0, bbu, 1e-9)
	assert.InDelta(t, 100.0, bbl, 1e-9)

	// First bar carries none of the warm-up indicators.
	_, ok = bars[0].Indicator(dto.IndicatorEMA20)
	assert.False(t, ok)
	_, ok = bars[0].Indicator(dto.IndicatorRSI)
	assert.False(t, ok)
}

func TestComputeIndicators_Empty(t *testing.T) {
	assert.Empty(t, ComputeIndicators(nil))
}
