package service

import (
	"math"

	"equity-lab/internal/dto"
	"equity-lab/internal/model"
)

// ComputeIndicators enriches a daily series in place with the indicator set
// the strategies and the regime gate read: EMAs, MA200, RSI(14), ATR(14),
// MACD(12,26,9) and Bollinger(20,2). Values that are undefined during the
// warm-up window are simply not stored.
func ComputeIndicators(bars []model.Bar) []model.Bar {
	if len(bars) == 0 {
		return bars
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	emaSpans := map[string]int{
		dto.IndicatorEMA5:   5,
		dto.IndicatorEMA10:  10,
		dto.IndicatorEMA20:  20,
		dto.IndicatorEMA60:  60,
		dto.IndicatorEMA120: 120,
		dto.IndicatorEMA200: 200,
	}
	for name, span := range emaSpans {
		values := ema(closes, span)
		for i := range bars {
			// An EMA is only meaningful once a full span has been seen.
			if i >= span-1 {
				bars[i].SetIndicator(name, values[i])
			}
		}
	}

	sma200 := sma(closes, 200)
	for i := range bars {
		if !math.IsNaN(sma200[i]) {
			bars[i].SetIndicator(dto.IndicatorMA200, sma200[i])
		}
	}

	rsi := rsi14(closes)
	for i := range bars {
		if !math.IsNaN(rsi[i]) {
			bars[i].SetIndicator(dto.IndicatorRSI, rsi[i])
		}
	}

	atr := atr14(bars)
	for i := range bars {
		if !math.IsNaN(atr[i]) {
			bars[i].SetIndicator(dto.IndicatorATR, atr[i])
		}
	}

	macd, signal := macd1226(closes)
	for i := range bars {
		if i >= 26-1 {
			bars[i].SetIndicator(dto.IndicatorMACD, macd[i])
			bars[i].SetIndicator(dto.IndicatorMACDSig, signal[i])
		}
	}

	mid := sma(closes, 20)
	std := rollingStd(closes, 20)
	for i := range bars {
		if !math.IsNaN(mid[i]) && !math.IsNaN(std[i]) {
			bars[i].SetIndicator(dto.IndicatorBBM, mid[i])
			bars[i].SetIndicator(dto.IndicatorBBU, mid[i]+2*std[i])
			bars[i].SetIndicator(dto.IndicatorBBL, mid[i]-2*std[i])
		}
	}

	return bars
}

// ema uses the span convention alpha = 2/(span+1), seeded from the first value.
func ema(values []float64, span int) []float64 {
	out := make([]float64, len(values))
	alpha := 2.0 / (float64(span) + 1)
	for i, v := range values {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}

// wilder uses alpha = 1/period, the smoothing RSI and ATR are defined with.
func wilder(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	alpha := 1.0 / float64(period)
	for i, v := range values {
		if i == 0 {
			out[i] = v
			continue
		}
		out[i] = alpha*v + (1-alpha)*out[i-1]
	}
	return out
}

func sma(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

func rollingStd(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		if i < window-1 {
			out[i] = math.NaN()
			continue
		}
		slice := values[i-window+1 : i+1]
		var mean float64
		for _, v := range slice {
			mean += v
		}
		mean /= float64(window)
		var variance float64
		for _, v := range slice {
			variance += (v - mean) * (v - mean)
		}
		// Sample std, matching the rolling std the bands were tuned with.
		out[i] = math.Sqrt(variance / float64(window-1))
	}
	return out
}

func rsi14(closes []float64) []float64 {
	out := make([]float64, len(closes))
	if len(closes) < 2 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}

	gains := make([]float64, len(closes))
	losses := make([]float64, len(closes))
	for i := 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := wilder(gains, 14)
	avgLoss := wilder(losses, 14)
	for i := range closes {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		if avgLoss[i] == 0 {
			out[i] = 100
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[i] = 100 - 100/(1+rs)
	}
	return out
}

func atr14(bars []model.Bar) []float64 {
	out := make([]float64, len(bars))
	if len(bars) == 0 {
		return out
	}

	tr := make([]float64, len(bars))
	for i, b := range bars {
		if i == 0 {
			tr[i] = b.High - b.Low
			continue
		}
		prevClose := bars[i-1].Close
		tr[i] = math.Max(b.High-b.Low, math.Max(math.Abs(b.High-prevClose), math.Abs(b.Low-prevClose)))
	}

	smoothed := wilder(tr, 14)
	for i := range bars {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = smoothed[i]
	}
	return out
}

func macd1226(closes []float64) ([]float64, []float64) {
	ema12 := ema(closes, 12)
	ema26 := ema(closes, 26)
	macd := make([]float64, len(closes))
	for i := range closes {
		macd[i] = ema12[i] - ema26[i]
	}
	signal := ema(macd, 9)
	return macd, signal
}
