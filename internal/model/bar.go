package model

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"gorm.io/datatypes"
)

const (
	TimeframeDaily  = "1d"
	TimeframeMinute = "1m"
)

// Bar is one OHLCV sample plus whatever indicator values were computed at sync
// time. Indicator values live in a jsonb column so new indicators never need a
// schema change.
type Bar struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	Symbol     string            `gorm:"not null;index:idx_bars_symbol_tf_ts,unique,priority:1" json:"symbol"`
	Timeframe  string            `gorm:"not null;index:idx_bars_symbol_tf_ts,unique,priority:2" json:"timeframe"`
	Timestamp  time.Time         `gorm:"not null;index:idx_bars_symbol_tf_ts,unique,priority:3" json:"timestamp"`
	Open       float64           `gorm:"not null" json:"open"`
	High       float64           `gorm:"not null" json:"high"`
	Low        float64           `gorm:"not null" json:"low"`
	Close      float64           `gorm:"not null" json:"close"`
	Volume     int64             `gorm:"not null" json:"volume"`
	Indicators datatypes.JSONMap `gorm:"type:jsonb" json:"indicators"`
	CreatedAt  time.Time         `gorm:"autoCreateTime" json:"created_at"`
}

func (Bar) TableName() string {
	return "bars"
}

// Indicator returns the named indicator value. The second return is false when
// the indicator is absent, non-numeric or NaN (warm-up rows are stored without
// their undefined indicators).
func (b *Bar) Indicator(name string) (float64, bool) {
	if b.Indicators == nil {
		return 0, false
	}
	raw, ok := b.Indicators[name]
	if !ok || raw == nil {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// SetIndicator stores a value, dropping NaN/Inf so they never reach the jsonb column.
func (b *Bar) SetIndicator(name string, value float64) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return
	}
	if b.Indicators == nil {
		b.Indicators = datatypes.JSONMap{}
	}
	b.Indicators[name] = value
}

// Series is a time-ascending sequence of bars for one symbol. It is treated as
// immutable for the duration of a simulation run.
type Series []Bar

// At returns the bar exactly at ts using binary search.
func (s Series) At(ts time.Time) (*Bar, bool) {
	i := sort.Search(len(s), func(i int) bool {
		return !s[i].Timestamp.Before(ts)
	})
	if i < len(s) && s[i].Timestamp.Equal(ts) {
		return &s[i], true
	}
	return nil, false
}

// AtOrBefore returns the most recent bar at or before ts (pad lookup).
func (s Series) AtOrBefore(ts time.Time) (*Bar, bool) {
	i := sort.Search(len(s), func(i int) bool {
		return s[i].Timestamp.After(ts)
	})
	if i == 0 {
		return nil, false
	}
	return &s[i-1], true
}

// AfterStrict returns the sub-series strictly after ts.
func (s Series) AfterStrict(ts time.Time) Series {
	i := sort.Search(len(s), func(i int) bool {
		return s[i].Timestamp.After(ts)
	})
	return s[i:]
}

// MinLowIndex returns the index of the lowest low. Ties resolve to the
// earliest bar.
func (s Series) MinLowIndex() int {
	if len(s) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(s); i++ {
		if s[i].Low < s[best].Low {
			best = i
		}
	}
	return best
}

// MaxHighIndex returns the index of the highest high. Ties resolve to the
// earliest bar.
func (s Series) MaxHighIndex() int {
	if len(s) == 0 {
		return -1
	}
	best := 0
	for i := 1; i < len(s); i++ {
		if s[i].High > s[best].High {
			best = i
		}
	}
	return best
}

// Filter returns the bars for which keep returns true, preserving order.
func (s Series) Filter(keep func(Bar) bool) Series {
	out := make(Series, 0, len(s))
	for _, b := range s {
		if keep(b) {
			out = append(out, b)
		}
	}
	return out
}
