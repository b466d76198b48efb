package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTradeFingerprint(t *testing.T) {
	base := TradeFingerprint("AAPL", "B", 50.0, "2024/3/15 22:00")

	tests := []struct {
		name      string
		symbol    string
		side      string
		price     float64
		timestamp string
		wantSame  bool
	}{
		{name: "identical fields", symbol: "AAPL", side: "B", price: 50.0, timestamp: "2024/3/15 22:00", wantSame: true},
		{name: "case and whitespace are normalized", symbol: " aapl ", side: "b", price: 50.0, timestamp: " 2024/3/15 22:00 ", wantSame: true},
		{name: "different timestamp", symbol: "AAPL", side: "B", price: 50.0, timestamp: "2024/3/15 22:01", wantSame: false},
		{name: "different price", symbol: "AAPL", side: "B", price: 50.01, timestamp: "2024/3/15 22:00", wantSame: false},
		{name: "different side", symbol: "AAPL", side: "S", price: 50.0, timestamp: "2024/3/15 22:00", wantSame: false},
		{name: "different symbol", symbol: "AAPLX", side: "B", price: 50.0, timestamp: "2024/3/15 22:00", wantSame: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TradeFingerprint(tt.symbol, tt.side, tt.price, tt.timestamp)
			assert.Len(t, got, 64)
			if tt.wantSame {
				assert.Equal(t, base, got)
			} else {
				assert.NotEqual(t, base, got)
			}
		})
	}
}

func TestTradeFingerprint_FieldBoundaries(t *testing.T) {
	// Adjacent fields must not be able to collide by shifting characters
	// across the boundary.
	a := TradeFingerprint("AB", "C", 1, "x")
	b := TradeFingerprint("A", "BC", 1, "x")
	assert.NotEqual(t, a, b)
}
