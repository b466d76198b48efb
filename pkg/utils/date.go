package utils

import (
	"fmt"
	"time"
)

// Broker timestamps arrive in this layout, e.g. "2024/3/15 21:31".
const BrokerTimeLayout = "2006/1/2 15:04"

// ParseInLocation parses a broker timestamp string in the given source location.
func ParseInLocation(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(BrokerTimeLayout, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid trade timestamp '%s': %w", value, err)
	}
	return t, nil
}

// MarketDate truncates t to its calendar date in the market location.
func MarketDate(t time.Time, market *time.Location) time.Time {
	local := t.In(market)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, market)
}

// SameMarketDay reports whether a and b fall on the same calendar date in the market location.
func SameMarketDay(a, b time.Time, market *time.Location) bool {
	return MarketDate(a, market).Equal(MarketDate(b, market))
}

// FormatWait renders a wait duration as "+1h 30m" or "+12m".
func FormatWait(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	total := int(d.Minutes())
	hours := total / 60
	minutes := total % 60
	if hours > 0 {
		return fmt.Sprintf("+%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("+%dm", minutes)
}
