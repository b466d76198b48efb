package model

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"
)

// Reconciliation is one reviewed trade, persisted append-only and keyed by a
// content fingerprint so re-running a review over the same CSV is idempotent.
type Reconciliation struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Fingerprint string `gorm:"not null;uniqueIndex" json:"fingerprint"`

	Symbol        string    `gorm:"not null" json:"symbol"`
	Side          string    `gorm:"not null" json:"side"`
	ExecutedPrice float64   `gorm:"not null" json:"executed_price"`
	RawTimestamp  string    `gorm:"not null" json:"raw_timestamp"`
	ExecutedAt    time.Time `gorm:"not null" json:"executed_at"`

	Status string `gorm:"not null" json:"status"`

	BestPrice          *float64   `json:"best_price"`
	BestPriceAt        *time.Time `json:"best_price_at"`
	FirstImprovementAt *time.Time `json:"first_improvement_at"`
	WaitToFirstSeconds *int64     `json:"wait_to_first_seconds"`
	WaitToBestSeconds  *int64     `json:"wait_to_best_seconds"`
	MissedPct          float64    `json:"missed_pct"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Reconciliation) TableName() string {
	return "reconciliations"
}

// TradeFingerprint derives a stable identifier from the normalized trade
// fields. The fields are joined with an unprintable separator before hashing
// so "AB"+"C" and "A"+"BC" can never collide, and the price is encoded from
// its bit pattern rather than a formatted string.
func TradeFingerprint(symbol, side string, price float64, rawTimestamp string) string {
	parts := []string{
		strings.ToUpper(strings.TrimSpace(symbol)),
		strings.ToUpper(strings.TrimSpace(side)),
		strconv.FormatUint(math.Float64bits(price), 16),
		strings.TrimSpace(rawTimestamp),
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}
