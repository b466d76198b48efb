package dto

import "time"

// RawTrade is one row of the broker's CSV export, untouched: the timestamp
// stays a string in the source time zone until the review pipeline parses it.
type RawTrade struct {
	Symbol       string    `json:"symbol"`
	Side         TradeSide `json:"side"`
	Price        float64   `json:"price"`
	RawTimestamp string    `json:"raw_timestamp"`
}

// ReviewRequest drives one reconciliation batch over a trade CSV.
type ReviewRequest struct {
	CSVPath string `json:"csv_path" validate:"required"`
}

// ReviewOutcome is the per-trade result handed back to the caller. Persisted
// records carry the same fields, this mirror exists so a batch can also report
// trades that were skipped before reaching the store.
type ReviewOutcome struct {
	Symbol             string       `json:"symbol"`
	Side               TradeSide    `json:"side"`
	ExecutedPrice      float64      `json:"executed_price"`
	ExecutedAt         time.Time    `json:"executed_at"`
	Status             ReviewStatus `json:"status"`
	BestPrice          float64      `json:"best_price,omitempty"`
	BestPriceAt        *time.Time   `json:"best_price_at,omitempty"`
	FirstImprovementAt *time.Time   `json:"first_improvement_at,omitempty"`
	WaitToFirst        string       `json:"wait_to_first,omitempty"`
	WaitToBest         string       `json:"wait_to_best,omitempty"`
	MissedPct          float64      `json:"missed_pct"`
}

// ReviewReport summarizes a batch. A batch always produces a report, even a
// partial one: per-trade problems become statuses, never batch failures.
type ReviewReport struct {
	TotalTrades  int                  `json:"total_trades"`
	NewRecords   int                  `json:"new_records"`
	StatusCounts map[ReviewStatus]int `json:"status_counts"`
	Outcomes     []ReviewOutcome      `json:"outcomes"`
	StartedAt    time.Time            `json:"started_at"`
	FinishedAt   time.Time            `json:"finished_at"`
}
