package dto

import "time"

// SizingMode selects how the simulator sizes new positions.
type SizingMode string

const (
	SizingRiskBased     SizingMode = "risk"
	SizingFixedFraction SizingMode = "fixed"
)

// BacktestRequest defines the parameters for one portfolio simulation run.
type BacktestRequest struct {
	Symbols   []string   `json:"symbols" validate:"required,min=1"`
	Strategy  string     `json:"strategy" validate:"required"`
	Sizing    SizingMode `json:"sizing"`
	StartDate time.Time  `json:"start_date"`
	EndDate   time.Time  `json:"end_date"`
}

// TradeLogEntry records one fill made by the simulator. RealizedReturn is only
// populated on SELL entries.
type TradeLogEntry struct {
	Timestamp      time.Time   `json:"timestamp"`
	Symbol         string      `json:"symbol"`
	Action         TradeAction `json:"action"`
	Price          float64     `json:"price"`
	Quantity       float64     `json:"quantity"`
	Reason         TradeReason `json:"reason"`
	RealizedReturn float64     `json:"realized_return"`
}

// EquitySnapshot is one point of the equity curve.
type EquitySnapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	TotalEquity float64   `json:"total_equity"`
}

// BacktestSummary aggregates a finished run.
type BacktestSummary struct {
	InitialCapital  float64 `json:"initial_capital"`
	FinalEquity     float64 `json:"final_equity"`
	TotalReturn     float64 `json:"total_return"`
	BenchmarkReturn float64 `json:"benchmark_return"`
	MaxDrawdown     float64 `json:"max_drawdown"`
	SharpeRatio     float64 `json:"sharpe_ratio"`
	WinRate         float64 `json:"win_rate"`
	ProfitFactor    float64 `json:"profit_factor"`
	AvgWin          float64 `json:"avg_win"`
	AvgLoss         float64 `json:"avg_loss"`
	TotalTrades     int     `json:"total_trades"`
	ClosedTrades    int     `json:"closed_trades"`
}

// BacktestResult is the full output of a run: the summary plus the raw trade
// log and equity curve, both read-only once the run completes.
type BacktestResult struct {
	Request     BacktestRequest  `json:"request"`
	Summary     BacktestSummary  `json:"summary"`
	Trades      []TradeLogEntry  `json:"trades"`
	EquityCurve []EquitySnapshot `json:"equity_curve"`
	Skipped     []string         `json:"skipped_symbols,omitempty"`
	AIComment   string           `json:"ai_comment,omitempty"`
}
