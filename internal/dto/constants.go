package dto

// Trade sides as they appear in the broker export.
type TradeSide string

const (
	SideBuy  TradeSide = "B"
	SideSell TradeSide = "S"
)

// TradeAction is the simulator's trade log action.
type TradeAction string

const (
	ActionBuy  TradeAction = "BUY"
	ActionSell TradeAction = "SELL"
)

// TradeReason explains why the simulator opened or closed a position.
type TradeReason string

const (
	ReasonSignalEntry   TradeReason = "signal-entry"
	ReasonStopLoss      TradeReason = "stop-loss"
	ReasonTakeProfit    TradeReason = "take-profit"
	ReasonTimeExit      TradeReason = "time-exit"
	ReasonBreakevenExit TradeReason = "breakeven-exit"
	ReasonTrendExit     TradeReason = "trend-exit"
)

// ReviewStatus classifies the outcome of reconciling one trade.
type ReviewStatus string

const (
	StatusUnparseable      ReviewStatus = "unparseable"
	StatusDuplicate        ReviewStatus = "duplicate"
	StatusBeforeCutoff     ReviewStatus = "before-cutoff"
	StatusNoHistoryData    ReviewStatus = "no-history-data"
	StatusNoSubsequentData ReviewStatus = "no-subsequent-data"
	StatusDataAnomaly      ReviewStatus = "data-anomaly"
	StatusOptimalExecution ReviewStatus = "optimal-execution"
	StatusImprovable       ReviewStatus = "improvable"
)

// Indicator names as stored in the bars jsonb column.
const (
	IndicatorEMA5    = "EMA5"
	IndicatorEMA10   = "EMA10"
	IndicatorEMA20   = "EMA20"
	IndicatorEMA60   = "EMA60"
	IndicatorEMA120  = "EMA120"
	IndicatorEMA200  = "EMA200"
	IndicatorMA200   = "MA200"
	IndicatorRSI     = "RSI"
	IndicatorATR     = "ATR"
	IndicatorMACD    = "MACD"
	IndicatorMACDSig = "MACD_Signal"
	IndicatorBBU     = "BBU"
	IndicatorBBM     = "BBM"
	IndicatorBBL     = "BBL"
)
