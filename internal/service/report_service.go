package service

import (
	"math"

	"equity-lab/config"
	"equity-lab/internal/dto"
	"equity-lab/internal/model"
	"equity-lab/pkg/logger"
)

// ReportService turns a trade log and equity curve into summary statistics and
// a benchmark comparison. It performs no writes back into simulator state.
type ReportService interface {
	Summarize(initialCapital float64, trades []dto.TradeLogEntry, curve []dto.EquitySnapshot, benchmark model.Series) dto.BacktestSummary
}

type reportService struct {
	cfg *config.Config
	log *logger.Logger
}

func NewReportService(cfg *config.Config, log *logger.Logger) ReportService {
	return &reportService{cfg: cfg, log: log}
}

func (s *reportService) Summarize(initialCapital float64, trades []dto.TradeLogEntry, curve []dto.EquitySnapshot, benchmark model.Series) dto.BacktestSummary {
	summary := dto.BacktestSummary{
		InitialCapital: initialCapital,
		FinalEquity:    initialCapital,
		TotalTrades:    len(trades),
	}

	if len(curve) > 0 {
		summary.FinalEquity = curve[len(curve)-1].TotalEquity
		if initialCapital > 0 {
			summary.TotalReturn = summary.FinalEquity/initialCapital - 1
		}
		summary.MaxDrawdown = maxDrawdown(curve)
		summary.BenchmarkReturn = benchmarkReturn(benchmark, curve)
	}

	s.fillTradeStats(&summary, trades)
	return summary
}

// maxDrawdown is the deepest peak-to-trough decline of the equity curve,
// returned as a negative fraction of the peak.
func maxDrawdown(curve []dto.EquitySnapshot) float64 {
	var peak, worst float64
	for _, point := range curve {
		if point.TotalEquity > peak {
			peak = point.TotalEquity
		}
		if peak > 0 {
			dd := (point.TotalEquity - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}

// benchmarkReturn normalizes the benchmark over the run window so both curves
// start from zero, using pad lookups at the window edges.
func benchmarkReturn(benchmark model.Series, curve []dto.EquitySnapshot) float64 {
	if len(benchmark) == 0 || len(curve) == 0 {
		return 0
	}
	first, ok := benchmark.AtOrBefore(curve[0].Timestamp)
	if !ok {
		// Run starts before the benchmark does; fall back to its first bar.
		first = &benchmark[0]
	}
	last, ok := benchmark.AtOrBefore(curve[len(curve)-1].Timestamp)
	if !ok || first.Close == 0 {
		return 0
	}
	return last.Close/first.Close - 1
}

func (s *reportService) fillTradeStats(summary *dto.BacktestSummary, trades []dto.TradeLogEntry) {
	var wins, losses int
	var totalWin, totalLoss float64
	var returns []float64

	for _, trade := range trades {
		if trade.Action != dto.ActionSell {
			continue
		}
		returns = append(returns, trade.RealizedReturn)
		if trade.RealizedReturn > 0 {
			wins++
			totalWin += trade.RealizedReturn
		} else {
			losses++
			totalLoss += -trade.RealizedReturn
		}
	}

	summary.ClosedTrades = len(returns)
	if len(returns) == 0 {
		return
	}

	summary.WinRate = float64(wins) / float64(len(returns))
	if wins > 0 {
		summary.AvgWin = totalWin / float64(wins)
	}
	if losses > 0 {
		summary.AvgLoss = totalLoss / float64(losses)
	}
	if totalLoss > 0 {
		summary.ProfitFactor = totalWin / totalLoss
	}
	summary.SharpeRatio = s.sharpe(returns)
}

// sharpe is the simplified per-trade ratio against a daily slice of the
// configured risk-free rate. It is a rough gauge, not an annualized figure.
func (s *reportService) sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns) - 1)

	std := math.Sqrt(variance)
	if std == 0 {
		return 0
	}
	return (mean - s.cfg.Backtest.RiskFreeRate/252) / std
}
