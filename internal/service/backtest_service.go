package service

import (
	"context"
	"sort"
	"time"

	"equity-lab/config"
	"equity-lab/internal/dto"
	"equity-lab/internal/model"
	"equity-lab/internal/repository"
	"equity-lab/internal/strategy"
	"equity-lab/pkg/logger"
)

// BacktestService runs the day-by-day portfolio simulation.
type BacktestService interface {
	RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error)
}

type backtestService struct {
	cfg           *config.Config
	log           *logger.Logger
	seriesRepo    repository.SeriesRepository
	aiRepo        repository.AIRepository
	reportService ReportService
}

func NewBacktestService(
	cfg *config.Config,
	log *logger.Logger,
	seriesRepo repository.SeriesRepository,
	aiRepo repository.AIRepository,
	reportService ReportService,
) BacktestService {
	return &backtestService{
		cfg:           cfg,
		log:           log,
		seriesRepo:    seriesRepo,
		aiRepo:        aiRepo,
		reportService: reportService,
	}
}

func (s *backtestService) RunBacktest(ctx context.Context, req dto.BacktestRequest) (*dto.BacktestResult, error) {
	if req.Sizing == "" {
		req.Sizing = dto.SizingRiskBased
	}

	eval, err := strategy.ForName(req.Strategy, 0, 0)
	if err != nil {
		return nil, err
	}

	seriesBySymbol, skipped, err := s.loadSeries(ctx, req)
	if err != nil {
		return nil, err
	}

	benchmark, err := s.seriesRepo.GetBenchmarkSeries(ctx)
	if err != nil {
		// The regime gate degrades to "permit" without a benchmark; the run
		// itself must not abort over it.
		s.log.WarnContext(ctx, "Benchmark series unavailable, regime gate disabled", logger.ErrorField(err))
		benchmark = nil
	}

	timeline := buildTimeline(seriesBySymbol)
	symbols := sortedSymbols(seriesBySymbol)
	portfolio := NewPortfolio(s.cfg.Backtest.InitialCapital)

	for _, ts := range timeline {
		// Exits always run before entries, and a slot freed this step cannot
		// be refilled until the next one.
		exited := s.processExits(portfolio, seriesBySymbol, ts)

		if s.regimePermitsEntries(benchmark, ts) {
			s.processEntries(portfolio, seriesBySymbol, symbols, exited, eval, req.Sizing, ts)
		}

		portfolio.Snapshot(ts)
	}

	result := &dto.BacktestResult{
		Request:     req,
		Trades:      portfolio.Trades(),
		EquityCurve: portfolio.EquityCurve(),
		Skipped:     skipped,
	}
	result.Summary = s.reportService.Summarize(s.cfg.Backtest.InitialCapital, result.Trades, result.EquityCurve, benchmark)

	if comment, err := s.aiRepo.CommentOnBacktest(ctx, result.Summary); err == nil {
		result.AIComment = comment
	} else {
		s.log.WarnContext(ctx, "Backtest commentary unavailable", logger.ErrorField(err))
	}

	s.log.InfoContext(ctx, "Backtest simulation completed",
		logger.IntField("symbols", len(seriesBySymbol)),
		logger.IntField("timesteps", len(timeline)),
		logger.IntField("total_trades", result.Summary.TotalTrades),
		logger.FloatField("total_return", result.Summary.TotalReturn),
		logger.FloatField("max_drawdown", result.Summary.MaxDrawdown),
	)
	return result, nil
}

func (s *backtestService) loadSeries(ctx context.Context, req dto.BacktestRequest) (map[string]model.Series, []string, error) {
	seriesBySymbol := make(map[string]model.Series, len(req.Symbols))
	var skipped []string

	for _, symbol := range req.Symbols {
		series, err := s.seriesRepo.GetSeries(ctx, symbol)
		if err != nil {
			return nil, nil, err
		}
		series = restrictWindow(series, req.StartDate, req.EndDate)
		if len(series) == 0 {
			skipped = append(skipped, symbol)
			s.log.WarnContext(ctx, "No series data for symbol, skipping", logger.StringField("symbol", symbol))
			continue
		}
		seriesBySymbol[symbol] = series
	}

	return seriesBySymbol, skipped, nil
}

func restrictWindow(series model.Series, start, end time.Time) model.Series {
	return series.Filter(func(b model.Bar) bool {
		if !start.IsZero() && b.Timestamp.Before(start) {
			return false
		}
		if !end.IsZero() && b.Timestamp.After(end) {
			return false
		}
		return true
	})
}

// buildTimeline returns the sorted union of all symbols' timestamps.
func buildTimeline(seriesBySymbol map[string]model.Series) []time.Time {
	seen := make(map[int64]time.Time)
	for _, series := range seriesBySymbol {
		for _, bar := range series {
			seen[bar.Timestamp.UnixNano()] = bar.Timestamp
		}
	}
	timeline := make([]time.Time, 0, len(seen))
	for _, ts := range seen {
		timeline = append(timeline, ts)
	}
	sort.Slice(timeline, func(i, j int) bool { return timeline[i].Before(timeline[j]) })
	return timeline
}

func sortedSymbols(seriesBySymbol map[string]model.Series) []string {
	symbols := make([]string, 0, len(seriesBySymbol))
	for symbol := range seriesBySymbol {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// processExits marks every open position to market and applies the exit rules
// in fixed priority order: stop-loss, take-profit, time exit, breakeven
// protection, trend break. First match wins.
func (s *backtestService) processExits(portfolio *Portfolio, seriesBySymbol map[string]model.Series, ts time.Time) map[string]bool {
	cfg := s.cfg.Backtest
	exited := make(map[string]bool)

	for _, symbol := range portfolio.OpenSymbols() {
		series := seriesBySymbol[symbol]
		bar, ok := series.At(ts)
		if !ok {
			// No bar this step: the position keeps its previous mark and is
			// not eligible for an exit.
			continue
		}

		pos, _ := portfolio.Position(symbol)
		pos.LastMark = bar.Close
		pos.BarsHeld++
		if ret := pos.UnrealizedReturn(); ret > pos.MaxReturn {
			pos.MaxReturn = ret
		}
		ret := pos.UnrealizedReturn()

		switch {
		case bar.Close <= pos.StopPrice:
			portfolio.Close(ts, symbol, bar.Close, dto.ReasonStopLoss)

		case ret >= cfg.TakeProfitFraction:
			portfolio.Close(ts, symbol, bar.Close, dto.ReasonTakeProfit)

		case pos.BarsHeld >= cfg.MaxHoldPeriods:
			portfolio.Close(ts, symbol, bar.Close, dto.ReasonTimeExit)

		case pos.MaxReturn >= cfg.BreakevenTrigger && ret <= cfg.BreakevenBand:
			portfolio.Close(ts, symbol, bar.Close, dto.ReasonBreakevenExit)

		default:
			// Trend break needs EMA20; without it the rule is simply skipped.
			if ema20, ok := bar.Indicator(dto.IndicatorEMA20); ok {
				if bar.Close < ema20 && bar.Close > pos.EntryPrice {
					portfolio.Close(ts, symbol, bar.Close, dto.ReasonTrendExit)
				}
			}
		}

		if _, open := portfolio.Position(symbol); !open {
			exited[symbol] = true
		}
	}

	return exited
}

// regimePermitsEntries checks the benchmark at (or most recently before) ts.
// New entries are blocked only when the benchmark closed below its long moving
// average; an undefined average defaults to permit.
func (s *backtestService) regimePermitsEntries(benchmark model.Series, ts time.Time) bool {
	if len(benchmark) == 0 {
		return true
	}
	bar, ok := benchmark.AtOrBefore(ts)
	if !ok {
		return true
	}
	longMA, ok := bar.Indicator(dto.IndicatorMA200)
	if !ok {
		return true
	}
	return bar.Close >= longMA
}

func (s *backtestService) processEntries(
	portfolio *Portfolio,
	seriesBySymbol map[string]model.Series,
	symbols []string,
	exited map[string]bool,
	eval strategy.Evaluator,
	sizing dto.SizingMode,
	ts time.Time,
) {
	for _, symbol := range symbols {
		if exited[symbol] {
			continue
		}
		if _, open := portfolio.Position(symbol); open {
			continue
		}
		series := seriesBySymbol[symbol]
		bar, ok := series.At(ts)
		if !ok {
			continue
		}

		var prev *model.Bar
		if prevBar, ok := series.AtOrBefore(ts.Add(-time.Nanosecond)); ok {
			prev = prevBar
		}

		if eval.Evaluate(bar, prev) != strategy.SignalEnter {
			continue
		}

		quantity, stopPrice := s.sizeOrder(portfolio, bar, sizing)
		if quantity <= 0 {
			continue
		}
		portfolio.Open(ts, symbol, quantity, bar.Close, stopPrice)
	}
}

// sizeOrder computes quantity and absolute stop for a new position. Orders
// below the minimum order value are skipped, orders above available cash are
// clamped to it.
func (s *backtestService) sizeOrder(portfolio *Portfolio, bar *model.Bar, sizing dto.SizingMode) (float64, float64) {
	cfg := s.cfg.Backtest
	price := bar.Close
	if price <= 0 {
		return 0, 0
	}

	equity := portfolio.Equity()
	cash := portfolio.Cash()

	var quantity, stopPrice float64
	switch sizing {
	case dto.SizingFixedFraction:
		target := equity * cfg.MaxPositionFraction
		if target > cash {
			target = cash
		}
		quantity = target / price
		stopPrice = price * (1 - cfg.StopLossFraction)

	default: // risk-based
		atr, ok := bar.Indicator(dto.IndicatorATR)
		if !ok || atr <= 0 {
			// Degenerate volatility: substitute a fraction of price instead
			// of letting the division blow up.
			atr = price * cfg.ATRFallbackFraction
		}
		stopDist := atr * cfg.StopATRMultiplier
		if stopDist <= 0 {
			return 0, 0
		}
		quantity = equity * cfg.RiskPerTrade / stopDist
		if quantity*price > cash {
			quantity = cash / price
		}
		stopPrice = price - stopDist
		if stopPrice < 0 {
			stopPrice = 0
		}
	}

	if quantity*price < cfg.MinOrderValue {
		return 0, 0
	}
	return quantity, stopPrice
}
