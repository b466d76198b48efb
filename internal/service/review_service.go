package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"equity-lab/config"
	"equity-lab/internal/dto"
	"equity-lab/internal/model"
	"equity-lab/internal/repository"
	"equity-lab/pkg/logger"
	"equity-lab/pkg/utils"

	"golang.org/x/sync/errgroup"
)

// ReviewService reconciles executed trades against the intraday bars that
// followed them: for every fill it finds the best achievable alternative price
// in the rest of the session and how long the trader would have had to wait
// for it.
type ReviewService interface {
	RunReview(ctx context.Context, req dto.ReviewRequest) (*dto.ReviewReport, error)
}

type reviewService struct {
	cfg                *config.Config
	log                *logger.Logger
	seriesRepo         repository.SeriesRepository
	tradeLogRepo       repository.TradeLogRepository
	reconciliationRepo repository.ReconciliationRepository

	sourceLoc *time.Location
	marketLoc *time.Location

	// Injectable clock so the cutoff window is testable.
	now func() time.Time

	// Guards the dedup check-then-append when trades run in parallel. The
	// inflight set catches same-fingerprint trades inside one batch, where the
	// store lookup alone would race with the analysis in between.
	dedupMu  sync.Mutex
	inflight map[string]bool
}

func NewReviewService(
	cfg *config.Config,
	log *logger.Logger,
	seriesRepo repository.SeriesRepository,
	tradeLogRepo repository.TradeLogRepository,
	reconciliationRepo repository.ReconciliationRepository,
) (ReviewService, error) {
	sourceLoc, err := time.LoadLocation(cfg.Review.SourceTimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid source time zone '%s': %w", cfg.Review.SourceTimeZone, err)
	}
	marketLoc, err := time.LoadLocation(cfg.Review.MarketTimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid market time zone '%s': %w", cfg.Review.MarketTimeZone, err)
	}

	return &reviewService{
		cfg:                cfg,
		log:                log,
		seriesRepo:         seriesRepo,
		tradeLogRepo:       tradeLogRepo,
		reconciliationRepo: reconciliationRepo,
		sourceLoc:          sourceLoc,
		marketLoc:          marketLoc,
		now:                time.Now,
		inflight:           make(map[string]bool),
	}, nil
}

func (s *reviewService) RunReview(ctx context.Context, req dto.ReviewRequest) (*dto.ReviewReport, error) {
	startedAt := s.now()

	trades, err := s.tradeLogRepo.Load(ctx, req.CSVPath)
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	if s.cfg.Review.CutoffDays > 0 {
		cutoff = s.now().In(s.marketLoc).AddDate(0, 0, -s.cfg.Review.CutoffDays)
	}

	report := &dto.ReviewReport{
		TotalTrades:  len(trades),
		StatusCounts: make(map[dto.ReviewStatus]int),
		StartedAt:    startedAt,
	}

	outcomes := make([]*dto.ReviewOutcome, len(trades))
	persisted := make([]bool, len(trades))

	concurrency := s.cfg.Review.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, trade := range trades {
		g.Go(func() error {
			outcome, wrote, err := s.reviewTrade(gctx, trade, cutoff)
			if err != nil {
				// Systemic failures (store unreachable) abort the batch; any
				// per-trade problem has already been downgraded to a status.
				return err
			}
			outcomes[i] = outcome
			persisted[i] = wrote
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, outcome := range outcomes {
		if outcome == nil {
			continue
		}
		report.StatusCounts[outcome.Status]++
		if persisted[i] {
			report.NewRecords++
		}
		if outcome.Status != dto.StatusDuplicate {
			report.Outcomes = append(report.Outcomes, *outcome)
		}
	}

	// Largest missed opportunity first, the way the review is meant to be read.
	sort.SliceStable(report.Outcomes, func(i, j int) bool {
		return report.Outcomes[i].MissedPct > report.Outcomes[j].MissedPct
	})

	report.FinishedAt = s.now()
	s.log.InfoContext(ctx, "Trade review completed",
		logger.IntField("total_trades", report.TotalTrades),
		logger.IntField("new_records", report.NewRecords),
	)
	return report, nil
}

// reviewTrade runs the full pipeline for one trade. The bool result reports
// whether a new record was persisted.
func (s *reviewService) reviewTrade(ctx context.Context, trade dto.RawTrade, cutoff time.Time) (*dto.ReviewOutcome, bool, error) {
	outcome := &dto.ReviewOutcome{
		Symbol:        trade.Symbol,
		Side:          trade.Side,
		ExecutedPrice: trade.Price,
	}

	// 1. Parse and convert the source-timezone timestamp.
	if trade.Side != dto.SideBuy && trade.Side != dto.SideSell || trade.Price <= 0 {
		outcome.Status = dto.StatusUnparseable
		return outcome, false, nil
	}
	executedAt, err := utils.ParseInLocation(trade.RawTimestamp, s.sourceLoc)
	if err != nil {
		outcome.Status = dto.StatusUnparseable
		return outcome, false, nil
	}
	executedAt = executedAt.In(s.marketLoc)
	outcome.ExecutedAt = executedAt

	// 2. Dedup on the content fingerprint. Check and append are both taken
	// under the same lock so parallel workers cannot double-write.
	fingerprint := model.TradeFingerprint(trade.Symbol, string(trade.Side), trade.Price, trade.RawTimestamp)

	s.dedupMu.Lock()
	seen, err := s.reconciliationRepo.Contains(ctx, fingerprint)
	if err == nil && !seen {
		seen = s.inflight[fingerprint]
		s.inflight[fingerprint] = true
	}
	s.dedupMu.Unlock()
	if err != nil {
		return nil, false, err
	}
	if seen {
		outcome.Status = dto.StatusDuplicate
		return outcome, false, nil
	}

	// 3. Cutoff boundary.
	if !cutoff.IsZero() && executedAt.Before(cutoff) {
		outcome.Status = dto.StatusBeforeCutoff
		return outcome, false, nil
	}

	record := &model.Reconciliation{
		Fingerprint:   fingerprint,
		Symbol:        trade.Symbol,
		Side:          string(trade.Side),
		ExecutedPrice: trade.Price,
		RawTimestamp:  trade.RawTimestamp,
		ExecutedAt:    executedAt,
	}

	status, err := s.analyze(ctx, trade, executedAt, record, outcome)
	if err != nil {
		return nil, false, err
	}
	outcome.Status = status
	record.Status = string(status)

	s.dedupMu.Lock()
	err = s.reconciliationRepo.Append(ctx, record)
	s.dedupMu.Unlock()
	if err != nil {
		return nil, false, err
	}
	return outcome, true, nil
}

// analyze performs steps 4-8 of the pipeline: fetch the session, restrict to
// bars after the fill, filter corrupted ticks and search for the better price.
func (s *reviewService) analyze(
	ctx context.Context,
	trade dto.RawTrade,
	executedAt time.Time,
	record *model.Reconciliation,
	outcome *dto.ReviewOutcome,
) (dto.ReviewStatus, error) {
	session, err := s.seriesRepo.GetIntradaySeries(ctx, trade.Symbol, executedAt)
	if err != nil {
		return "", err
	}
	if len(session) == 0 {
		return dto.StatusNoHistoryData, nil
	}

	future := session.AfterStrict(executedAt)
	if len(future) == 0 {
		return dto.StatusNoSubsequentData, nil
	}

	// Ticks outside the sanity band around the executed price are treated as
	// data corruption. The boundary itself is excluded.
	lowBound := trade.Price * (1 - s.cfg.Review.BadTickThreshold)
	highBound := trade.Price * (1 + s.cfg.Review.BadTickThreshold)
	clean := future.Filter(func(b model.Bar) bool {
		return b.Low > lowBound && b.High < highBound
	})
	if len(clean) == 0 {
		return dto.StatusDataAnomaly, nil
	}

	var bestPrice float64
	var bestAt time.Time
	var improved bool
	var firstImprovementAt time.Time

	if trade.Side == dto.SideBuy {
		idx := clean.MinLowIndex()
		bestPrice, bestAt = clean[idx].Low, clean[idx].Timestamp
		improved = bestPrice < trade.Price
		for _, b := range clean {
			if b.Low <= trade.Price {
				firstImprovementAt = b.Timestamp
				break
			}
		}
	} else {
		idx := clean.MaxHighIndex()
		bestPrice, bestAt = clean[idx].High, clean[idx].Timestamp
		improved = bestPrice > trade.Price
		for _, b := range clean {
			if b.High >= trade.Price {
				firstImprovementAt = b.Timestamp
				break
			}
		}
	}

	if !improved {
		return dto.StatusOptimalExecution, nil
	}

	waitToBest := bestAt.Sub(executedAt)
	waitToFirst := firstImprovementAt.Sub(executedAt)
	missedPct := (bestPrice - trade.Price) / trade.Price * 100
	if missedPct < 0 {
		missedPct = -missedPct
	}

	record.BestPrice = utils.ToPointer(bestPrice)
	record.BestPriceAt = utils.ToPointer(bestAt)
	record.FirstImprovementAt = utils.ToPointer(firstImprovementAt)
	record.WaitToBestSeconds = utils.ToPointer(int64(waitToBest.Seconds()))
	record.WaitToFirstSeconds = utils.ToPointer(int64(waitToFirst.Seconds()))
	record.MissedPct = missedPct

	outcome.BestPrice = bestPrice
	outcome.BestPriceAt = utils.ToPointer(bestAt)
	outcome.FirstImprovementAt = utils.ToPointer(firstImprovementAt)
	outcome.WaitToBest = utils.FormatWait(waitToBest)
	outcome.WaitToFirst = utils.FormatWait(waitToFirst)
	outcome.MissedPct = missedPct

	return dto.StatusImprovable, nil
}
