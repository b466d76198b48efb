package service

import (
	"context"
	"sync"

	"equity-lab/config"
	"equity-lab/internal/dto"
	"equity-lab/internal/repository"
	"equity-lab/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// SyncService pulls daily and intraday bars for the watchlist (plus the
// benchmark), computes indicators and upserts everything into the series
// store. A symbol that fails to fetch is recorded, not fatal.
type SyncService interface {
	SyncWatchlist(ctx context.Context) (*dto.SyncResult, error)
	SyncIntraday(ctx context.Context, symbols []string) (*dto.SyncResult, error)
}

type syncService struct {
	cfg            *config.Config
	log            *logger.Logger
	marketDataRepo repository.MarketDataRepository
	seriesRepo     repository.SeriesRepository
}

func NewSyncService(
	cfg *config.Config,
	log *logger.Logger,
	marketDataRepo repository.MarketDataRepository,
	seriesRepo repository.SeriesRepository,
) SyncService {
	return &syncService{
		cfg:            cfg,
		log:            log,
		marketDataRepo: marketDataRepo,
		seriesRepo:     seriesRepo,
	}
}

func (s *syncService) SyncWatchlist(ctx context.Context) (*dto.SyncResult, error) {
	symbols := append([]string{}, s.cfg.MarketData.Watchlist...)
	if bench := s.cfg.MarketData.BenchmarkSymbol; bench != "" {
		symbols = append(symbols, bench)
	}
	return s.sync(ctx, symbols, s.cfg.MarketData.DailyRange, "1d", true)
}

func (s *syncService) SyncIntraday(ctx context.Context, symbols []string) (*dto.SyncResult, error) {
	return s.sync(ctx, symbols, s.cfg.MarketData.IntradayRange, "1m", false)
}

func (s *syncService) sync(ctx context.Context, symbols []string, dataRange, interval string, withIndicators bool) (*dto.SyncResult, error) {
	result := &dto.SyncResult{SymbolsRequested: len(symbols)}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MarketData.SyncConcurrency)

	for _, symbol := range symbols {
		g.Go(func() error {
			bars, err := s.marketDataRepo.FetchBars(gctx, dto.GetBarsParam{
				Symbol:   symbol,
				Range:    dataRange,
				Interval: interval,
			})
			if err != nil || len(bars) == 0 {
				if err != nil {
					s.log.WarnContext(gctx, "Failed to fetch bars",
						logger.StringField("symbol", symbol),
						logger.ErrorField(err),
					)
				}
				mu.Lock()
				result.Failed = append(result.Failed, symbol)
				mu.Unlock()
				return nil
			}

			if withIndicators {
				bars = ComputeIndicators(bars)
			}

			n, err := s.seriesRepo.Upsert(gctx, bars)
			if err != nil {
				// Store failures are systemic, they abort the whole sync.
				return err
			}

			mu.Lock()
			result.SymbolsSynced++
			result.BarsUpserted += n
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Watchlist sync finished",
		logger.StringField("interval", interval),
		logger.IntField("symbols_synced", result.SymbolsSynced),
		logger.IntField("bars_upserted", result.BarsUpserted),
		logger.IntField("failed", len(result.Failed)),
	)
	return result, nil
}
