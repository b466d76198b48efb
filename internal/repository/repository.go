package repository

import (
	"equity-lab/config"
	"equity-lab/pkg/cache"
	"equity-lab/pkg/logger"

	"gorm.io/gorm"
)

type Repository struct {
	SeriesRepo         SeriesRepository
	MarketDataRepo     MarketDataRepository
	ReconciliationRepo ReconciliationRepository
	TradeLogRepo       TradeLogRepository
	AIRepo             AIRepository
}

func NewRepository(cfg *config.Config, inmemoryCache cache.Cache, db *gorm.DB, log *logger.Logger) (*Repository, error) {
	seriesRepo, err := NewSeriesRepository(db, cfg, inmemoryCache, log)
	if err != nil {
		return nil, err
	}

	marketDataRepo, err := NewMarketDataRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	aiRepo, err := NewGeminiAIRepository(cfg, log)
	if err != nil {
		return nil, err
	}

	return &Repository{
		SeriesRepo:         seriesRepo,
		MarketDataRepo:     marketDataRepo,
		ReconciliationRepo: NewReconciliationRepository(db),
		TradeLogRepo:       NewTradeCSVRepository(log),
		AIRepo:             aiRepo,
	}, nil
}
