package repository

import (
	"context"
	"fmt"
	"time"

	"equity-lab/config"
	"equity-lab/internal/model"
	"equity-lab/pkg/cache"
	"equity-lab/pkg/logger"
	"equity-lab/pkg/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeriesRepository is the market series store: per-symbol, time-ascending bar
// series plus the benchmark series used by the regime gate. All timestamps are
// returned in the market time zone.
type SeriesRepository interface {
	GetSeries(ctx context.Context, symbol string) (model.Series, error)
	GetIntradaySeries(ctx context.Context, symbol string, date time.Time) (model.Series, error)
	GetBenchmarkSeries(ctx context.Context) (model.Series, error)
	Upsert(ctx context.Context, bars []model.Bar) (int, error)
}

type seriesRepository struct {
	db        *gorm.DB
	cfg       *config.Config
	cache     cache.Cache
	log       *logger.Logger
	marketLoc *time.Location
}

func NewSeriesRepository(db *gorm.DB, cfg *config.Config, inmemoryCache cache.Cache, log *logger.Logger) (SeriesRepository, error) {
	marketLoc, err := time.LoadLocation(cfg.Review.MarketTimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid market time zone '%s': %w", cfg.Review.MarketTimeZone, err)
	}

	return &seriesRepository{
		db:        db,
		cfg:       cfg,
		cache:     inmemoryCache,
		log:       log,
		marketLoc: marketLoc,
	}, nil
}

func (r *seriesRepository) GetSeries(ctx context.Context, symbol string) (model.Series, error) {
	var bars []model.Bar
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND timeframe = ?", symbol, model.TimeframeDaily).
		Order("timestamp ASC").
		Find(&bars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load daily series for %s: %w", symbol, err)
	}
	return r.inMarketTime(bars), nil
}

func (r *seriesRepository) GetIntradaySeries(ctx context.Context, symbol string, date time.Time) (model.Series, error) {
	dayStart := utils.MarketDate(date, r.marketLoc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	var bars []model.Bar
	err := r.db.WithContext(ctx).
		Where("symbol = ? AND timeframe = ? AND timestamp >= ? AND timestamp < ?",
			symbol, model.TimeframeMinute, dayStart, dayEnd).
		Order("timestamp ASC").
		Find(&bars).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load intraday series for %s: %w", symbol, err)
	}
	return r.inMarketTime(bars), nil
}

func (r *seriesRepository) GetBenchmarkSeries(ctx context.Context) (model.Series, error) {
	cacheKey := "benchmark_series_" + r.cfg.MarketData.BenchmarkSymbol
	if cached, found := r.cache.Get(cacheKey); found {
		if series, ok := cached.(model.Series); ok {
			return series, nil
		}
	}

	series, err := r.GetSeries(ctx, r.cfg.MarketData.BenchmarkSymbol)
	if err != nil {
		return nil, err
	}

	r.cache.Set(cacheKey, series, r.cfg.Cache.DefaultExpiration)
	return series, nil
}

// Upsert writes bars idempotently on (symbol, timeframe, timestamp), updating
// OHLCV and indicators for rows that already exist.
func (r *seriesRepository) Upsert(ctx context.Context, bars []model.Bar) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "timeframe"}, {Name: "timestamp"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open", "high", "low", "close", "volume", "indicators",
		}),
	}).CreateInBatches(bars, 500).Error
	if err != nil {
		return 0, fmt.Errorf("failed to upsert bars: %w", err)
	}

	return len(bars), nil
}

func (r *seriesRepository) inMarketTime(bars []model.Bar) model.Series {
	for i := range bars {
		bars[i].Timestamp = bars[i].Timestamp.In(r.marketLoc)
	}
	return bars
}
