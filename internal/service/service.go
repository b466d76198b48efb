package service

import (
	"equity-lab/config"
	"equity-lab/internal/repository"
	"equity-lab/pkg/logger"
	"equity-lab/pkg/notify"
)

type Service struct {
	BacktestService  BacktestService
	ReviewService    ReviewService
	SyncService      SyncService
	ReportService    ReportService
	SchedulerService SchedulerService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
	notifier notify.Notifier,
) (*Service, error) {
	reportService := NewReportService(cfg, log)
	backtestService := NewBacktestService(cfg, log, repo.SeriesRepo, repo.AIRepo, reportService)

	reviewService, err := NewReviewService(cfg, log, repo.SeriesRepo, repo.TradeLogRepo, repo.ReconciliationRepo)
	if err != nil {
		return nil, err
	}

	syncService := NewSyncService(cfg, log, repo.MarketDataRepo, repo.SeriesRepo)
	schedulerService := NewSchedulerService(cfg, log, syncService, reviewService, notifier)

	return &Service{
		BacktestService:  backtestService,
		ReviewService:    reviewService,
		SyncService:      syncService,
		ReportService:    reportService,
		SchedulerService: schedulerService,
	}, nil
}
