package service

import (
	"context"
	"fmt"

	"equity-lab/config"
	"equity-lab/internal/dto"
	"equity-lab/pkg/logger"
	"equity-lab/pkg/notify"
	"equity-lab/pkg/utils"

	"github.com/robfig/cron/v3"
)

// SchedulerService runs the daily job: sync the watchlist, then review the
// configured trade CSV, then notify the owner of the outcome.
type SchedulerService interface {
	Start(ctx context.Context) error
	Stop()
}

type schedulerService struct {
	cfg           *config.Config
	log           *logger.Logger
	syncService   SyncService
	reviewService ReviewService
	notifier      notify.Notifier
	cron          *cron.Cron
}

func NewSchedulerService(
	cfg *config.Config,
	log *logger.Logger,
	syncService SyncService,
	reviewService ReviewService,
	notifier notify.Notifier,
) SchedulerService {
	return &schedulerService{
		cfg:           cfg,
		log:           log,
		syncService:   syncService,
		reviewService: reviewService,
		notifier:      notifier,
		cron:          cron.New(),
	}
}

func (s *schedulerService) Start(ctx context.Context) error {
	if !s.cfg.Scheduler.Enabled {
		s.log.Info("Scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Scheduler.DailyJobCron, func() {
		utils.GoSafe(func() {
			s.runDailyJob(ctx)
		})
	})
	if err != nil {
		return fmt.Errorf("invalid daily job cron '%s': %w", s.cfg.Scheduler.DailyJobCron, err)
	}

	s.cron.Start()
	s.log.Info("Scheduler started", logger.StringField("daily_job_cron", s.cfg.Scheduler.DailyJobCron))
	return nil
}

func (s *schedulerService) Stop() {
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.log.Info("Scheduler stopped")
}

func (s *schedulerService) runDailyJob(ctx context.Context) {
	s.log.InfoContext(ctx, "Daily job started")

	syncResult, err := s.syncService.SyncWatchlist(ctx)
	if err != nil {
		s.notifyf("Daily sync failed: %v", err)
		return
	}

	intradayResult, err := s.syncService.SyncIntraday(ctx, s.cfg.MarketData.Watchlist)
	if err != nil {
		s.notifyf("Intraday sync failed: %v", err)
		return
	}

	message := fmt.Sprintf("Daily sync done: %d/%d symbols, %d daily + %d intraday bars",
		syncResult.SymbolsSynced, syncResult.SymbolsRequested,
		syncResult.BarsUpserted, intradayResult.BarsUpserted)

	if path := s.cfg.Scheduler.TradeCSVPath; path != "" {
		report, err := s.reviewService.RunReview(ctx, dto.ReviewRequest{CSVPath: path})
		if err != nil {
			s.notifyf("%s. Trade review failed: %v", message, err)
			return
		}
		message = fmt.Sprintf("%s. Trade review: %d trades, %d new records, %d improvable",
			message, report.TotalTrades, report.NewRecords,
			report.StatusCounts[dto.StatusImprovable])
	}

	s.notifyf("%s", message)
	s.log.InfoContext(ctx, "Daily job finished")
}

func (s *schedulerService) notifyf(format string, args ...interface{}) {
	if err := s.notifier.Send(fmt.Sprintf(format, args...)); err != nil {
		s.log.Error("Failed to send notification", logger.ErrorField(err))
	}
}
