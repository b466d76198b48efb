package cmd

import (
	"context"
	"log"

	"equity-lab/internal/repository"
	"equity-lab/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch daily and intraday bars for the watchlist into the series store",
	Run:   RunSync,
}

func RunSync(cmd *cobra.Command, args []string) {
	ctx := context.Background()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	repo, err := repository.NewRepository(appDep.cfg, appDep.cache, appDep.db.DB, appDep.log)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}

	services, err := service.NewService(appDep.cfg, appDep.log, repo, appDep.notifier)
	if err != nil {
		log.Fatalf("Failed to create services: %v", err)
	}

	daily, err := services.SyncService.SyncWatchlist(ctx)
	if err != nil {
		log.Fatalf("Daily sync failed: %v", err)
	}

	intraday, err := services.SyncService.SyncIntraday(ctx, appDep.cfg.MarketData.Watchlist)
	if err != nil {
		log.Fatalf("Intraday sync failed: %v", err)
	}

	appDep.log.Info("Sync finished",
		zap.Int("daily_bars", daily.BarsUpserted),
		zap.Int("intraday_bars", intraday.BarsUpserted),
		zap.Strings("failed", append(daily.Failed, intraday.Failed...)),
	)
}
