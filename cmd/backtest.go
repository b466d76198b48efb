package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"equity-lab/internal/dto"
	"equity-lab/internal/repository"
	"equity-lab/internal/service"
	"equity-lab/internal/strategy"

	"github.com/spf13/cobra"
)

var (
	backtestSymbols  []string
	backtestStrategy string
	backtestSizing   string
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a portfolio backtest over the stored watchlist data",
	Run:   RunBacktest,
}

func init() {
	backtestCmd.Flags().StringSliceVar(&backtestSymbols, "symbols", nil, "symbols to simulate (default: the configured watchlist)")
	backtestCmd.Flags().StringVar(&backtestStrategy, "strategy", strategy.NameTrendRSI, "entry strategy")
	backtestCmd.Flags().StringVar(&backtestSizing, "sizing", string(dto.SizingRiskBased), "position sizing mode (risk|fixed)")
}

func RunBacktest(cmd *cobra.Command, args []string) {
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

	symbols := backtestSymbols
	if len(symbols) == 0 {
		symbols = appDep.cfg.MarketData.Watchlist
	}

	result, err := services.BacktestService.RunBacktest(ctx, dto.BacktestRequest{
		Symbols:  symbols,
		Strategy: backtestStrategy,
		Sizing:   dto.SizingMode(backtestSizing),
	})
	if err != nil {
		log.Fatalf("Backtest failed: %v", err)
	}

	out, _ := json.MarshalIndent(result.Summary, "", "  ")
	fmt.Println(string(out))
}
