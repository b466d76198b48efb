package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"equity-lab/internal/dto"
	"equity-lab/internal/repository"
	"equity-lab/internal/service"

	"github.com/spf13/cobra"
)

var reviewCSVPath string

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Reconcile a trade CSV against the intraday bars that followed each fill",
	Run:   RunReview,
}

func init() {
	reviewCmd.Flags().StringVar(&reviewCSVPath, "csv", "", "path to the broker trade export")
	_ = reviewCmd.MarkFlagRequired("csv")
}

func RunReview(cmd *cobra.Command, args []string) {
	appDep, err := NewAppDependency(context.Background())
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}
	defer appDep.Close()

	ctx, cancel := context.WithTimeout(context.Background(), appDep.cfg.Review.BatchTimeout)
	defer cancel()

	repo, err := repository.NewRepository(appDep.cfg, appDep.cache, appDep.db.DB, appDep.log)
	if err != nil {
		log.Fatalf("Failed to create repository: %v", err)
	}

	services, err := service.NewService(appDep.cfg, appDep.log, repo, appDep.notifier)
	if err != nil {
		log.Fatalf("Failed to create services: %v", err)
	}

	report, err := services.ReviewService.RunReview(ctx, dto.ReviewRequest{CSVPath: reviewCSVPath})
	if err != nil {
		log.Fatalf("Trade review failed: %v", err)
	}

	out, _ := json.MarshalIndent(report, "", "  ")
	fmt.Println(string(out))
}
