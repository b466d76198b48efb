package repository

import (
	"context"
	"fmt"
	"time"

	"equity-lab/config"
	"equity-lab/internal/dto"
	"equity-lab/pkg/logger"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// AIRepository produces a short natural-language commentary on a finished
// backtest via the Gemini API.
type AIRepository interface {
	CommentOnBacktest(ctx context.Context, summary dto.BacktestSummary) (string, error)
}

type geminiAIRepository struct {
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

type noopAIRepository struct{}

func (noopAIRepository) CommentOnBacktest(context.Context, dto.BacktestSummary) (string, error) {
	return "", nil
}

// NewGeminiAIRepository creates the Gemini-backed repository, or a no-op one
// when the feature is disabled.
func NewGeminiAIRepository(cfg *config.Config, log *logger.Logger) (AIRepository, error) {
	if !cfg.Gemini.Enabled {
		return noopAIRepository{}, nil
	}

	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.Gemini.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	secondsPerRequest := time.Minute / time.Duration(cfg.Gemini.MaxRequestPerMinute)
	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		genAiClient:    genAiClient,
	}, nil
}

func (r *geminiAIRepository) CommentOnBacktest(ctx context.Context, summary dto.BacktestSummary) (string, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(
		"You are reviewing a rule-based equity strategy backtest. "+
			"Total return %.2f%% vs benchmark %.2f%%, max drawdown %.2f%%, "+
			"sharpe %.2f, win rate %.2f%% over %d closed trades, profit factor %.2f. "+
			"In at most 5 sentences, assess the risk profile and name the weakest metric.",
		summary.TotalReturn*100, summary.BenchmarkReturn*100, summary.MaxDrawdown*100,
		summary.SharpeRatio, summary.WinRate*100, summary.ClosedTrades, summary.ProfitFactor,
	)

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.Model, genai.Text(prompt), nil)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to generate backtest commentary", logger.ErrorField(err))
		return "", fmt.Errorf("failed to generate backtest commentary: %w", err)
	}

	return resp.Text(), nil
}
