package repository

import (
	"context"
	"fmt"
	"time"

	"equity-lab/config"
	"equity-lab/internal/dto"
	"equity-lab/internal/model"
	"equity-lab/pkg/httpclient"
	"equity-lab/pkg/logger"

	"golang.org/x/time/rate"
)

// MarketDataRepository fetches OHLCV bars from the chart provider.
type MarketDataRepository interface {
	FetchBars(ctx context.Context, param dto.GetBarsParam) ([]model.Bar, error)
}

type marketDataRepository struct {
	httpClient     httpclient.HTTPClient
	cfg            *config.Config
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	marketLoc      *time.Location
}

func NewMarketDataRepository(cfg *config.Config, log *logger.Logger) (MarketDataRepository, error) {
	marketLoc, err := time.LoadLocation(cfg.Review.MarketTimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid market time zone '%s': %w", cfg.Review.MarketTimeZone, err)
	}

	secondsPerRequest := time.Minute / time.Duration(cfg.MarketData.MaxRequestPerMin)
	return &marketDataRepository{
		httpClient:     httpclient.New(cfg.MarketData.BaseURL, cfg.MarketData.Timeout, ""),
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		marketLoc:      marketLoc,
	}, nil
}

func (r *marketDataRepository) FetchBars(ctx context.Context, param dto.GetBarsParam) ([]model.Bar, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := "/" + param.Symbol
	queryParams := map[string]string{
		"range":          param.Range,
		"interval":       param.Interval,
		"includePrePost": "false",
		"events":         "div,split",
	}
	headers := map[string]string{
		"User-Agent": "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36",
	}

	var chart dto.YahooChartResponse
	resp, err := r.httpClient.Get(ctx, endpoint, queryParams, headers, &chart)
	if err != nil {
		return nil, fmt.Errorf("chart request for %s failed: %w", param.Symbol, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("chart request for %s returned status %d", param.Symbol, resp.StatusCode)
	}

	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		r.logger.WarnContext(ctx, "Empty chart payload",
			logger.StringField("symbol", param.Symbol),
			logger.StringField("interval", param.Interval),
		)
		return nil, nil
	}

	result := chart.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	timeframe := model.TimeframeDaily
	if param.Interval == "1m" {
		timeframe = model.TimeframeMinute
	}

	bars := make([]model.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Truncated payloads can ship quote arrays shorter than the timestamp
		// list, and not all of them equally short.
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) ||
			i >= len(quote.Close) || i >= len(quote.Volume) {
			break
		}
		// Halted or padded rows come through with zero volume and zeroed
		// prices, drop them the same way the sync always has.
		if quote.Volume[i] == 0 && quote.Close[i] == 0 {
			continue
		}
		bars = append(bars, model.Bar{
			Symbol:    param.Symbol,
			Timeframe: timeframe,
			Timestamp: time.Unix(ts, 0).In(r.marketLoc),
			Open:      quote.Open[i],
			High:      quote.High[i],
			Low:       quote.Low[i],
			Close:     quote.Close[i],
			Volume:    quote.Volume[i],
		})
	}

	return bars, nil
}
