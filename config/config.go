package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log        Logger         `mapstructure:"logger"`
	DB         Database       `mapstructure:"database"`
	API        API            `mapstructure:"api"`
	MarketData MarketData     `mapstructure:"market_data"`
	Backtest   Backtest       `mapstructure:"backtest"`
	Review     Review         `mapstructure:"review"`
	Scheduler  Scheduler      `mapstructure:"scheduler"`
	Cache      Cache          `mapstructure:"cache"`
	Telegram   TelegramConfig `mapstructure:"telegram"`
	Gemini     GeminiConfig   `mapstructure:"gemini"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port int `mapstructure:"port"`
}

type MarketData struct {
	BaseURL          string        `mapstructure:"base_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	MaxRequestPerMin int           `mapstructure:"max_request_per_min"`
	Watchlist        []string      `mapstructure:"watchlist"`
	BenchmarkSymbol  string        `mapstructure:"benchmark_symbol"`
	SyncConcurrency  int           `mapstructure:"sync_concurrency"`
	DailyRange       string        `mapstructure:"daily_range"`
	IntradayRange    string        `mapstructure:"intraday_range"`
}

// Backtest holds the simulator risk parameters. The breakeven thresholds are
// kept configurable, the useful values depend on the watchlist volatility.
type Backtest struct {
	InitialCapital      float64 `mapstructure:"initial_capital"`
	StopLossFraction    float64 `mapstructure:"stop_loss_fraction"`
	TakeProfitFraction  float64 `mapstructure:"take_profit_fraction"`
	MaxHoldPeriods      int     `mapstructure:"max_hold_periods"`
	RiskPerTrade        float64 `mapstructure:"risk_per_trade"`
	StopATRMultiplier   float64 `mapstructure:"stop_atr_multiplier"`
	ATRFallbackFraction float64 `mapstructure:"atr_fallback_fraction"`
	MaxPositionFraction float64 `mapstructure:"max_position_fraction"`
	MinOrderValue       float64 `mapstructure:"min_order_value"`
	BreakevenTrigger    float64 `mapstructure:"breakeven_trigger"`
	BreakevenBand       float64 `mapstructure:"breakeven_band"`
	RiskFreeRate        float64 `mapstructure:"risk_free_rate"`
}

type Review struct {
	SourceTimeZone   string        `mapstructure:"source_time_zone"`
	MarketTimeZone   string        `mapstructure:"market_time_zone"`
	CutoffDays       int           `mapstructure:"cutoff_days"`
	BadTickThreshold float64       `mapstructure:"bad_tick_threshold"`
	MaxConcurrency   int           `mapstructure:"max_concurrency"`
	BatchTimeout     time.Duration `mapstructure:"batch_timeout"`
}

type Scheduler struct {
	Enabled      bool   `mapstructure:"enabled"`
	DailyJobCron string `mapstructure:"daily_job_cron"`
	TradeCSVPath string `mapstructure:"trade_csv_path"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type GeminiConfig struct {
	Enabled             bool   `mapstructure:"enabled"`
	APIKey              string `mapstructure:"api_key"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

func Load() (*Config, error) {
	// .env is optional, real environment variables win either way.
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.DB.Host == "" || cfg.DB.DBName == "" {
		return nil, fmt.Errorf("database host and name are required")
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")

	viper.SetDefault("api.port", 8080)

	viper.SetDefault("market_data.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	viper.SetDefault("market_data.timeout", 15*time.Second)
	viper.SetDefault("market_data.max_request_per_min", 60)
	viper.SetDefault("market_data.benchmark_symbol", "SPY")
	viper.SetDefault("market_data.sync_concurrency", 4)
	viper.SetDefault("market_data.daily_range", "2y")
	viper.SetDefault("market_data.intraday_range", "7d")

	viper.SetDefault("backtest.initial_capital", 100000.0)
	viper.SetDefault("backtest.stop_loss_fraction", 0.05)
	viper.SetDefault("backtest.take_profit_fraction", 0.10)
	viper.SetDefault("backtest.max_hold_periods", 10)
	viper.SetDefault("backtest.risk_per_trade", 0.015)
	viper.SetDefault("backtest.stop_atr_multiplier", 2.5)
	viper.SetDefault("backtest.atr_fallback_fraction", 0.02)
	viper.SetDefault("backtest.max_position_fraction", 0.25)
	viper.SetDefault("backtest.min_order_value", 500.0)
	viper.SetDefault("backtest.breakeven_trigger", 0.05)
	viper.SetDefault("backtest.breakeven_band", 0.005)
	viper.SetDefault("backtest.risk_free_rate", 0.04)

	viper.SetDefault("review.source_time_zone", "Asia/Shanghai")
	viper.SetDefault("review.market_time_zone", "America/New_York")
	viper.SetDefault("review.cutoff_days", 7)
	viper.SetDefault("review.bad_tick_threshold", 0.20)
	viper.SetDefault("review.max_concurrency", 1)
	viper.SetDefault("review.batch_timeout", 5*time.Minute)

	viper.SetDefault("scheduler.enabled", false)
	viper.SetDefault("scheduler.daily_job_cron", "30 17 * * 1-5")

	viper.SetDefault("cache.default_expiration", 10*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 15*time.Minute)

	viper.SetDefault("telegram.enabled", false)
	viper.SetDefault("telegram.timeout", 10*time.Second)

	viper.SetDefault("gemini.enabled", false)
	viper.SetDefault("gemini.model", "gemini-2.0-flash")
	viper.SetDefault("gemini.max_request_per_minute", 10)
}
