package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log          Logger         `mapstructure:"logger"`
	DB           Database       `mapstructure:"database"`
	API          API            `mapstructure:"api"`
	YahooFinance YahooFinance   `mapstructure:"yahoo_finance"`
	Cache        Cache          `mapstructure:"cache"`
	Backtest     Backtest       `mapstructure:"backtest"`
	Scheduler    Scheduler      `mapstructure:"scheduler"`
	Telegram     TelegramConfig `mapstructure:"telegram"`
	Metrics      Metrics        `mapstructure:"metrics"`
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
	MigrationsPath  string `mapstructure:"migrations_path"`
}

type API struct {
	Port                int           `mapstructure:"port"`
	RateLimitPerSecond  float64       `mapstructure:"rate_limit_per_second"`
	RateLimitBurst      int           `mapstructure:"rate_limit_burst"`
	RateLimitExpiration time.Duration `mapstructure:"rate_limit_expiration"`
}

type YahooFinance struct {
	BaseURL             string        `mapstructure:"base_url"`
	Timeout             time.Duration `mapstructure:"timeout"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	RetryCount          int           `mapstructure:"retry_count"`
	RetryWait           time.Duration `mapstructure:"retry_wait"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// Backtest holds the defaults applied to requests that leave a parameter unset.
type Backtest struct {
	ShortWindow     int           `mapstructure:"short_window"`
	LongWindow      int           `mapstructure:"long_window"`
	CostRate        float64       `mapstructure:"cost_rate"`
	UseRSIFilter    bool          `mapstructure:"use_rsi_filter"`
	RSIWindow       int           `mapstructure:"rsi_window"`
	RSICeiling      float64       `mapstructure:"rsi_ceiling"`
	InitialCapital  float64       `mapstructure:"initial_capital"`
	DefaultRange    string        `mapstructure:"default_range"`
	DefaultExchange string        `mapstructure:"default_exchange"`
	PriceCacheTTL   time.Duration `mapstructure:"price_cache_ttl"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	MaxBatchSymbols int           `mapstructure:"max_batch_symbols"`
	PersistRuns     bool          `mapstructure:"persist_runs"`
}

// Scheduler.TickSpec is the cron spec of the in-process trigger that looks for
// due jobs. An empty spec leaves triggering to POST /api/v1/jobs/run.
type Scheduler struct {
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	TimeoutDuration time.Duration `mapstructure:"timeout_duration"`
	TickSpec        string        `mapstructure:"tick_spec"`
}

type TelegramConfig struct {
	Enabled                  bool          `mapstructure:"enabled"`
	BotToken                 string        `mapstructure:"bot_token"`
	ChatID                   int64         `mapstructure:"chat_id"`
	WebhookURL               string        `mapstructure:"webhook_url"`
	TimeoutDuration          time.Duration `mapstructure:"timeout_duration"`
	MaxUserRequestPerSecond  float64       `mapstructure:"max_user_request_per_second"`
	UserRequestBurst         int           `mapstructure:"user_request_burst"`
	RatelimitExpireDuration  time.Duration `mapstructure:"ratelimit_expire_duration"`
	RateLimitCleanupDuration time.Duration `mapstructure:"rate_limit_cleanup_duration"`
	MaxCompareSymbols        int           `mapstructure:"max_compare_symbols"`
}

type Metrics struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.migrations_path", "file://migrations")

	v.SetDefault("api.port", 8080)
	v.SetDefault("api.rate_limit_per_second", 10)
	v.SetDefault("api.rate_limit_burst", 30)
	v.SetDefault("api.rate_limit_expiration", 3*time.Minute)

	v.SetDefault("yahoo_finance.base_url", "https://query1.finance.yahoo.com/v8/finance/chart")
	v.SetDefault("yahoo_finance.timeout", 15*time.Second)
	v.SetDefault("yahoo_finance.max_request_per_minute", 60)
	v.SetDefault("yahoo_finance.retry_count", 2)
	v.SetDefault("yahoo_finance.retry_wait", 500*time.Millisecond)

	v.SetDefault("cache.default_expiration", time.Hour)
	v.SetDefault("cache.cleanup_interval", 10*time.Minute)

	v.SetDefault("backtest.short_window", 5)
	v.SetDefault("backtest.long_window", 20)
	v.SetDefault("backtest.cost_rate", 0.002)
	v.SetDefault("backtest.use_rsi_filter", true)
	v.SetDefault("backtest.rsi_window", 14)
	v.SetDefault("backtest.rsi_ceiling", 70)
	v.SetDefault("backtest.initial_capital", 1_000_000)
	v.SetDefault("backtest.default_range", "1y")
	v.SetDefault("backtest.default_exchange", "NASDAQ")
	v.SetDefault("backtest.price_cache_ttl", time.Hour)
	v.SetDefault("backtest.max_concurrency", 4)
	v.SetDefault("backtest.max_batch_symbols", 20)
	v.SetDefault("backtest.persist_runs", true)

	v.SetDefault("scheduler.max_concurrency", 2)
	v.SetDefault("scheduler.timeout_duration", 10*time.Minute)
	v.SetDefault("scheduler.tick_spec", "@every 1m")

	v.SetDefault("telegram.timeout_duration", 2*time.Minute)
	v.SetDefault("telegram.max_user_request_per_second", 0.5)
	v.SetDefault("telegram.user_request_burst", 3)
	v.SetDefault("telegram.ratelimit_expire_duration", 30*time.Minute)
	v.SetDefault("telegram.rate_limit_cleanup_duration", 10*time.Minute)
	v.SetDefault("telegram.max_compare_symbols", 5)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "stock_backtest")
}

// Load reads config.yaml from path (or the working directory when empty),
// after loading a .env file if one exists. Environment variables override
// file values, with "." in keys replaced by "_".
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	return &cfg, nil
}
