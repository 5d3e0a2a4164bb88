package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"SwingScreener/internal/collector"
	"SwingScreener/internal/strategy"
)

// Config holds all application configuration.
type Config struct {
	Strategy strategy.Params `yaml:"strategy"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	DataSource struct {
		Provider        string `yaml:"provider"` // "yahoo" or "alpaca"
		AlpacaAPIKey    string `yaml:"alpaca_api_key"`
		AlpacaAPISecret string `yaml:"alpaca_api_secret"`
		HistoryDays     int    `yaml:"history_days"`
	} `yaml:"data_source"`
	Cache struct {
		Driver        string `yaml:"driver"` // "sqlite", "redis" or "none"
		SQLitePath    string `yaml:"sqlite_path"`
		RedisAddr     string `yaml:"redis_addr"`
		RedisPassword string `yaml:"redis_password"`
		RedisDB       int    `yaml:"redis_db"`
		KeepDays      int    `yaml:"keep_days"`
	} `yaml:"cache"`
	Scan struct {
		Market    string `yaml:"market"`
		MaxStocks int    `yaml:"max_stocks"`
		Workers   int    `yaml:"workers"`
		DataDir   string `yaml:"data_dir"`
	} `yaml:"scan"`
	Schedule struct {
		ScanCron string   `yaml:"scan_cron"`
		Markets  []string `yaml:"markets"`
		TopN     int      `yaml:"top_n"`
	} `yaml:"schedule"`
	Web struct {
		Addr string `yaml:"addr"`
	} `yaml:"web"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; strategy thresholds start from their defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{Strategy: strategy.DefaultParams()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.DataSource.AlpacaAPIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.DataSource.AlpacaAPISecret = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CACHE_DRIVER"); v != "" {
		cfg.Cache.Driver = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Cache.SQLitePath = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("SCAN_MARKET"); v != "" {
		cfg.Scan.Market = v
	}
	if v := os.Getenv("SCAN_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Scan.Workers = n
		}
	}
	if v := os.Getenv("CRON_SCAN"); v != "" {
		cfg.Schedule.ScanCron = v
	}
	if v := os.Getenv("SCHEDULE_MARKETS"); v != "" {
		cfg.Schedule.Markets = splitList(v)
	}
	if v := os.Getenv("WEB_ADDR"); v != "" {
		cfg.Web.Addr = v
	}
	if v := os.Getenv("MIN_PRICE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategy.MinPrice = f
		}
	}
	if v := os.Getenv("MIN_AVG_VOLUME"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Strategy.MinAvgVolume = f
		}
	}

	// Defaults
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = "yahoo"
	}
	if cfg.DataSource.HistoryDays == 0 {
		cfg.DataSource.HistoryDays = 365
	}
	if cfg.Cache.Driver == "" {
		cfg.Cache.Driver = "sqlite"
	}
	if cfg.Cache.SQLitePath == "" {
		cfg.Cache.SQLitePath = "data/cache.db"
	}
	if cfg.Cache.RedisAddr == "" {
		cfg.Cache.RedisAddr = "localhost:6379"
	}
	if cfg.Cache.KeepDays == 0 {
		cfg.Cache.KeepDays = 3
	}
	if cfg.Scan.Market == "" {
		cfg.Scan.Market = "nifty_500"
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 8
	}
	if cfg.Scan.DataDir == "" {
		cfg.Scan.DataDir = "data"
	}
	if cfg.Schedule.ScanCron == "" {
		cfg.Schedule.ScanCron = "0 30 16 * * 1-5"
	}
	if len(cfg.Schedule.Markets) == 0 {
		cfg.Schedule.Markets = []string{cfg.Scan.Market}
	}
	if cfg.Schedule.TopN == 0 {
		cfg.Schedule.TopN = 10
	}
	if cfg.Web.Addr == "" {
		cfg.Web.Addr = ":8000"
	}

	return cfg, nil
}

// Validate checks that all required fields are set and consistent.
func (c *Config) Validate() error {
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	switch c.DataSource.Provider {
	case "yahoo":
	case "alpaca":
		if c.DataSource.AlpacaAPIKey == "" || c.DataSource.AlpacaAPISecret == "" {
			return fmt.Errorf("data_source.alpaca_api_key and alpaca_api_secret are required for alpaca")
		}
		for _, m := range append([]string{c.Scan.Market}, c.Schedule.Markets...) {
			if collector.KnownMarket(m) && !collector.IsUSMarket(m) {
				return fmt.Errorf("data_source.provider alpaca serves US markets only, got %q", m)
			}
		}
	default:
		return fmt.Errorf("data_source.provider must be yahoo or alpaca, got %q", c.DataSource.Provider)
	}
	switch c.Cache.Driver {
	case "sqlite", "redis", "none":
	default:
		return fmt.Errorf("cache.driver must be sqlite, redis or none, got %q", c.Cache.Driver)
	}
	if c.DataSource.HistoryDays <= 0 {
		return fmt.Errorf("data_source.history_days must be positive")
	}
	if c.Scan.Workers <= 0 {
		return fmt.Errorf("scan.workers must be positive")
	}
	if c.Scan.MaxStocks < 0 {
		return fmt.Errorf("scan.max_stocks must not be negative")
	}
	return nil
}

// ValidateNotifier checks the Telegram settings needed by the scheduled mode.
func (c *Config) ValidateNotifier() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
