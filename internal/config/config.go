package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"TrancheTrack/internal/model"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CONFIG_PATH is not set.
const DefaultPath = "configs/config.yaml"

// Primary backend choices.
const (
	PrimarySurreal = "surreal"
	PrimarySQLite  = "sqlite"
	PrimaryNone    = "none"
)

// Config holds all application configuration.
type Config struct {
	Benchmark string `yaml:"benchmark" validate:"required"`
	LogLevel  string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Proxy     string `yaml:"proxy" validate:"omitempty,url"`

	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`

	PriceSource struct {
		Provider  string `yaml:"provider" validate:"oneof=polygon yahoo mock"`
		APIKey    string `yaml:"api_key" validate:"required_if=Provider polygon"`
		BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
		RateLimit int    `yaml:"rate_limit" validate:"gte=0"`
	} `yaml:"price_source"`

	Storage struct {
		Primary    string `yaml:"primary" validate:"oneof=surreal sqlite none"`
		LocalDir   string `yaml:"local_dir" validate:"required"`
		SQLitePath string `yaml:"sqlite_path"`
		Surreal    struct {
			Address   string `yaml:"address"`
			Username  string `yaml:"username"`
			Password  string `yaml:"password"`
			Namespace string `yaml:"namespace"`
			Database  string `yaml:"database"`
		} `yaml:"surreal"`
	} `yaml:"storage"`

	Thresholds struct {
		File     string                          `yaml:"file" validate:"required"`
		Defaults map[string]model.AlertThreshold `yaml:"defaults" validate:"dive"`
	} `yaml:"thresholds"`

	Schedule struct {
		RefreshCron string `yaml:"refresh_cron" validate:"required"`
		RunOnStart  bool   `yaml:"run_on_start"`
	} `yaml:"schedule"`

	Dashboard struct {
		Sort string `yaml:"sort" validate:"omitempty,oneof=first-seen ticker alpha"`
		Pin  string `yaml:"pin"`
	} `yaml:"dashboard"`

	Recorder struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"recorder"`
}

// Path resolves the config file location from CONFIG_PATH.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file yields a config built from the
// environment alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("POLYGON_API_KEY"); v != "" {
		c.PriceSource.APIKey = v
	}
	if v := os.Getenv("PRICE_PROVIDER"); v != "" {
		c.PriceSource.Provider = strings.ToLower(v)
	}
	if v := os.Getenv("PRICE_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PriceSource.RateLimit = n
		}
	}
	if v := os.Getenv("SURREAL_ADDRESS"); v != "" {
		c.Storage.Surreal.Address = v
	}
	if v := os.Getenv("SURREAL_PASSWORD"); v != "" {
		c.Storage.Surreal.Password = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		c.Schedule.RefreshCron = v
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		c.Schedule.RunOnStart, _ = strconv.ParseBool(v)
	}
}

func (c *Config) applyDefaults() {
	if c.Benchmark == "" {
		c.Benchmark = "SPY"
	}
	c.Benchmark = model.NormalizeTicker(c.Benchmark)
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.PriceSource.Provider == "" {
		c.PriceSource.Provider = "polygon"
	}
	if c.Storage.Primary == "" {
		switch {
		case c.Storage.Surreal.Address != "":
			c.Storage.Primary = PrimarySurreal
		case c.Storage.SQLitePath != "":
			c.Storage.Primary = PrimarySQLite
		default:
			c.Storage.Primary = PrimaryNone
		}
	}
	if c.Storage.LocalDir == "" {
		c.Storage.LocalDir = "data/local"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/tranches.db"
	}
	if c.Storage.Surreal.Namespace == "" {
		c.Storage.Surreal.Namespace = "tranchetrack"
	}
	if c.Storage.Surreal.Database == "" {
		c.Storage.Surreal.Database = "tranches"
	}
	if c.Storage.Surreal.Username == "" {
		c.Storage.Surreal.Username = "root"
	}
	if c.Thresholds.File == "" {
		c.Thresholds.File = "data/thresholds.json"
	}
	if c.Thresholds.Defaults == nil {
		c.Thresholds.Defaults = map[string]model.AlertThreshold{}
		for _, t := range []string{"DIA", "GLD", "SLV", "MRK"} {
			c.Thresholds.Defaults[t] = model.DefaultThreshold
		}
	} else {
		normalized := make(map[string]model.AlertThreshold, len(c.Thresholds.Defaults))
		for t, th := range c.Thresholds.Defaults {
			normalized[model.NormalizeTicker(t)] = th
		}
		c.Thresholds.Defaults = normalized
	}
	if c.Schedule.RefreshCron == "" {
		// weekdays after the close, New York time
		c.Schedule.RefreshCron = "CRON_TZ=America/New_York 0 30 16 * * 1-5"
	}
	if c.Dashboard.Sort == "" {
		c.Dashboard.Sort = "first-seen"
	}
	if c.Dashboard.Pin == "" {
		c.Dashboard.Pin = "MRK"
	}
	if c.Recorder.SQLitePath == "" {
		c.Recorder.SQLitePath = "data/history.db"
	}
}

// Validate checks field constraints. It does not require Telegram settings;
// use ValidateBot for the daemon.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Storage.Primary == PrimarySurreal && c.Storage.Surreal.Address == "" {
		return fmt.Errorf("invalid config: storage.surreal.address is required for the surreal backend")
	}
	return nil
}

// ValidateBot additionally checks the settings the daemon cannot run without.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required")
	}
	return nil
}
