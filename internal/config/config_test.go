package config

import (
	"os"
	"path/filepath"
	"testing"

	"TrancheTrack/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "POLYGON_API_KEY", "PRICE_PROVIDER",
		"PRICE_RATE_LIMIT", "SURREAL_ADDRESS", "SURREAL_PASSWORD", "SQLITE_PATH",
		"HTTPS_PROXY", "LOG_LEVEL", "CRON_REFRESH", "RUN_ON_START", "CONFIG_PATH",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "SPY", cfg.Benchmark)
	assert.Equal(t, "polygon", cfg.PriceSource.Provider)
	assert.Equal(t, PrimaryNone, cfg.Storage.Primary)
	assert.Equal(t, "data/local", cfg.Storage.LocalDir)
	assert.Equal(t, "first-seen", cfg.Dashboard.Sort)
	assert.Equal(t, "MRK", cfg.Dashboard.Pin)
	assert.Len(t, cfg.Thresholds.Defaults, 4)
	assert.Equal(t, model.DefaultThreshold, cfg.Thresholds.Defaults["GLD"])
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
benchmark: qqq
price_source:
  provider: yahoo
storage:
  sqlite_path: /tmp/from-file.db
thresholds:
  defaults:
    tlt: {add_pct: -0.1, trim_pct: 0.25}
schedule:
  refresh_cron: "0 0 17 * * 1-5"
`)
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("POLYGON_API_KEY", "key")
	t.Setenv("CRON_REFRESH", "0 */5 * * * *")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "QQQ", cfg.Benchmark)
	assert.Equal(t, "yahoo", cfg.PriceSource.Provider)
	assert.Equal(t, "key", cfg.PriceSource.APIKey)
	assert.Equal(t, "tok", cfg.Telegram.BotToken)
	assert.Equal(t, "0 */5 * * * *", cfg.Schedule.RefreshCron)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, PrimarySQLite, cfg.Storage.Primary, "sqlite path implies sqlite primary")
	assert.Equal(t, map[string]model.AlertThreshold{"TLT": {AddPct: -0.1, TrimPct: 0.25}}, cfg.Thresholds.Defaults)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_BadYAML(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, "benchmark: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults with key", func(c *Config) { c.PriceSource.APIKey = "k" }, true},
		{"polygon without key", func(c *Config) {}, false},
		{"yahoo without key", func(c *Config) { c.PriceSource.Provider = "yahoo" }, true},
		{"unknown provider", func(c *Config) { c.PriceSource.Provider = "bloomberg"; c.PriceSource.APIKey = "k" }, false},
		{"positive add pct", func(c *Config) {
			c.PriceSource.APIKey = "k"
			c.Thresholds.Defaults["GLD"] = model.AlertThreshold{AddPct: 0.1, TrimPct: 0.4}
		}, false},
		{"surreal without address", func(c *Config) {
			c.PriceSource.APIKey = "k"
			c.Storage.Primary = PrimarySurreal
		}, false},
		{"bad sort", func(c *Config) { c.PriceSource.APIKey = "k"; c.Dashboard.Sort = "random" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			if tt.ok {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestValidateBot_RequiresTelegram(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	cfg.PriceSource.Provider = "mock"
	assert.NoError(t, cfg.Validate())
	assert.Error(t, cfg.ValidateBot())

	cfg.Telegram.BotToken, cfg.Telegram.ChatID = "t", "1"
	assert.NoError(t, cfg.ValidateBot())
}

func TestPath(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	assert.Equal(t, DefaultPath, Path())
	t.Setenv("CONFIG_PATH", "/etc/tranche.yaml")
	assert.Equal(t, "/etc/tranche.yaml", Path())
}
