package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logger:
  level: debug
backtest:
  short_window: 10
  long_window: 30
  rsi_ceiling: 65
yahoo_finance:
  timeout: 5s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 10, cfg.Backtest.ShortWindow)
	assert.Equal(t, 30, cfg.Backtest.LongWindow)
	assert.Equal(t, 65.0, cfg.Backtest.RSICeiling)
	assert.Equal(t, 5*time.Second, cfg.YahooFinance.Timeout)

	assert.Equal(t, 0.002, cfg.Backtest.CostRate)
	assert.True(t, cfg.Backtest.UseRSIFilter)
	assert.Equal(t, "1y", cfg.Backtest.DefaultRange)
	assert.Equal(t, time.Hour, cfg.Backtest.PriceCacheTTL)
	assert.Equal(t, 8080, cfg.API.Port)
}

func TestLoad_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  port: 9000\n"), 0o600))
	t.Setenv("API_PORT", "9100")
	t.Setenv("BACKTEST_MAX_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.API.Port)
	assert.Equal(t, 8, cfg.Backtest.MaxConcurrency)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
