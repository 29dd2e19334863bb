package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "breakout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 1996, cfg.Seasons.StartYear)
	assert.Equal(t, 500.0, cfg.MinMinutes)
	assert.Equal(t, 3, cfg.Retry.Attempts)
	assert.Equal(t, 5*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 600*time.Millisecond, cfg.Provider.RequestInterval)
	assert.Equal(t, "E_NET_RATING", cfg.Breakout.Metric)
	assert.Equal(t, 5.0, cfg.Breakout.Threshold)
	assert.Equal(t, filepath.Join("data", "raw", "player_seasons_with_breakouts.csv"), cfg.Path(cfg.Paths.Output))
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
seasons:
  start_year: 2010
  end_year: 2013
min_minutes: 1000
provider:
  request_interval: 250ms
  timeout: 10s
retry:
  attempts: 5
  base_delay: 2s
breakout:
  threshold: 4.5
paths:
  data_dir: /tmp/breakout
  metrics_textfile: /var/lib/node_exporter/breakout.prom
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"2010-11", "2011-12", "2012-13"}, cfg.SeasonList(time.Now()))
	assert.Equal(t, 1000.0, cfg.MinMinutes)
	assert.Equal(t, 250*time.Millisecond, cfg.Provider.RequestInterval)
	assert.Equal(t, 10*time.Second, cfg.Provider.Timeout)
	assert.Equal(t, 5, cfg.Retry.Attempts)
	assert.Equal(t, 2*time.Second, cfg.Retry.BaseDelay)
	assert.Equal(t, 4.5, cfg.Breakout.Threshold)
	assert.Equal(t, "/tmp/breakout/player_seasons_progress.csv", cfg.Path(cfg.Paths.Progress))
	assert.Equal(t, "/var/lib/node_exporter/breakout.prom", cfg.Path(cfg.Paths.MetricsTextfile))
	// untouched keys keep their defaults
	assert.Equal(t, "E_NET_RATING", cfg.Breakout.Metric)
}

func TestLoadConfigDataDirFromEnv(t *testing.T) {
	t.Setenv("BREAKOUT_DATA_DIR", "/mnt/volume")
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/mnt/volume/breakout.db", cfg.Path(cfg.Paths.Database))
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"end before start":   "seasons:\n  start_year: 2010\n  end_year: 2005\n",
		"zero attempts":      "retry:\n  attempts: 0\n",
		"inverted range":     "breakout:\n  metric_min: 10\n  metric_max: -10\n",
		"unknown level":      "log_level: chatty\n",
		"metric with no lag": "breakout:\n  metric: W\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigAcceptsLaggedMetric(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "breakout:\n  metric: E_OFF_RATING\n"))
	require.NoError(t, err)
	assert.Equal(t, "E_OFF_RATING", cfg.Breakout.Metric)
}

func TestSeasonListDefaultsToCurrentYear(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Seasons.StartYear = 2022
	got := cfg.SeasonList(time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, []string{"2022-23", "2023-24", "2024-25"}, got)
}
