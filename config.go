package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"nba-breakout/labels"
	"nba-breakout/season"
)

type Config struct {
	Seasons struct {
		StartYear int `yaml:"start_year" validate:"gte=1946"`
		// EndYear is exclusive; 0 means the current calendar year.
		EndYear int `yaml:"end_year" validate:"omitempty,gtfield=StartYear"`
	} `yaml:"seasons"`

	MinMinutes float64 `yaml:"min_minutes" validate:"gte=0"`

	Provider struct {
		BaseURL         string        `yaml:"base_url" validate:"omitempty,url"`
		UserAgent       string        `yaml:"user_agent"`
		Timeout         time.Duration `yaml:"timeout" validate:"gt=0"`
		RequestInterval time.Duration `yaml:"request_interval" validate:"gte=0"`
		SeasonPause     time.Duration `yaml:"season_pause" validate:"gte=0"`
		CacheTTL        time.Duration `yaml:"cache_ttl" validate:"gte=0"`
	} `yaml:"provider"`

	Retry struct {
		Attempts  int           `yaml:"attempts" validate:"gte=1,lte=20"`
		BaseDelay time.Duration `yaml:"base_delay" validate:"gte=0"`
	} `yaml:"retry"`

	Breakout struct {
		// Metric must be one of season.LagMetrics so it has a _PREV column.
		Metric    string  `yaml:"metric" validate:"required,lagmetric"`
		Threshold float64 `yaml:"threshold"`
		MetricMin float64 `yaml:"metric_min"`
		MetricMax float64 `yaml:"metric_max" validate:"gtfield=MetricMin"`
	} `yaml:"breakout"`

	Paths struct {
		DataDir         string `yaml:"data_dir"`
		Output          string `yaml:"output" validate:"required"`
		Progress        string `yaml:"progress" validate:"required"`
		Log             string `yaml:"log"`
		Database        string `yaml:"database"`
		Report          string `yaml:"report"`
		MetricsTextfile string `yaml:"metrics_textfile"`
	} `yaml:"paths"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

func DefaultConfig() Config {
	var c Config
	c.Seasons.StartYear = 1996
	c.MinMinutes = 500

	c.Provider.BaseURL = NBA_STATS_BASE
	c.Provider.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	c.Provider.Timeout = 60 * time.Second
	c.Provider.RequestInterval = 600 * time.Millisecond
	c.Provider.SeasonPause = time.Second
	c.Provider.CacheTTL = 7 * 24 * time.Hour

	c.Retry.Attempts = 3
	c.Retry.BaseDelay = 5 * time.Second

	c.Breakout.Metric = season.PrimaryMetric
	c.Breakout.Threshold = labels.DefaultThreshold
	c.Breakout.MetricMin = -100
	c.Breakout.MetricMax = 100

	c.Paths.DataDir = "data/raw"
	c.Paths.Output = "player_seasons_with_breakouts.csv"
	c.Paths.Progress = "player_seasons_progress.csv"
	c.Paths.Log = "collection.log"
	c.Paths.Database = "breakout.db"
	c.Paths.Report = "breakout_report.html"

	c.LogLevel = "info"
	return c
}

// LoadConfig reads path over the defaults. An empty path means defaults only.
// BREAKOUT_DATA_DIR, when set, replaces paths.data_dir.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to read the config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	if dir := os.Getenv("BREAKOUT_DATA_DIR"); dir != "" {
		cfg.Paths.DataDir = dir
	}
	if err := newConfigValidator().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newConfigValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("lagmetric", func(fl validator.FieldLevel) bool {
		return slices.Contains(season.LagMetrics, fl.Field().String())
	})
	return v
}

// Path resolves a configured file name against the data dir. Absolute names
// and empty (disabled) names are returned unchanged.
func (c Config) Path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.DataDir, name)
}

// SeasonList expands the configured year range.
func (c Config) SeasonList(now time.Time) []string {
	end := c.Seasons.EndYear
	if end == 0 {
		end = now.Year()
	}
	return season.Seasons(c.Seasons.StartYear, end)
}
