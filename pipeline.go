package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"nba-breakout/collector"
	"nba-breakout/features"
	"nba-breakout/labels"
	"nba-breakout/logging"
	"nba-breakout/metrics"
	"nba-breakout/season"
	"nba-breakout/templates"
)

// app holds what every command shares for one invocation.
type app struct {
	cfg     Config
	log     *logging.Logger
	metrics *metrics.Metrics
	runID   string
	out     io.Writer

	store *store
}

func newApp(cfg Config, verbose bool, out io.Writer) (*app, error) {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	log, err := logging.New(level, cfg.Path(cfg.Paths.Log))
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:     cfg,
		log:     log,
		metrics: metrics.New(),
		runID:   uuid.NewString(),
		out:     out,
	}, nil
}

// close flushes the metrics textfile and releases the store.
func (a *app) close() error {
	var firstErr error
	if path := a.cfg.Path(a.cfg.Paths.MetricsTextfile); path != "" {
		if err := a.metrics.WriteTextfile(path); err != nil {
			a.log.Warn("failed to write metrics textfile", "path", path, "error", err)
			firstErr = err
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.log.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// openStore opens the sqlite store once. An empty database path disables it.
func (a *app) openStore() (*store, error) {
	if a.store != nil {
		return a.store, nil
	}
	path := a.cfg.Path(a.cfg.Paths.Database)
	if path == "" {
		return nil, nil
	}
	s, err := openStore(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	a.store = s
	return s, nil
}

func (a *app) collect(ctx context.Context) (*collector.Result, error) {
	p := a.cfg.Provider
	var provider collector.Provider = newStatsClient(p.BaseURL, p.Timeout, p.UserAgent)
	opts := []collector.Option{
		collector.WithLogger(a.log),
		collector.WithMetrics(a.metrics),
		collector.WithRunID(a.runID),
	}

	st, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if st != nil {
		provider = &cachingProvider{next: provider, store: st, ttl: p.CacheTTL, log: a.log, metrics: a.metrics}
		opts = append(opts, collector.WithRunLog(st))
	}

	c := collector.New(provider, collector.Config{
		Seasons:         a.cfg.SeasonList(time.Now()),
		MinMinutes:      a.cfg.MinMinutes,
		Metric:          a.cfg.Breakout.Metric,
		MetricMin:       a.cfg.Breakout.MetricMin,
		MetricMax:       a.cfg.Breakout.MetricMax,
		Attempts:        a.cfg.Retry.Attempts,
		BaseDelay:       a.cfg.Retry.BaseDelay,
		RequestInterval: p.RequestInterval,
		SeasonPause:     p.SeasonPause,
		ProgressPath:    a.cfg.Path(a.cfg.Paths.Progress),
	}, opts...)
	return c.Run(ctx)
}

// derive adds features and labels to recs and writes the output table.
func (a *app) derive(recs []*season.Record) (labels.Stats, error) {
	if err := features.Derive(recs, season.LagMetrics); err != nil {
		return labels.Stats{}, fmt.Errorf("deriving features: %w", err)
	}
	st := labels.Assign(recs, a.cfg.Breakout.Metric, a.cfg.Breakout.Threshold)
	a.metrics.Rows.Set(float64(st.Total))
	a.metrics.Breakouts.Set(float64(st.Breakouts))

	out := a.cfg.Path(a.cfg.Paths.Output)
	if err := season.WriteFile(out, recs); err != nil {
		return st, err
	}
	a.log.Info("dataset written", "path", out, "rows", st.Total, "eligible", st.Eligible,
		"breakouts", st.Breakouts, "rate_pct", st.Rate,
		"min_magnitude", st.MinMagnitude, "max_magnitude", st.MaxMagnitude,
		"mean_magnitude", st.MeanMagnitude, "median_magnitude", st.MedianMagnitude)
	return st, nil
}

func (a *app) build(ctx context.Context) error {
	res, err := a.collect(ctx)
	if err != nil {
		return err
	}
	for _, f := range res.Failed {
		a.log.Warn("season missing from dataset", "season", f.Season, "error", f.Err)
	}
	if _, err := a.derive(res.Records); err != nil {
		return err
	}

	sum := summarize(res.Records, a.cfg.Breakout.Metric)
	renderSummary(a.out, sum)
	return a.writeReport(ctx, sum)
}

// loadTable reads a CSV produced by an earlier command.
func (a *app) loadTable(path string) ([]*season.Record, error) {
	recs, err := season.ReadFile(path)
	if err != nil {
		return nil, err
	}
	a.log.Debug("table loaded", "path", path, "rows", len(recs))
	return recs, nil
}

// writeReport renders the HTML report. An empty report path disables it.
func (a *app) writeReport(ctx context.Context, sum DatasetSummary) error {
	path := a.cfg.Path(a.cfg.Paths.Report)
	if path == "" {
		return nil
	}

	page := reportPage(sum, a.cfg.Breakout.Threshold, a.runID)
	st, err := a.openStore()
	if err != nil {
		return err
	}
	if st != nil {
		runs, err := st.latestRuns(ctx)
		if err != nil {
			a.log.Warn("failed to load collection history", "error", err)
		}
		for _, r := range runs {
			page.Runs = append(page.Runs, templates.RunRow{
				Season:     r.Season,
				Status:     r.Status,
				Rows:       r.Rows,
				Attempts:   r.Attempts,
				Error:      r.Error,
				FinishedAt: r.FinishedAt,
			})
		}
	}

	var buf bytes.Buffer
	if err := templates.Report(page).Render(ctx, &buf); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	a.log.Info("report written", "path", path)
	return nil
}

func reportPage(sum DatasetSummary, threshold float64, runID string) templates.ReportPageData {
	page := templates.ReportPageData{
		GeneratedAt:  time.Now(),
		RunID:        runID,
		Rows:         sum.Rows,
		Players:      sum.Players,
		FirstSeason:  sum.FirstSeason,
		LastSeason:   sum.LastSeason,
		Eligible:     sum.Eligible,
		Breakouts:    sum.Breakouts,
		BreakoutRate: sum.BreakoutRate,
		Threshold:    threshold,
		GainMin:      sum.GainMin,
		GainMax:      sum.GainMax,
		GainMean:     sum.GainMean,
		GainMedian:   sum.GainMedian,
		Metric:       sum.Metric,
		MetricMin:    sum.MetricMin,
		MetricMax:    sum.MetricMax,
		MetricMean:   sum.MetricMean,
		MetricMedian: sum.MetricMedian,
	}
	for _, s := range sum.PerSeason {
		page.Seasons = append(page.Seasons, templates.SeasonRow{
			Season:    s.Season,
			Rows:      s.Rows,
			Eligible:  s.Eligible,
			Breakouts: s.Breakouts,
			Rate:      s.Rate,
			Share:     s.Share,
		})
	}
	for _, m := range sum.Missing {
		page.Missing = append(page.Missing, templates.MissingRow{Column: m.Column, Percent: m.Percent})
	}
	return page
}
