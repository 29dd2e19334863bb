// Package collector pulls per-season player aggregates from a stats provider,
// applies the playing-time filter and keeps a resumable progress file.
package collector

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"

	"nba-breakout/logging"
	"nba-breakout/metrics"
	"nba-breakout/season"
)

// ErrNoData means not a single season made it into the table.
var ErrNoData = errors.New("no seasons collected")

const (
	StatusCollected = "collected"
	StatusResumed   = "resumed"
	StatusFailed    = "failed"
)

type Config struct {
	Seasons    []string
	MinMinutes float64
	// Metric must be present on a kept row and lie within MetricMin and
	// MetricMax. Empty means season.PrimaryMetric.
	Metric    string
	MetricMin float64
	MetricMax float64

	Attempts        int
	BaseDelay       time.Duration
	RequestInterval time.Duration
	SeasonPause     time.Duration

	// ProgressPath is rewritten after every season. Empty disables resume.
	ProgressPath string
}

// Outcome is what happened to one season in one run.
type Outcome struct {
	RunID    string
	Season   string
	Status   string
	Rows     int
	Attempts int
	Err      error
}

// RunLog keeps a history of season outcomes.
type RunLog interface {
	RecordSeason(ctx context.Context, o Outcome) error
}

type SeasonFailure struct {
	Season string
	Err    error
}

type Result struct {
	Records   []*season.Record
	Collected []string
	Resumed   []string
	Failed    []SeasonFailure
}

type Collector struct {
	provider Provider
	cfg      Config
	log      *logging.Logger
	metrics  *metrics.Metrics
	runs     RunLog
	runID    string
	limiter  *rate.Limiter
	validate *validator.Validate
}

type Option func(*Collector)

func WithLogger(l *logging.Logger) Option   { return func(c *Collector) { c.log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(c *Collector) { c.metrics = m } }
func WithRunLog(r RunLog) Option            { return func(c *Collector) { c.runs = r } }
func WithRunID(id string) Option            { return func(c *Collector) { c.runID = id } }

func New(p Provider, cfg Config, opts ...Option) *Collector {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	if cfg.Metric == "" {
		cfg.Metric = season.PrimaryMetric
	}
	if cfg.MetricMin == 0 && cfg.MetricMax == 0 {
		cfg.MetricMin, cfg.MetricMax = -100, 100
	}
	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	c := &Collector{
		provider: p,
		cfg:      cfg,
		log:      logging.Nop(),
		metrics:  metrics.New(),
		limiter:  rate.NewLimiter(limit, 1),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("run_id", c.runID)
	return c
}

// Run collects every configured season that is not already in the progress
// file. A season that keeps failing is reported in Result.Failed and left out;
// seasons collected before it stay on disk.
func (c *Collector) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	recs, others, err := c.loadProgress()
	if err != nil {
		return nil, err
	}
	done := season.SeasonsIn(recs)
	res.Records = recs

	c.log.Info("collection started",
		"first", first(c.cfg.Seasons), "last", last(c.cfg.Seasons),
		"seasons", len(c.cfg.Seasons), "resumable_rows", len(recs))

	for i, s := range c.cfg.Seasons {
		seasonLog := c.log.With("season", s, "progress", fmt.Sprintf("%d/%d", i+1, len(c.cfg.Seasons)))

		if done[s] {
			res.Resumed = append(res.Resumed, s)
			c.metrics.SeasonsResumed.Inc()
			seasonLog.Info("season already collected, skipping")
			c.record(ctx, Outcome{Season: s, Status: StatusResumed})
			continue
		}

		rows, attempts, err := c.collectSeason(ctx, s)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.Failed = append(res.Failed, SeasonFailure{Season: s, Err: err})
			c.metrics.SeasonsFailed.Inc()
			seasonLog.Error("season failed, skipping", "attempts", attempts, "error", err)
			c.record(ctx, Outcome{Season: s, Status: StatusFailed, Attempts: attempts, Err: err})
			if err := c.pauseAfter(ctx, i); err != nil {
				return res, err
			}
			continue
		}

		res.Records = append(res.Records, rows...)
		res.Collected = append(res.Collected, s)
		c.metrics.SeasonsDone.Inc()
		c.record(ctx, Outcome{Season: s, Status: StatusCollected, Rows: len(rows), Attempts: attempts})

		if c.cfg.ProgressPath != "" {
			// rows of seasons outside this run's range stay in the file
			saved := append(append(make([]*season.Record, 0, len(res.Records)+len(others)), res.Records...), others...)
			if err := season.WriteFile(c.cfg.ProgressPath, saved); err != nil {
				return res, fmt.Errorf("saving progress after %s: %w", s, err)
			}
		}
		seasonLog.Info("season collected", "players", len(rows), "total_rows", len(res.Records))
		if err := c.pauseAfter(ctx, i); err != nil {
			return res, err
		}
	}

	c.metrics.Rows.Set(float64(len(res.Records)))
	if len(res.Records) == 0 {
		return res, ErrNoData
	}
	c.log.Info("collection complete",
		"rows", len(res.Records), "collected", len(res.Collected),
		"resumed", len(res.Resumed), "failed", len(res.Failed))
	return res, nil
}

// loadProgress splits earlier rows into those for the configured seasons and
// the rest, which are carried over untouched when the file is rewritten.
func (c *Collector) loadProgress() (kept, others []*season.Record, err error) {
	if c.cfg.ProgressPath == "" {
		return nil, nil, nil
	}
	recs, err := season.ReadFile(c.cfg.ProgressPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("loading progress: %w", err)
	}

	wanted := make(map[string]bool, len(c.cfg.Seasons))
	for _, s := range c.cfg.Seasons {
		wanted[s] = true
	}
	for _, r := range recs {
		if wanted[r.Season] {
			kept = append(kept, r)
		} else {
			others = append(others, r)
		}
	}
	if len(others) > 0 {
		c.log.Info("keeping progress rows outside the season range", "rows", len(others))
	}
	return kept, others, nil
}

// pauseAfter waits between seasons, successful or not.
func (c *Collector) pauseAfter(ctx context.Context, i int) error {
	if i >= len(c.cfg.Seasons)-1 {
		return nil
	}
	return pause(ctx, c.cfg.SeasonPause)
}

func (c *Collector) collectSeason(ctx context.Context, s string) ([]*season.Record, int, error) {
	league, n1, err := c.fetch(ctx, EndpointLeagueStats, s, c.provider.LeagueStats)
	if err != nil {
		return nil, n1, fmt.Errorf("%s: %w", EndpointLeagueStats, err)
	}
	est, n2, err := c.fetch(ctx, EndpointEstimatedMetrics, s, c.provider.EstimatedMetrics)
	if err != nil {
		return nil, n1 + n2, fmt.Errorf("%s: %w", EndpointEstimatedMetrics, err)
	}
	return c.merge(s, league, est), n1 + n2, nil
}

type fetchFunc func(ctx context.Context, season string) (Frame, error)

func (c *Collector) fetch(ctx context.Context, endpoint, s string, call fetchFunc) (Frame, int, error) {
	attempts := 0
	frame, err := backoff.Retry(ctx, func() (Frame, error) {
		attempts++
		if err := c.limiter.Wait(ctx); err != nil {
			return Frame{}, backoff.Permanent(err)
		}
		c.metrics.FetchAttempts.WithLabelValues(endpoint).Inc()

		f, err := call(ctx, s)
		if err != nil {
			c.metrics.FetchFailures.WithLabelValues(endpoint).Inc()
			c.log.Warn("fetch attempt failed",
				"endpoint", endpoint, "season", s,
				"attempt", fmt.Sprintf("%d/%d", attempts, c.cfg.Attempts), "error", err)
			if ctx.Err() != nil {
				return Frame{}, backoff.Permanent(err)
			}
			return Frame{}, err
		}
		return f, nil
	},
		backoff.WithBackOff(&linearBackOff{step: c.cfg.BaseDelay}),
		backoff.WithMaxTries(uint(c.cfg.Attempts)),
		backoff.WithMaxElapsedTime(0),
	)
	return frame, attempts, err
}

func (c *Collector) record(ctx context.Context, o Outcome) {
	if c.runs == nil {
		return
	}
	o.RunID = c.runID
	if err := c.runs.RecordSeason(ctx, o); err != nil {
		c.log.Warn("could not record season outcome", "season", o.Season, "error", err)
	}
}

// linearBackOff waits step, 2*step, 3*step, ...
type linearBackOff struct {
	step time.Duration
	n    int
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.n++
	return b.step * time.Duration(b.n)
}

func (b *linearBackOff) Reset() { b.n = 0 }

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

func last(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[len(s)-1]
}
