package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"nba-breakout/collector"
	"nba-breakout/logging"
	"nba-breakout/metrics"
)

// store keeps provider responses and the per-season run history.
type store struct {
	db *sql.DB
}

func openStore(path string) (*store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating db dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
    CREATE TABLE IF NOT EXISTS provider_responses (
        endpoint TEXT NOT NULL,
        season TEXT NOT NULL,
        body TEXT NOT NULL,
        fetched_at INTEGER NOT NULL,
        PRIMARY KEY (endpoint, season)
    );`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating provider_responses: %w", err)
	}

	if _, err := db.Exec(`
    CREATE TABLE IF NOT EXISTS season_runs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        run_id TEXT,
        season TEXT,
        status TEXT,
        row_count INTEGER,
        attempts INTEGER,
        error TEXT,
        finished_at INTEGER
    );`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating season_runs: %w", err)
	}
	return &store{db: db}, nil
}

func (s *store) Close() error {
	return s.db.Close()
}

// RecordSeason appends one outcome to season_runs.
func (s *store) RecordSeason(ctx context.Context, o collector.Outcome) error {
	var errText string
	if o.Err != nil {
		errText = o.Err.Error()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO season_runs (run_id, season, status, row_count, attempts, error, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.RunID, o.Season, o.Status, o.Rows, o.Attempts, errText, time.Now().Unix())
	return err
}

type seasonRun struct {
	RunID      string
	Season     string
	Status     string
	Rows       int
	Attempts   int
	Error      string
	FinishedAt time.Time
}

// latestRuns returns the most recent outcome of every season, oldest season first.
func (s *store) latestRuns(ctx context.Context) ([]seasonRun, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, season, status, row_count, attempts, error, finished_at
		FROM season_runs
		WHERE id IN (SELECT MAX(id) FROM season_runs GROUP BY season)
		ORDER BY season`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []seasonRun
	for rows.Next() {
		var r seasonRun
		var finished int64
		if err := rows.Scan(&r.RunID, &r.Season, &r.Status, &r.Rows, &r.Attempts, &r.Error, &finished); err != nil {
			return nil, err
		}
		r.FinishedAt = time.Unix(finished, 0)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *store) cachedFrame(ctx context.Context, endpoint, season string, ttl time.Duration) (collector.Frame, bool, error) {
	var body string
	var fetched int64
	err := s.db.QueryRowContext(ctx,
		`SELECT body, fetched_at FROM provider_responses WHERE endpoint = ? AND season = ?`,
		endpoint, season).Scan(&body, &fetched)
	if errors.Is(err, sql.ErrNoRows) {
		return collector.Frame{}, false, nil
	}
	if err != nil {
		return collector.Frame{}, false, err
	}
	if ttl > 0 && time.Since(time.Unix(fetched, 0)) > ttl {
		return collector.Frame{}, false, nil
	}

	var f collector.Frame
	if err := json.Unmarshal([]byte(body), &f); err != nil {
		return collector.Frame{}, false, fmt.Errorf("decoding cached %s %s: %w", endpoint, season, err)
	}
	return f, true, nil
}

func (s *store) saveFrame(ctx context.Context, endpoint, season string, f collector.Frame) error {
	body, err := json.Marshal(f)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO provider_responses (endpoint, season, body, fetched_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(endpoint, season) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		endpoint, season, string(body), time.Now().Unix())
	return err
}

// cachingProvider serves repeated requests from the store, so a season whose
// second endpoint failed does not refetch the first on the next attempt.
type cachingProvider struct {
	next    collector.Provider
	store   *store
	ttl     time.Duration
	log     *logging.Logger
	metrics *metrics.Metrics
}

func (p *cachingProvider) LeagueStats(ctx context.Context, season string) (collector.Frame, error) {
	return p.cached(ctx, collector.EndpointLeagueStats, season, p.next.LeagueStats)
}

func (p *cachingProvider) EstimatedMetrics(ctx context.Context, season string) (collector.Frame, error) {
	return p.cached(ctx, collector.EndpointEstimatedMetrics, season, p.next.EstimatedMetrics)
}

func (p *cachingProvider) cached(ctx context.Context, endpoint, season string,
	fetch func(context.Context, string) (collector.Frame, error)) (collector.Frame, error) {
	f, ok, err := p.store.cachedFrame(ctx, endpoint, season, p.ttl)
	if err != nil {
		p.log.Warn("cache read failed", "endpoint", endpoint, "season", season, "error", err)
	}
	if ok {
		p.metrics.CacheHits.WithLabelValues(endpoint).Inc()
		return f, nil
	}

	f, err = fetch(ctx, season)
	if err != nil {
		return collector.Frame{}, err
	}
	if err := p.store.saveFrame(ctx, endpoint, season, f); err != nil {
		p.log.Warn("cache write failed", "endpoint", endpoint, "season", season, "error", err)
	}
	return f, nil
}
