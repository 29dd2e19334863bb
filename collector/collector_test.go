package collector

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nba-breakout/metrics"
	"nba-breakout/season"
)

var leagueHeaders = []string{"PLAYER_ID", "PLAYER_NAME", "TEAM_ABBREVIATION", "AGE", "GP", "MIN", "PTS", "FGA", "FTA"}
var metricHeaders = []string{"PLAYER_ID", "PLAYER_NAME", "E_OFF_RATING", "E_DEF_RATING", "E_NET_RATING"}

// fakeProvider serves canned frames and fails a season a set number of times.
type fakeProvider struct {
	mu       sync.Mutex
	league   map[string]Frame
	metrics  map[string]Frame
	failures map[string]int
	calls    map[string]int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		league:   map[string]Frame{},
		metrics:  map[string]Frame{},
		failures: map[string]int{},
		calls:    map[string]int{},
	}
}

func (p *fakeProvider) addSeason(s string, players ...[]any) {
	lf := Frame{Headers: leagueHeaders}
	mf := Frame{Headers: metricHeaders}
	for _, pl := range players {
		// id, name, team, age, gp, min, net
		lf.Rows = append(lf.Rows, []any{pl[0], pl[1], pl[2], pl[3], pl[4], pl[5], 20.0, 15.0, 5.0})
		mf.Rows = append(mf.Rows, []any{pl[0], pl[1], 110.0, 105.0, pl[6]})
	}
	p.league[s] = lf
	p.metrics[s] = mf
}

func (p *fakeProvider) LeagueStats(ctx context.Context, s string) (Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls[s]++
	if p.failures[s] > 0 {
		p.failures[s]--
		return Frame{}, errors.New("stats.nba.com timed out")
	}
	f, ok := p.league[s]
	if !ok {
		return Frame{}, errors.New("no data")
	}
	return f, nil
}

func (p *fakeProvider) EstimatedMetrics(ctx context.Context, s string) (Frame, error) {
	return p.metrics[s], nil
}

func testConfig(t *testing.T, seasons ...string) Config {
	return Config{
		Seasons:      seasons,
		MinMinutes:   500,
		MetricMin:    -100,
		MetricMax:    100,
		Attempts:     3,
		ProgressPath: filepath.Join(t.TempDir(), "progress.csv"),
	}
}

type memRunLog struct{ outcomes []Outcome }

func (m *memRunLog) RecordSeason(_ context.Context, o Outcome) error {
	m.outcomes = append(m.outcomes, o)
	return nil
}

func TestRunFiltersAndMerges(t *testing.T) {
	p := newFakeProvider()
	p.addSeason("1996-97",
		[]any{1.0, "Starter", "CHI", 25.0, 80.0, 35.0, 6.5},
		[]any{2.0, "Bench", "CHI", 22.0, 20.0, 10.0, -1.0}, // 200 minutes
		[]any{3.0, "Edge", "UTA", 19.0, 50.0, 10.0, 0.0},   // exactly 500
	)
	// Player 4 has league stats but no estimated metrics.
	lf := p.league["1996-97"]
	lf.Rows = append(lf.Rows, []any{4.0, "Ghost", "UTA", 30.0, 82.0, 30.0, 20.0, 15.0, 5.0})
	p.league["1996-97"] = lf

	m := metrics.New()
	c := New(p, testConfig(t, "1996-97"), WithMetrics(m))
	res, err := c.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Records, 2)
	assert.Equal(t, []string{"1996-97"}, res.Collected)

	starter := res.Records[0]
	assert.Equal(t, int64(1), starter.PlayerID)
	assert.Equal(t, "Starter", starter.PlayerName)
	assert.Equal(t, "CHI", starter.Team)
	assert.Equal(t, "1996-97", starter.Season)
	assert.Equal(t, season.Float(6.5), starter.Get(season.PrimaryMetric))
	assert.Equal(t, season.Float(6), starter.Get(season.ColExperience))
	assert.Equal(t, season.Float(0), res.Records[1].Get(season.ColExperience))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsDropped.WithLabelValues(dropMinutes)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RowsDropped.WithLabelValues(dropNoMetrics)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Rows))
}

func TestRunDropsOutOfRangeMetric(t *testing.T) {
	p := newFakeProvider()
	p.addSeason("2001-02",
		[]any{1.0, "Normal", "LAL", 25.0, 80.0, 35.0, 3.0},
		[]any{2.0, "Garbage", "LAL", 25.0, 80.0, 35.0, 450.0},
	)
	res, err := New(p, testConfig(t, "2001-02")).Run(context.Background())
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, int64(1), res.Records[0].PlayerID)
}

func TestRunChecksConfiguredMetric(t *testing.T) {
	p := newFakeProvider()
	p.addSeason("2001-02", []any{1.0, "A", "LAL", 25.0, 80.0, 35.0, 3.0})

	// every fake row has E_OFF_RATING 110
	cfg := testConfig(t, "2001-02")
	cfg.Metric = "E_OFF_RATING"
	_, err := New(p, cfg).Run(context.Background())
	assert.ErrorIs(t, err, ErrNoData)

	cfg = testConfig(t, "2001-02")
	cfg.Metric = "E_OFF_RATING"
	cfg.MetricMax = 150
	res, err := New(p, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
}

func TestRunRetriesTransientFailures(t *testing.T) {
	p := newFakeProvider()
	p.addSeason("1997-98", []any{1.0, "A", "CHI", 25.0, 80.0, 35.0, 1.0})
	p.failures["1997-98"] = 2

	m := metrics.New()
	res, err := New(p, testConfig(t, "1997-98"), WithMetrics(m)).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, 3, p.calls["1997-98"])
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FetchFailures.WithLabelValues(EndpointLeagueStats)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.FetchAttempts.WithLabelValues(EndpointLeagueStats)))
}

func TestRunSkipsSeasonAfterPersistentFailure(t *testing.T) {
	p := newFakeProvider()
	p.addSeason("1996-97", []any{1.0, "A", "CHI", 25.0, 80.0, 35.0, 1.0})
	p.addSeason("1997-98", []any{1.0, "A", "CHI", 26.0, 80.0, 35.0, 2.0})
	p.addSeason("1998-99", []any{1.0, "A", "CHI", 27.0, 50.0, 35.0, 3.0})
	p.failures["1997-98"] = 10

	runs := &memRunLog{}
	cfg := testConfig(t, "1996-97", "1997-98", "1998-99")
	res, err := New(p, cfg, WithRunLog(runs), WithRunID("run-1")).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"1996-97", "1998-99"}, res.Collected)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "1997-98", res.Failed[0].Season)
	assert.Equal(t, 3, p.calls["1997-98"])

	saved, err := season.ReadFile(cfg.ProgressPath)
	require.NoError(t, err)
	assert.Len(t, saved, 2)
	assert.NotContains(t, season.SeasonsIn(saved), "1997-98")

	require.Len(t, runs.outcomes, 3)
	assert.Equal(t, StatusFailed, runs.outcomes[1].Status)
	assert.Equal(t, 3, runs.outcomes[1].Attempts)
	assert.Error(t, runs.outcomes[1].Err)
	assert.Equal(t, "run-1", runs.outcomes[1].RunID)
	assert.Equal(t, StatusCollected, runs.outcomes[2].Status)
	assert.Equal(t, 1, runs.outcomes[2].Rows)
}

func TestRunResumesFromProgress(t *testing.T) {
	p := newFakeProvider()
	p.addSeason("1996-97", []any{1.0, "A", "CHI", 25.0, 80.0, 35.0, 1.0})
	p.addSeason("1997-98", []any{1.0, "A", "CHI", 26.0, 80.0, 35.0, 2.0})
	cfg := testConfig(t, "1996-97")

	_, err := New(p, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.calls["1996-97"])

	cfg.Seasons = []string{"1996-97", "1997-98"}
	res, err := New(p, cfg).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, p.calls["1996-97"], "completed season must not be fetched again")
	assert.Equal(t, 1, p.calls["1997-98"])
	assert.Equal(t, []string{"1996-97"}, res.Resumed)
	assert.Equal(t, []string{"1997-98"}, res.Collected)
	assert.Len(t, res.Records, 2)
}

func TestRunKeepsProgressOutsideSeasonRange(t *testing.T) {
	p := newFakeProvider()
	p.addSeason("1996-97", []any{1.0, "A", "CHI", 25.0, 80.0, 35.0, 1.0})
	p.addSeason("1997-98", []any{1.0, "A", "CHI", 26.0, 80.0, 35.0, 2.0})
	p.addSeason("1998-99", []any{1.0, "A", "CHI", 27.0, 80.0, 35.0, 3.0})
	cfg := testConfig(t, "1996-97", "1997-98")

	_, err := New(p, cfg).Run(context.Background())
	require.NoError(t, err)

	cfg.Seasons = []string{"1998-99"}
	res, err := New(p, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Records, 1)
	assert.Equal(t, "1998-99", res.Records[0].Season)

	saved, err := season.ReadFile(cfg.ProgressPath)
	require.NoError(t, err)
	assert.Len(t, saved, 3)
	assert.Equal(t, map[string]bool{"1996-97": true, "1997-98": true, "1998-99": true}, season.SeasonsIn(saved))
}

func TestRunPausesAfterFailedSeason(t *testing.T) {
	p := newFakeProvider()
	p.addSeason("1997-98", []any{1.0, "A", "CHI", 26.0, 80.0, 35.0, 2.0})
	cfg := testConfig(t, "1996-97", "1997-98")
	cfg.Attempts = 1
	cfg.SeasonPause = 50 * time.Millisecond

	start := time.Now()
	res, err := New(p, cfg).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, res.Failed, 1)
	assert.GreaterOrEqual(t, time.Since(start), cfg.SeasonPause)
}

func TestFetchRetriesPastDefaultElapsedLimit(t *testing.T) {
	cfg := testConfig(t, "1996-97")
	cfg.Attempts = 2
	cfg.BaseDelay = 20 * time.Minute
	c := New(newFakeProvider(), cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	calls := 0
	_, attempts, err := c.fetch(ctx, EndpointLeagueStats, "1996-97", func(context.Context, string) (Frame, error) {
		calls++
		return Frame{}, errors.New("stats.nba.com timed out")
	})

	// a long delay is waited out rather than cut short by an elapsed-time cap
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, attempts)
}

func TestRunNoData(t *testing.T) {
	p := newFakeProvider()
	p.failures["2005-06"] = 5
	cfg := testConfig(t, "2005-06")
	cfg.Attempts = 1

	res, err := New(p, cfg).Run(context.Background())
	assert.True(t, errors.Is(err, ErrNoData))
	assert.Len(t, res.Failed, 1)
}

func TestRunStopsOnCancel(t *testing.T) {
	p := newFakeProvider()
	p.addSeason("1996-97", []any{1.0, "A", "CHI", 25.0, 80.0, 35.0, 1.0})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(p, testConfig(t, "1996-97")).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLinearBackOff(t *testing.T) {
	b := &linearBackOff{step: 5}
	assert.EqualValues(t, 5, b.NextBackOff())
	assert.EqualValues(t, 10, b.NextBackOff())
	b.Reset()
	assert.EqualValues(t, 5, b.NextBackOff())
}
