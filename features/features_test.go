package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nba-breakout/season"
)

func rec(id int64, s string, vals map[string]float64) *season.Record {
	r := season.NewRecord(id, s)
	for k, v := range vals {
		r.SetFloat(k, v)
	}
	return r
}

func TestDeriveTwoSeasonHistory(t *testing.T) {
	recs := []*season.Record{
		rec(7, "2019-20", map[string]float64{season.PrimaryMetric: 6.0}),
		rec(7, "2018-19", map[string]float64{season.PrimaryMetric: -2.0}),
	}
	require.NoError(t, Derive(recs, season.LagMetrics))

	first, second := recs[0], recs[1]
	assert.Equal(t, "2018-19", first.Season)
	assert.False(t, first.Get(season.Prev(season.PrimaryMetric)).Valid)
	assert.False(t, first.Get(season.Change(season.PrimaryMetric)).Valid)

	assert.Equal(t, season.Float(-2.0), second.Get(season.Prev(season.PrimaryMetric)))
	assert.False(t, second.Get(season.TwoYrsAgo(season.PrimaryMetric)).Valid)
	assert.Equal(t, season.Float(8.0), second.Get(season.Change(season.PrimaryMetric)))
	assert.Equal(t, season.Float(4.0), second.Get(season.GrowthRate(season.PrimaryMetric)))
}

func TestDeriveKeepsPlayersApart(t *testing.T) {
	recs := []*season.Record{
		rec(1, "2000-01", map[string]float64{"PTS": 10}),
		rec(2, "2001-02", map[string]float64{"PTS": 30}),
		rec(1, "2001-02", map[string]float64{"PTS": 12}),
		rec(1, "2002-03", map[string]float64{"PTS": 15}),
	}
	require.NoError(t, Derive(recs, []string{"PTS"}))

	byKey := map[string]*season.Record{}
	for _, r := range recs {
		byKey[r.Key().String()] = r
	}

	third := byKey["1/2002-03"]
	assert.Equal(t, season.Float(12), third.Get("PTS_PREV"))
	assert.Equal(t, season.Float(10), third.Get("PTS_2YRS_AGO"))
	assert.Equal(t, season.Float(3), third.Get("PTS_CHANGE_1YR"))
	assert.InDelta(t, 0.25, third.Get("PTS_GROWTH_RATE").Float, 1e-12)

	other := byKey["2/2001-02"]
	assert.False(t, other.Get("PTS_PREV").Valid, "lag must not cross players")
}

func TestGrowthRateZeroDenominator(t *testing.T) {
	recs := []*season.Record{
		rec(1, "2000-01", map[string]float64{"AST": 0}),
		rec(1, "2001-02", map[string]float64{"AST": 3}),
	}
	require.NoError(t, Derive(recs, []string{"AST"}))

	assert.Equal(t, season.Float(3), recs[1].Get("AST_CHANGE_1YR"))
	assert.False(t, recs[1].Get("AST_GROWTH_RATE").Valid)
}

func TestGrowthRateUsesAbsolutePrior(t *testing.T) {
	got := GrowthRate(season.Float(8), season.Float(-2))
	assert.Equal(t, season.Float(4), got)

	assert.False(t, GrowthRate(season.Missing, season.Float(1)).Valid)
	assert.False(t, GrowthRate(season.Float(1), season.Missing).Valid)
}

func TestMissingCurrentValueLeavesChangeMissing(t *testing.T) {
	recs := []*season.Record{
		rec(1, "2000-01", map[string]float64{"FG3_PCT": 0.35}),
		rec(1, "2001-02", nil),
	}
	require.NoError(t, Derive(recs, []string{"FG3_PCT"}))

	assert.Equal(t, season.Float(0.35), recs[1].Get("FG3_PCT_PREV"))
	assert.False(t, recs[1].Get("FG3_PCT_CHANGE_1YR").Valid)
	assert.False(t, recs[1].Get("FG3_PCT_GROWTH_RATE").Valid)
}

func TestEfficiency(t *testing.T) {
	r := rec(1, "2015-16", map[string]float64{
		"PTS": 30.1, "FGA": 20.2, "FTA": 5.1, "FGM": 10.2, "FG3M": 5.1,
	})
	Efficiency(r)

	assert.InDelta(t, 30.1/(2*(20.2+0.44*5.1)), r.Get(season.ColTrueShooting).Float, 1e-12)
	assert.InDelta(t, (10.2+0.5*5.1)/20.2, r.Get(season.ColEffectiveFG).Float, 1e-12)

	zero := rec(2, "2015-16", map[string]float64{"PTS": 0, "FGA": 0, "FTA": 0, "FGM": 0, "FG3M": 0})
	Efficiency(zero)
	assert.False(t, zero.Get(season.ColTrueShooting).Valid)
	assert.False(t, zero.Get(season.ColEffectiveFG).Valid)
}

func TestDeriveRejectsDuplicates(t *testing.T) {
	recs := []*season.Record{rec(1, "2000-01", nil), rec(1, "2000-01", nil)}
	err := Derive(recs, season.LagMetrics)
	assert.True(t, errors.Is(err, season.ErrDuplicateKey))
}
