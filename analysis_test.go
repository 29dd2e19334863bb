package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nba-breakout/features"
	"nba-breakout/labels"
	"nba-breakout/season"
)

func labelledTable(t *testing.T) []*season.Record {
	t.Helper()
	mk := func(id int64, s string, rating float64) *season.Record {
		r := season.NewRecord(id, s)
		r.SetFloat(season.PrimaryMetric, rating)
		return r
	}
	recs := []*season.Record{
		mk(1, "1996-97", -2),
		mk(1, "1997-98", 6),
		mk(2, "1996-97", 1),
		mk(2, "1997-98", 2),
		mk(3, "1997-98", 4),
	}
	require.NoError(t, features.Derive(recs, season.LagMetrics))
	labels.Assign(recs, season.PrimaryMetric, labels.DefaultThreshold)
	return recs
}

func TestSummarize(t *testing.T) {
	sum := summarize(labelledTable(t), season.PrimaryMetric)

	assert.Equal(t, 5, sum.Rows)
	assert.Equal(t, 3, sum.Players)
	assert.Equal(t, 2, sum.Seasons)
	assert.Equal(t, "1996-97", sum.FirstSeason)
	assert.Equal(t, "1997-98", sum.LastSeason)
	assert.Equal(t, 2, sum.Eligible)
	assert.Equal(t, 1, sum.Breakouts)
	assert.InDelta(t, 50.0, sum.BreakoutRate, 1e-9)
	assert.Equal(t, 8.0, sum.GainMin)
	assert.Equal(t, 8.0, sum.GainMax)
	assert.Equal(t, 8.0, sum.GainMedian)

	assert.Equal(t, -2.0, sum.MetricMin)
	assert.Equal(t, 6.0, sum.MetricMax)
	assert.InDelta(t, 2.2, sum.MetricMean, 1e-9)
	assert.Equal(t, 2.0, sum.MetricMedian)

	require.Len(t, sum.PerSeason, 2)
	assert.Equal(t, 0, sum.PerSeason[0].Eligible)
	assert.Equal(t, 0.0, sum.PerSeason[0].Share)
	assert.Equal(t, 1.0, sum.PerSeason[1].Share)
}

func TestMissingColumnsOrderedAndCapped(t *testing.T) {
	missing := missingColumns(labelledTable(t), 3)
	require.Len(t, missing, 3)
	for i := 1; i < len(missing); i++ {
		assert.GreaterOrEqual(t, missing[i-1].Percent, missing[i].Percent)
	}
	// only E_NET_RATING was populated, so every other column is fully missing
	assert.Equal(t, 100.0, missing[0].Percent)
}

func TestSummarizeEmpty(t *testing.T) {
	sum := summarize(nil, season.PrimaryMetric)
	assert.Zero(t, sum.Rows)
	assert.Empty(t, sum.PerSeason)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, normalize([]float64{2, 4, 6}))
	assert.Equal(t, []float64{0, 0}, normalize([]float64{3, 3}))
	assert.Nil(t, normalize(nil))
}
