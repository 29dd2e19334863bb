package main

import (
	"math"
	"sort"

	"github.com/go-gota/gota/series"

	"nba-breakout/season"
)

type DatasetSummary struct {
	Rows        int
	Players     int
	Seasons     int
	FirstSeason string
	LastSeason  string

	Eligible     int
	Breakouts    int
	BreakoutRate float64
	// Gain* describe BREAKOUT_MAGNITUDE over breakout rows only.
	GainMin    float64
	GainMax    float64
	GainMean   float64
	GainMedian float64

	Metric       string
	MetricMin    float64
	MetricMax    float64
	MetricMean   float64
	MetricMedian float64

	PerSeason []SeasonBreakdown
	Missing   []MissingColumn
}

type SeasonBreakdown struct {
	Season    string
	Rows      int
	Eligible  int
	Breakouts int
	Rate      float64
	// Share is Breakouts scaled to [0, 1] against the busiest season.
	Share float64
}

type MissingColumn struct {
	Column  string
	Percent float64
}

// summarize describes a finished table. Labels are read back from the
// BREAKOUT column, so it works on files produced by earlier runs too.
func summarize(recs []*season.Record, metric string) DatasetSummary {
	sum := DatasetSummary{Rows: len(recs), Metric: metric}
	if len(recs) == 0 {
		return sum
	}

	players := map[int64]bool{}
	bySeason := map[string]*SeasonBreakdown{}
	var metricVals, gains []float64

	for _, r := range recs {
		players[r.PlayerID] = true
		sb, ok := bySeason[r.Season]
		if !ok {
			sb = &SeasonBreakdown{Season: r.Season}
			bySeason[r.Season] = sb
		}
		sb.Rows++

		if v := r.Get(metric); v.Valid {
			metricVals = append(metricVals, v.Float)
		}
		if label := r.Get(season.ColBreakout); label.Valid {
			sb.Eligible++
			sum.Eligible++
			if label.Float == 1 {
				sb.Breakouts++
				sum.Breakouts++
				if m := r.Get(season.ColMagnitude); m.Valid {
					gains = append(gains, m.Float)
				}
			}
		}
	}

	sum.Players = len(players)
	sum.Seasons = len(bySeason)
	if sum.Eligible > 0 {
		sum.BreakoutRate = float64(sum.Breakouts) / float64(sum.Eligible) * 100
	}
	if len(metricVals) > 0 {
		s := series.Floats(metricVals)
		sum.MetricMin = s.Min()
		sum.MetricMax = s.Max()
		sum.MetricMean = s.Mean()
		sum.MetricMedian = s.Median()
	}
	if len(gains) > 0 {
		s := series.Floats(gains)
		sum.GainMin = s.Min()
		sum.GainMax = s.Max()
		sum.GainMean = s.Mean()
		sum.GainMedian = s.Median()
	}

	for _, sb := range bySeason {
		if sb.Eligible > 0 {
			sb.Rate = float64(sb.Breakouts) / float64(sb.Eligible) * 100
		}
		sum.PerSeason = append(sum.PerSeason, *sb)
	}
	sort.Slice(sum.PerSeason, func(i, j int) bool { return sum.PerSeason[i].Season < sum.PerSeason[j].Season })
	sum.FirstSeason = sum.PerSeason[0].Season
	sum.LastSeason = sum.PerSeason[len(sum.PerSeason)-1].Season

	counts := make([]float64, len(sum.PerSeason))
	for i, sb := range sum.PerSeason {
		counts[i] = float64(sb.Breakouts)
	}
	for i, share := range normalize(counts) {
		sum.PerSeason[i].Share = share
	}

	sum.Missing = missingColumns(recs, 10)
	return sum
}

// missingColumns returns up to top columns with any missing cells, worst first.
func missingColumns(recs []*season.Record, top int) []MissingColumn {
	var out []MissingColumn
	for _, col := range season.NumericColumns() {
		vals := make([]float64, len(recs))
		for i, r := range recs {
			v := r.Get(col)
			if !v.Valid {
				vals[i] = math.NaN()
				continue
			}
			vals[i] = v.Float
		}

		missing := 0
		for _, isNaN := range series.Floats(vals).IsNaN() {
			if isNaN {
				missing++
			}
		}
		if missing > 0 {
			out = append(out, MissingColumn{Column: col, Percent: float64(missing) / float64(len(recs)) * 100})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Percent > out[j].Percent })
	if len(out) > top {
		out = out[:top]
	}
	return out
}

// normalize scales vals to [0, 1]; a flat input maps to zeros.
func normalize(vals []float64) []float64 {
	if len(vals) == 0 {
		return nil
	}
	minV, maxV := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	out := make([]float64, len(vals))
	if maxV == minV {
		return out
	}
	denom := maxV - minV
	for i, v := range vals {
		out[i] = (v - minV) / denom
	}
	return out
}
