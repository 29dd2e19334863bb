// Package features derives lag, change, growth-rate and shooting-efficiency
// columns for collected player seasons.
package features

import (
	"math"

	"nba-breakout/season"
)

// Derive sorts recs by player and season and fills every derived column in
// place. Missing history or zero denominators leave cells missing.
func Derive(recs []*season.Record, lagMetrics []string) error {
	season.Sort(recs)
	if err := season.CheckUnique(recs); err != nil {
		return err
	}

	for _, r := range recs {
		Efficiency(r)
	}

	for start := 0; start < len(recs); {
		end := start + 1
		for end < len(recs) && recs[end].PlayerID == recs[start].PlayerID {
			end++
		}
		lagPlayer(recs[start:end], lagMetrics)
		start = end
	}
	return nil
}

// lagPlayer works on one player's seasons, already in season order.
func lagPlayer(history []*season.Record, metrics []string) {
	for i, r := range history {
		for _, m := range metrics {
			prev := season.Missing
			if i >= 1 {
				prev = history[i-1].Get(m)
			}
			twoAgo := season.Missing
			if i >= 2 {
				twoAgo = history[i-2].Get(m)
			}
			r.Set(season.Prev(m), prev)
			r.Set(season.TwoYrsAgo(m), twoAgo)

			change := Change(r.Get(m), prev)
			r.Set(season.Change(m), change)
			r.Set(season.GrowthRate(m), GrowthRate(change, prev))
		}
	}
}

// Change is current minus prior; missing if either side is.
func Change(current, prior season.Value) season.Value {
	if !current.Valid || !prior.Valid {
		return season.Missing
	}
	return season.Float(current.Float - prior.Float)
}

// GrowthRate is change relative to the prior magnitude. A zero or missing
// prior yields a missing value, never an infinity.
func GrowthRate(change, prior season.Value) season.Value {
	if !change.Valid || !prior.Valid || prior.Float == 0 {
		return season.Missing
	}
	return season.Float(change.Float / math.Abs(prior.Float))
}

// Efficiency fills TS_PCT and EFG_PCT from made/attempted counts.
func Efficiency(r *season.Record) {
	r.Set(season.ColTrueShooting, TrueShooting(r.Get("PTS"), r.Get("FGA"), r.Get("FTA")))
	r.Set(season.ColEffectiveFG, EffectiveFG(r.Get("FGM"), r.Get("FG3M"), r.Get("FGA")))
}

// TrueShooting is PTS / (2 * (FGA + 0.44 * FTA)).
func TrueShooting(pts, fga, fta season.Value) season.Value {
	if !pts.Valid || !fga.Valid || !fta.Valid {
		return season.Missing
	}
	denom := 2 * (fga.Float + 0.44*fta.Float)
	if denom == 0 {
		return season.Missing
	}
	return season.Float(pts.Float / denom)
}

// EffectiveFG is (FGM + 0.5 * FG3M) / FGA.
func EffectiveFG(fgm, fg3m, fga season.Value) season.Value {
	if !fgm.Valid || !fg3m.Valid || !fga.Valid || fga.Float == 0 {
		return season.Missing
	}
	return season.Float((fgm.Float + 0.5*fg3m.Float) / fga.Float)
}
