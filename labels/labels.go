// Package labels marks breakout seasons from the year-over-year change in the
// primary metric.
package labels

import (
	"github.com/go-gota/gota/series"

	"nba-breakout/season"
)

// DefaultThreshold is the minimum improvement counted as a breakout.
const DefaultThreshold = 5.0

// Stats summarizes one labeling pass.
type Stats struct {
	Total     int
	Eligible  int
	Breakouts int
	// Rate is Breakouts / Eligible, in percent.
	Rate float64

	MinMagnitude    float64
	MaxMagnitude    float64
	MeanMagnitude   float64
	MedianMagnitude float64
}

// Assign sets BREAKOUT and BREAKOUT_MAGNITUDE on every record. Records with no
// prior value of metric keep both labels missing.
func Assign(recs []*season.Record, metric string, threshold float64) Stats {
	st := Stats{Total: len(recs)}
	var magnitudes []float64

	for _, r := range recs {
		cur, prev := r.Get(metric), r.Get(season.Prev(metric))
		if !cur.Valid || !prev.Valid {
			r.Set(season.ColMagnitude, season.Missing)
			r.Set(season.ColBreakout, season.Missing)
			continue
		}
		st.Eligible++

		magnitude := cur.Float - prev.Float
		r.SetFloat(season.ColMagnitude, magnitude)
		if magnitude >= threshold {
			r.SetFloat(season.ColBreakout, 1)
			st.Breakouts++
			magnitudes = append(magnitudes, magnitude)
		} else {
			r.SetFloat(season.ColBreakout, 0)
		}
	}

	if st.Eligible > 0 {
		st.Rate = float64(st.Breakouts) / float64(st.Eligible) * 100
	}
	if len(magnitudes) > 0 {
		s := series.Floats(magnitudes)
		st.MinMagnitude = s.Min()
		st.MaxMagnitude = s.Max()
		st.MeanMagnitude = s.Mean()
		st.MedianMagnitude = s.Median()
	}
	return st
}
