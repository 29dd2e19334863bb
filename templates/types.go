package templates

import "time"

type SeasonRow struct {
	Season    string  `json:"season"`
	Rows      int     `json:"rows"`
	Eligible  int     `json:"eligible"`
	Breakouts int     `json:"breakouts"`
	Rate      float64 `json:"rate"`
	// Share drives the bar width, 0 to 1.
	Share float64 `json:"share"`
}

type MissingRow struct {
	Column  string  `json:"column"`
	Percent float64 `json:"percent"`
}

type RunRow struct {
	Season     string    `json:"season"`
	Status     string    `json:"status"`
	Rows       int       `json:"rows"`
	Attempts   int       `json:"attempts"`
	Error      string    `json:"error"`
	FinishedAt time.Time `json:"finished_at"`
}

type ReportPageData struct {
	GeneratedAt time.Time
	RunID       string

	Rows        int
	Players     int
	FirstSeason string
	LastSeason  string

	Eligible     int
	Breakouts    int
	BreakoutRate float64
	Threshold    float64

	GainMin    float64
	GainMax    float64
	GainMean   float64
	GainMedian float64

	Metric       string
	MetricMin    float64
	MetricMax    float64
	MetricMean   float64
	MetricMedian float64

	Seasons []SeasonRow
	Missing []MissingRow
	Runs    []RunRow
}
