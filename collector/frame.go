package collector

import (
	"context"
	"strconv"
)

// Frame is one result table from the stats provider: named columns over
// loosely typed JSON cells.
type Frame struct {
	Headers []string `json:"headers"`
	Rows    [][]any  `json:"rowSet"`
}

// Provider fetches per-season aggregates. Implementations only need to return
// the columns they know; absent columns become missing values.
type Provider interface {
	LeagueStats(ctx context.Context, season string) (Frame, error)
	EstimatedMetrics(ctx context.Context, season string) (Frame, error)
}

// Endpoint names used in logs, metrics and the response cache.
const (
	EndpointLeagueStats      = "leaguedashplayerstats"
	EndpointEstimatedMetrics = "playerestimatedmetrics"
)

func (f Frame) index() map[string]int {
	idx := make(map[string]int, len(f.Headers))
	for i, h := range f.Headers {
		idx[h] = i
	}
	return idx
}

type frameRow struct {
	cells []any
	idx   map[string]int
}

func (r frameRow) raw(col string) (any, bool) {
	i, ok := r.idx[col]
	if !ok || i >= len(r.cells) || r.cells[i] == nil {
		return nil, false
	}
	return r.cells[i], true
}

func (r frameRow) float(col string) (float64, bool) {
	v, ok := r.raw(col)
	if !ok {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	}
	return 0, false
}

func (r frameRow) text(col string) string {
	v, ok := r.raw(col)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
