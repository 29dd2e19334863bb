// Package metrics exposes the collection counters of a single run. Batch runs
// have no scrape endpoint, so the registry is written to a node-exporter
// textfile at the end.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registry *prometheus.Registry

	FetchAttempts  *prometheus.CounterVec
	FetchFailures  *prometheus.CounterVec
	CacheHits      *prometheus.CounterVec
	SeasonsDone    prometheus.Counter
	SeasonsFailed  prometheus.Counter
	SeasonsResumed prometheus.Counter
	RowsDropped    *prometheus.CounterVec
	Rows           prometheus.Gauge
	Breakouts      prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		FetchAttempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_fetch_attempts_total",
			Help: "Provider requests issued, by endpoint.",
		}, []string{"endpoint"}),
		FetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_fetch_failures_total",
			Help: "Provider requests that failed, by endpoint.",
		}, []string{"endpoint"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_cache_hits_total",
			Help: "Provider responses served from the local cache, by endpoint.",
		}, []string{"endpoint"}),
		SeasonsDone: f.NewCounter(prometheus.CounterOpts{
			Name: "breakout_seasons_collected_total",
			Help: "Seasons fetched and stored in this run.",
		}),
		SeasonsFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "breakout_seasons_failed_total",
			Help: "Seasons left out after exhausting retries.",
		}),
		SeasonsResumed: f.NewCounter(prometheus.CounterOpts{
			Name: "breakout_seasons_resumed_total",
			Help: "Seasons taken from the progress file without fetching.",
		}),
		RowsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "breakout_rows_dropped_total",
			Help: "Provider rows not kept, by reason.",
		}, []string{"reason"}),
		Rows: f.NewGauge(prometheus.GaugeOpts{
			Name: "breakout_dataset_rows",
			Help: "Player-season rows in the last written table.",
		}),
		Breakouts: f.NewGauge(prometheus.GaugeOpts{
			Name: "breakout_dataset_breakouts",
			Help: "Rows labeled as breakout seasons.",
		}),
	}
}

// WriteTextfile dumps the registry for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating metrics dir: %w", err)
	}
	return prometheus.WriteToTextfile(path, m.Registry)
}
