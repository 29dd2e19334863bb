package templates

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportRendersSections(t *testing.T) {
	d := ReportPageData{
		GeneratedAt:  time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
		RunID:        "run-1",
		Rows:         3,
		Players:      2,
		FirstSeason:  "1996-97",
		LastSeason:   "1997-98",
		Eligible:     1,
		Breakouts:    1,
		BreakoutRate: 100,
		GainMin:      6.5,
		GainMax:      6.5,
		Threshold:    5,
		Metric:       "E_NET_RATING",
		Seasons: []SeasonRow{
			{Season: "1996-97", Rows: 2},
			{Season: "1997-98", Rows: 1, Eligible: 1, Breakouts: 1, Rate: 100, Share: 1},
		},
		Missing: []MissingRow{{Column: "E_NET_RATING_PREV", Percent: 66.7}},
		Runs: []RunRow{
			{Season: "1997-98", Status: "failed", Attempts: 3, Error: `status 503 <html>`},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Report(d).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, "run-1")
	assert.Contains(t, html, "1 of 1 (100.0%)")
	assert.Contains(t, html, `value="100"`)
	assert.Contains(t, html, "breakout gain min 6.50")
	assert.Contains(t, html, "E_NET_RATING_PREV")
	assert.Contains(t, html, "Collection history")
	assert.Contains(t, html, "&lt;html&gt;")
	assert.NotContains(t, html, "503 <html>")
}

func TestReportEmptySections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(ReportPageData{}).Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), "No seasons.")
	assert.Contains(t, buf.String(), "Every column is complete.")
	assert.NotContains(t, buf.String(), "breakout gain")
	assert.NotContains(t, buf.String(), "Collection history")
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestReportWriteError(t *testing.T) {
	err := Report(ReportPageData{}).Render(context.Background(), failingWriter{})
	assert.EqualError(t, err, "disk full")
}
