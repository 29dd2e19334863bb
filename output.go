package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"nba-breakout/collector"
)

var (
	colorAccent = lipgloss.Color("#5D4037")
	colorGood   = lipgloss.Color("#2E7D32")
	colorBad    = lipgloss.Color("#C62828")
	colorMuted  = lipgloss.Color("#8D6E63")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	labelStyle = lipgloss.NewStyle().Foreground(colorMuted).Width(22)
	valueStyle = lipgloss.NewStyle().Bold(true)
	goodStyle  = lipgloss.NewStyle().Foreground(colorGood)
	badStyle   = lipgloss.NewStyle().Foreground(colorBad)
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorAccent).
			Padding(0, 1)
)

func line(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label))
	b.WriteString(valueStyle.Render(value))
	b.WriteString("\n")
}

// renderSummary prints the dataset summary box.
func renderSummary(w io.Writer, sum DatasetSummary) {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Breakout dataset"))
	b.WriteString("\n\n")

	line(&b, "Player seasons", fmt.Sprintf("%d", sum.Rows))
	line(&b, "Players", fmt.Sprintf("%d", sum.Players))
	if sum.Rows > 0 {
		line(&b, "Seasons", fmt.Sprintf("%s to %s (%d)", sum.FirstSeason, sum.LastSeason, sum.Seasons))
	}
	line(&b, "Breakouts", fmt.Sprintf("%d of %d eligible (%.1f%%)", sum.Breakouts, sum.Eligible, sum.BreakoutRate))
	if sum.Breakouts > 0 {
		line(&b, "Breakout gain", fmt.Sprintf("min %.2f  max %.2f  mean %.2f  median %.2f",
			sum.GainMin, sum.GainMax, sum.GainMean, sum.GainMedian))
	}
	line(&b, sum.Metric, fmt.Sprintf("min %.2f  max %.2f  mean %.2f  median %.2f",
		sum.MetricMin, sum.MetricMax, sum.MetricMean, sum.MetricMedian))

	if len(sum.Missing) > 0 {
		b.WriteString("\n")
		b.WriteString(titleStyle.Render("Most missing"))
		b.WriteString("\n")
		for _, m := range sum.Missing {
			line(&b, m.Column, fmt.Sprintf("%.1f%%", m.Percent))
		}
	}

	fmt.Fprintln(w, boxStyle.Render(strings.TrimRight(b.String(), "\n")))
}

// renderCollection prints one line per season outcome of a collection run.
func renderCollection(w io.Writer, res *collector.Result) {
	for _, s := range res.Collected {
		fmt.Fprintf(w, "%s %s\n", goodStyle.Render("collected"), s)
	}
	for _, s := range res.Resumed {
		fmt.Fprintf(w, "%s %s\n", labelStyle.UnsetWidth().Render("resumed"), s)
	}
	for _, f := range res.Failed {
		fmt.Fprintf(w, "%s %s: %v\n", badStyle.Render("failed"), f.Season, f.Err)
	}
	fmt.Fprintf(w, "%s rows\n", valueStyle.Render(fmt.Sprintf("%d", len(res.Records))))
}
