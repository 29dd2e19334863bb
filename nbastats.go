package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"nba-breakout/collector"
)

const NBA_STATS_BASE = "https://stats.nba.com/stats"

// statsResponse covers both shapes stats.nba.com uses: most endpoints return
// "resultSets", a few (player estimated metrics) return a single "resultSet".
type statsResponse struct {
	ResultSets []resultSet `json:"resultSets"`
	ResultSet  *resultSet  `json:"resultSet"`
}

type resultSet struct {
	Name    string   `json:"name"`
	Headers []string `json:"headers"`
	RowSet  [][]any  `json:"rowSet"`
}

type statusError struct {
	Endpoint string
	Code     int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.Code)
}

// statsClient talks to stats.nba.com. The site rejects requests that do not
// look like they came from nba.com, hence the browser headers.
type statsClient struct {
	baseURL   string
	userAgent string
	client    *http.Client
}

func newStatsClient(baseURL string, timeout time.Duration, userAgent string) *statsClient {
	if baseURL == "" {
		baseURL = NBA_STATS_BASE
	}
	return &statsClient{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
	}
}

func (c *statsClient) LeagueStats(ctx context.Context, season string) (collector.Frame, error) {
	params := url.Values{}
	for _, k := range []string{
		"College", "Conference", "Country", "DateFrom", "DateTo", "Division",
		"DraftPick", "DraftYear", "GameScope", "GameSegment", "Height", "Location",
		"Outcome", "PlayerExperience", "PlayerPosition", "SeasonSegment",
		"ShotClockRange", "StarterBench", "VsConference", "VsDivision", "Weight",
	} {
		params.Set(k, "")
	}
	for _, k := range []string{"LastNGames", "Month", "OpponentTeamID", "PORound", "Period", "TeamID", "TwoWay"} {
		params.Set(k, "0")
	}
	params.Set("LeagueID", "00")
	params.Set("MeasureType", "Base")
	params.Set("PaceAdjust", "N")
	params.Set("PerMode", "PerGame")
	params.Set("PlusMinus", "N")
	params.Set("Rank", "N")
	params.Set("Season", season)
	params.Set("SeasonType", "Regular Season")

	return c.get(ctx, collector.EndpointLeagueStats, params)
}

func (c *statsClient) EstimatedMetrics(ctx context.Context, season string) (collector.Frame, error) {
	params := url.Values{}
	params.Set("LeagueID", "00")
	params.Set("Season", season)
	params.Set("SeasonType", "Regular Season")

	return c.get(ctx, collector.EndpointEstimatedMetrics, params)
}

func (c *statsClient) get(ctx context.Context, endpoint string, params url.Values) (collector.Frame, error) {
	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return collector.Frame{}, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Referer", "https://www.nba.com/")
	req.Header.Set("Origin", "https://www.nba.com")
	req.Header.Set("x-nba-stats-origin", "stats")
	req.Header.Set("x-nba-stats-token", "true")

	resp, err := c.client.Do(req)
	if err != nil {
		return collector.Frame{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return collector.Frame{}, &statusError{Endpoint: endpoint, Code: resp.StatusCode}
	}

	var body statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return collector.Frame{}, fmt.Errorf("decoding %s: %w", endpoint, err)
	}

	rs := body.ResultSet
	if rs == nil && len(body.ResultSets) > 0 {
		rs = &body.ResultSets[0]
	}
	if rs == nil {
		return collector.Frame{}, fmt.Errorf("%s: response has no result set", endpoint)
	}
	return collector.Frame{Headers: rs.Headers, Rows: rs.RowSet}, nil
}
