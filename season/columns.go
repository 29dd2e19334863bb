package season

// Identity and categorical columns
const (
	ColPlayerID   = "PLAYER_ID"
	ColPlayerName = "PLAYER_NAME"
	ColTeam       = "TEAM_ABBREVIATION"
	ColSeason     = "SEASON"
	ColAge        = "AGE"
	ColExperience = "EXPERIENCE"
)

// Derived and label columns
const (
	ColTrueShooting = "TS_PCT"
	ColEffectiveFG  = "EFG_PCT"
	ColBreakout     = "BREAKOUT"
	ColMagnitude    = "BREAKOUT_MAGNITUDE"
)

// PrimaryMetric is the estimated point differential per 100 possessions.
const PrimaryMetric = "E_NET_RATING"

const (
	SuffixPrev       = "_PREV"
	Suffix2YrsAgo    = "_2YRS_AGO"
	SuffixChange     = "_CHANGE_1YR"
	SuffixGrowthRate = "_GROWTH_RATE"
)

// LeagueStats are the numeric per-game columns taken from the league dash endpoint.
var LeagueStats = []string{
	ColAge, "GP", "W", "L", "MIN", "FGM", "FGA", "FG_PCT", "FG3M", "FG3A", "FG3_PCT",
	"FTM", "FTA", "FT_PCT", "OREB", "DREB", "REB", "AST", "TOV", "STL", "BLK",
	"BLKA", "PF", "PFD", "PTS", "PLUS_MINUS",
}

// EstimatedMetrics are the columns taken from the estimated metrics endpoint.
var EstimatedMetrics = []string{
	"E_OFF_RATING", "E_DEF_RATING", PrimaryMetric,
	"E_AST_RATIO", "E_OREB_PCT", "E_DREB_PCT", "E_REB_PCT",
	"E_TOV_PCT", "E_USG_PCT", "E_PACE",
}

// LagMetrics get _PREV, _2YRS_AGO, _CHANGE_1YR and _GROWTH_RATE companions.
var LagMetrics = []string{
	PrimaryMetric, "E_OFF_RATING", "E_DEF_RATING",
	"PTS", "AST", "REB", "MIN", "GP",
	ColTrueShooting, "E_USG_PCT", "FG_PCT", "FG3_PCT",
}

func Prev(metric string) string       { return metric + SuffixPrev }
func TwoYrsAgo(metric string) string  { return metric + Suffix2YrsAgo }
func Change(metric string) string     { return metric + SuffixChange }
func GrowthRate(metric string) string { return metric + SuffixGrowthRate }

// Header returns the column order shared by the progress and output files.
func Header() []string {
	h := []string{ColPlayerID, ColPlayerName, ColTeam}
	h = append(h, LeagueStats...)
	h = append(h, EstimatedMetrics...)
	h = append(h, ColSeason, ColTrueShooting, ColEffectiveFG, ColExperience)
	for _, m := range LagMetrics {
		h = append(h, Prev(m), TwoYrsAgo(m))
	}
	for _, m := range LagMetrics {
		h = append(h, Change(m), GrowthRate(m))
	}
	return append(h, ColBreakout, ColMagnitude)
}

// NumericColumns is Header minus the identity and text columns.
func NumericColumns() []string {
	var out []string
	for _, c := range Header() {
		if isTextColumn(c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func isTextColumn(c string) bool {
	switch c {
	case ColPlayerID, ColPlayerName, ColTeam, ColSeason:
		return true
	}
	return false
}
