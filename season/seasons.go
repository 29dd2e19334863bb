package season

import (
	"fmt"
	"regexp"
	"strconv"
)

var labelPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Label formats the season starting in year, e.g. 1996 -> "1996-97".
func Label(year int) string {
	return fmt.Sprintf("%d-%02d", year, (year+1)%100)
}

// ValidLabel reports whether s looks like "YYYY-YY" with consecutive years.
func ValidLabel(s string) bool {
	if !labelPattern.MatchString(s) {
		return false
	}
	start, _ := strconv.Atoi(s[:4])
	end, _ := strconv.Atoi(s[5:])
	return (start+1)%100 == end
}

// Seasons lists every season starting in [startYear, endYear).
func Seasons(startYear, endYear int) []string {
	var out []string
	for y := startYear; y < endYear; y++ {
		out = append(out, Label(y))
	}
	return out
}

// Experience is a rough years-in-league estimate from age.
func Experience(age float64) float64 {
	return max(age-19, 0)
}
