package collector

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"nba-breakout/season"
)

// Drop reasons, also the label values of the rows-dropped counter.
const (
	dropMinutes   = "minutes"
	dropNoMetrics = "no_metrics"
	dropDuplicate = "duplicate"
	dropInvalid   = "invalid"
)

type rowCheck struct {
	PlayerID int64   `validate:"gt=0"`
	Season   string  `validate:"required,season"`
	Games    float64 `validate:"gte=0"`
	Minutes  float64 `validate:"gte=0"`
	Metric   float64
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("season", func(fl validator.FieldLevel) bool {
		return season.ValidLabel(fl.Field().String())
	})
	return v
}

// merge inner-joins the two provider tables on PLAYER_ID and keeps players
// with at least MinMinutes total minutes.
func (c *Collector) merge(s string, league, est Frame) []*season.Record {
	estIdx := est.index()
	estRows := make(map[int64]frameRow, len(est.Rows))
	for _, cells := range est.Rows {
		row := frameRow{cells: cells, idx: estIdx}
		id, ok := row.float(season.ColPlayerID)
		if !ok {
			continue
		}
		if _, dup := estRows[int64(id)]; !dup {
			estRows[int64(id)] = row
		}
	}

	dropped := map[string]int{}
	seen := make(map[int64]bool, len(league.Rows))
	leagueIdx := league.index()
	var out []*season.Record

	for _, cells := range league.Rows {
		row := frameRow{cells: cells, idx: leagueIdx}
		idf, _ := row.float(season.ColPlayerID)
		id := int64(idf)

		mpg, _ := row.float("MIN")
		gp, _ := row.float("GP")
		if mpg*gp < c.cfg.MinMinutes {
			dropped[dropMinutes]++
			continue
		}
		if seen[id] {
			dropped[dropDuplicate]++
			continue
		}
		metricsRow, ok := estRows[id]
		if !ok {
			dropped[dropNoMetrics]++
			continue
		}

		r := season.NewRecord(id, s)
		r.PlayerName = row.text(season.ColPlayerName)
		r.Team = row.text(season.ColTeam)
		for _, col := range season.LeagueStats {
			if f, ok := row.float(col); ok {
				r.SetFloat(col, f)
			}
		}
		for _, col := range season.EstimatedMetrics {
			if f, ok := metricsRow.float(col); ok {
				r.SetFloat(col, f)
			}
		}
		if age := r.Get(season.ColAge); age.Valid {
			r.SetFloat(season.ColExperience, season.Experience(age.Float))
		}

		if err := c.check(r); err != nil {
			c.log.Debug("dropping invalid row", "season", s, "player_id", id, "error", err)
			dropped[dropInvalid]++
			continue
		}
		seen[id] = true
		out = append(out, r)
	}

	for reason, n := range dropped {
		c.metrics.RowsDropped.WithLabelValues(reason).Add(float64(n))
	}
	if len(dropped) > 0 {
		c.log.Info("rows dropped", "season", s,
			"minutes", dropped[dropMinutes], "no_metrics", dropped[dropNoMetrics],
			"duplicate", dropped[dropDuplicate], "invalid", dropped[dropInvalid])
	}
	return out
}

func (c *Collector) check(r *season.Record) error {
	metric := r.Get(c.cfg.Metric)
	if !metric.Valid {
		return fmt.Errorf("missing %s", c.cfg.Metric)
	}
	rc := rowCheck{
		PlayerID: r.PlayerID,
		Season:   r.Season,
		Games:    r.Get("GP").Float,
		Minutes:  r.Get("MIN").Float,
		Metric:   metric.Float,
	}
	if err := c.validate.Struct(rc); err != nil {
		return err
	}
	bounds := fmt.Sprintf("gte=%g,lte=%g", c.cfg.MetricMin, c.cfg.MetricMax)
	if err := c.validate.Var(rc.Metric, bounds); err != nil {
		return fmt.Errorf("%s %g outside [%g, %g]: %w",
			c.cfg.Metric, rc.Metric, c.cfg.MetricMin, c.cfg.MetricMax, err)
	}
	return nil
}
