// Package season holds the player-season record shared by every stage of the
// dataset build, plus its CSV layout.
package season

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrDuplicateKey is returned when two records share a (player, season) key.
var ErrDuplicateKey = errors.New("duplicate player-season key")

// Value is a numeric cell. The zero Value is missing.
type Value struct {
	Float float64
	Valid bool
}

// Missing is the empty cell.
var Missing = Value{}

// Float wraps f, treating NaN and ±Inf as missing.
func Float(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Missing
	}
	return Value{Float: f, Valid: true}
}

type Key struct {
	PlayerID int64
	Season   string
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%s", k.PlayerID, k.Season)
}

// Record is one row per (player, season) that met the playing-time threshold.
type Record struct {
	PlayerID   int64
	PlayerName string
	Team       string
	Season     string

	values map[string]Value
}

func NewRecord(playerID int64, season string) *Record {
	return &Record{
		PlayerID: playerID,
		Season:   season,
		values:   make(map[string]Value),
	}
}

func (r *Record) Key() Key {
	return Key{PlayerID: r.PlayerID, Season: r.Season}
}

func (r *Record) Get(col string) Value {
	return r.values[col]
}

func (r *Record) Set(col string, v Value) {
	if r.values == nil {
		r.values = make(map[string]Value)
	}
	if !v.Valid {
		delete(r.values, col)
		return
	}
	r.values[col] = v
}

func (r *Record) SetFloat(col string, f float64) {
	r.Set(col, Float(f))
}

// Sort orders records by player id, then season.
func Sort(recs []*Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].PlayerID != recs[j].PlayerID {
			return recs[i].PlayerID < recs[j].PlayerID
		}
		return recs[i].Season < recs[j].Season
	})
}

// CheckUnique reports the first repeated key.
func CheckUnique(recs []*Record) error {
	seen := make(map[Key]struct{}, len(recs))
	for _, r := range recs {
		k := r.Key()
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateKey, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// SeasonsIn returns the set of seasons present in recs.
func SeasonsIn(recs []*Record) map[string]bool {
	out := make(map[string]bool)
	for _, r := range recs {
		out[r.Season] = true
	}
	return out
}
