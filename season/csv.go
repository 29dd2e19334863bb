package season

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// WriteCSV writes recs under Header(). Missing cells are empty.
func WriteCSV(w io.Writer, recs []*Record) error {
	header := Header()
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for _, r := range recs {
		for i, col := range header {
			row[i] = r.cell(col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing %s: %w", r.Key(), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (r *Record) cell(col string) string {
	switch col {
	case ColPlayerID:
		return strconv.FormatInt(r.PlayerID, 10)
	case ColPlayerName:
		return r.PlayerName
	case ColTeam:
		return r.Team
	case ColSeason:
		return r.Season
	}
	v := r.Get(col)
	if !v.Valid {
		return ""
	}
	return strconv.FormatFloat(v.Float, 'f', -1, 64)
}

// ReadCSV parses a file written by WriteCSV. Columns may come in any order;
// unknown columns are ignored.
func ReadCSV(rd io.Reader) ([]*Record, error) {
	cr := csv.NewReader(rd)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{ColPlayerID, ColSeason} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("missing required column %s", required)
		}
	}
	numeric := NumericColumns()

	var recs []*Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		id, err := strconv.ParseInt(row[idx[ColPlayerID]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad %s: %w", line, ColPlayerID, err)
		}
		r := NewRecord(id, row[idx[ColSeason]])
		if i, ok := idx[ColPlayerName]; ok {
			r.PlayerName = row[i]
		}
		if i, ok := idx[ColTeam]; ok {
			r.Team = row[i]
		}
		for _, col := range numeric {
			i, ok := idx[col]
			if !ok || row[i] == "" {
				continue
			}
			f, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: bad %s %q: %w", line, col, row[i], err)
			}
			r.SetFloat(col, f)
		}
		recs = append(recs, r)
	}
	return recs, nil
}

// ReadFile loads a CSV from path. A missing file surfaces os.ErrNotExist.
func ReadFile(path string) ([]*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	recs, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// WriteFile replaces path with recs. The file is written to a temp sibling
// first, so an interrupted write leaves the old contents intact.
func WriteFile(path string, recs []*Record) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, recs); err != nil {
		tmp.Close()
		return err
	}
	// CreateTemp makes the file owner-only
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
