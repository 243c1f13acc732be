// Package loader turns uploaded two-column CSV tables into series.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/RMahshie/labfit/pkg/models"
)

// ErrMissingColumns is returned when the table has fewer than two columns.
var ErrMissingColumns = errors.New("loader: table needs at least two columns")

// Table is a parsed source with its header normalized to the series role.
type Table struct {
	Header  [2]string
	Series  models.Series
	Dropped int
}

// ReadCSV reads one series from a CSV table. The first row is a header and is
// replaced by the role's column names; only the first two columns are used.
// Rows with a missing, non-numeric or non-finite cell are dropped.
func ReadCSV(name string, role models.AxisRole, r io.Reader) (models.Series, error) {
	t, err := ReadTable(name, role, r)
	if err != nil {
		return models.Series{}, err
	}
	return t.Series, nil
}

// ReadTable is ReadCSV plus the normalized header and the number of dropped rows.
func ReadTable(name string, role models.AxisRole, r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", name, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%s: %w", name, ErrMissingColumns)
	}

	x, y := role.Columns()
	t := &Table{
		Header: [2]string{x, y},
		Series: models.Series{Name: name, Role: role},
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		p, ok := parseRow(row)
		if !ok {
			t.Dropped++
			continue
		}
		t.Series.Points = append(t.Series.Points, p)
	}

	if len(t.Series.Points) == 0 {
		return nil, fmt.Errorf("%s: %w", name, models.ErrNoValidPoints)
	}
	return t, nil
}

func parseRow(row []string) (models.Point, bool) {
	if len(row) < 2 {
		return models.Point{}, false
	}
	x, ok := parseCell(row[0])
	if !ok {
		return models.Point{}, false
	}
	y, ok := parseCell(row[1])
	if !ok {
		return models.Point{}, false
	}
	return models.Point{X: x, Y: y}, true
}

func parseCell(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// SeriesName derives a series name from an object key: the base name without
// its extension.
func SeriesName(key string) string {
	base := path.Base(key)
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
