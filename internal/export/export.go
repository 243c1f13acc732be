// Package export writes run summaries as CSV or parquet tables.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/RMahshie/labfit/internal/aggregate"
	"github.com/RMahshie/labfit/pkg/models"
)

// Format is a table encoding.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat validates a format name. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatParquet:
		return FormatParquet, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", s)
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the MIME type used when storing the table.
func (f Format) ContentType() string {
	if f == FormatParquet {
		return "application/parquet"
	}
	return "text/csv"
}

// Table is one named output table.
type Table struct {
	Name    string
	Records []models.SummaryRecord
}

// SummaryName names the run-wide table, e.g. XRD_Peak_Summary.
func SummaryName(analysis models.AnalysisType) string {
	if analysis.IsFit() {
		return analysis.Category() + "_Fit_Summary"
	}
	return analysis.Category() + "_Peak_Summary"
}

// DetailName names a per-sample peak table.
func DetailName(sample string) string {
	return "Peak_Details_" + sample
}

// Tables splits a run into its summary table and, for peak analyses, one
// detail table per sample. The summary always comes first. Detail tables are
// grouped from details and keep their row order, so FTIR details list bands
// in reference order.
func Tables(analysis models.AnalysisType, records, details []models.SummaryRecord) []Table {
	tables := []Table{{Name: SummaryName(analysis), Records: records}}
	if analysis.IsFit() {
		return tables
	}
	samples, groups := aggregate.GroupBySample(details)
	for _, s := range samples {
		tables = append(tables, Table{Name: DetailName(s), Records: groups[s]})
	}
	return tables
}

// Write encodes records in the given format.
func Write(w io.Writer, format Format, analysis models.AnalysisType, records []models.SummaryRecord) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, analysis, records)
	case FormatParquet:
		return WriteParquet(w, records)
	}
	return fmt.Errorf("unsupported export format: %q", format)
}

// WriteCSV writes records with the column layout of the analysis type.
func WriteCSV(w io.Writer, analysis models.AnalysisType, records []models.SummaryRecord) error {
	header, rows := Rows(analysis, records)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write rows: %w", err)
	}
	return nil
}

// Rows renders records as string cells.
//
// Fits: Sheet, Model, every parameter in first-seen order, R^2. Parameters a
// model does not have and undefined R² are left empty.
// FTIR: Sample, Label, Wavenumber, Transmittance.
// XRD: Sample, 2Theta, Intensity, Prominence.
func Rows(analysis models.AnalysisType, records []models.SummaryRecord) ([]string, [][]string) {
	switch analysis {
	case models.AnalysisFTIR:
		rows := make([][]string, len(records))
		for i, r := range records {
			rows[i] = []string{r.Sample, r.Label, num(r.Position), num(r.Value)}
		}
		return []string{"Sample", "Label", "Wavenumber", "Transmittance"}, rows
	case models.AnalysisXRD:
		rows := make([][]string, len(records))
		for i, r := range records {
			rows[i] = []string{r.Sample, num(r.Position), num(r.Value), num(r.Prominence)}
		}
		return []string{"Sample", "2Theta", "Intensity", "Prominence"}, rows
	}
	return fitRows(records)
}

func fitRows(records []models.SummaryRecord) ([]string, [][]string) {
	var params []string
	seen := make(map[string]bool)
	for _, r := range records {
		for _, p := range r.ParamOrder {
			if !seen[p] {
				seen[p] = true
				params = append(params, p)
			}
		}
	}

	header := append([]string{"Sheet", "Model"}, params...)
	header = append(header, "R^2")

	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, 0, len(header))
		row = append(row, r.Sample, r.Model)
		for _, p := range params {
			if v, ok := r.Params[p]; ok {
				row = append(row, num(v))
			} else {
				row = append(row, "")
			}
		}
		if r.RSquared != nil {
			row = append(row, num(*r.RSquared))
		} else {
			row = append(row, "")
		}
		rows[i] = row
	}
	return header, rows
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
