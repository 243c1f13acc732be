package export

import (
	"fmt"
	"io"

	parquet "github.com/parquet-go/parquet-go"

	"github.com/RMahshie/labfit/pkg/models"
)

// Row is the parquet schema of a summary record. Parameters are stored as
// two parallel lists in model order.
type Row struct {
	Sample      string    `parquet:"sample"`
	Analysis    string    `parquet:"analysis"`
	Kind        string    `parquet:"kind"`
	Model       string    `parquet:"model"`
	ParamNames  []string  `parquet:"param_names,list"`
	ParamValues []float64 `parquet:"param_values,list"`
	RSquared    *float64  `parquet:"r_squared,optional"`
	Label       string    `parquet:"label"`
	Position    float64   `parquet:"position"`
	Value       float64   `parquet:"value"`
	Prominence  float64   `parquet:"prominence"`
}

// ToRow flattens a record for parquet.
func ToRow(r models.SummaryRecord) Row {
	row := Row{
		Sample:     r.Sample,
		Analysis:   string(r.Analysis),
		Kind:       string(r.Kind),
		Model:      r.Model,
		RSquared:   r.RSquared,
		Label:      r.Label,
		Position:   r.Position,
		Value:      r.Value,
		Prominence: r.Prominence,
	}
	for _, name := range r.ParamOrder {
		row.ParamNames = append(row.ParamNames, name)
		row.ParamValues = append(row.ParamValues, r.Params[name])
	}
	return row
}

// WriteParquet writes records as one Snappy-compressed parquet file.
func WriteParquet(w io.Writer, records []models.SummaryRecord) error {
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = ToRow(r)
	}

	pw := parquet.NewGenericWriter[Row](w, parquet.Compression(&parquet.Snappy))
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads rows written by WriteParquet.
func ReadParquet(r io.ReaderAt) ([]Row, error) {
	gr := parquet.NewGenericReader[Row](r)
	defer gr.Close()

	out := make([]Row, 0, gr.NumRows())
	for {
		batch := make([]Row, 256)
		n, err := gr.Read(batch)
		if n > 0 {
			out = append(out, batch[:n]...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}
	return out, nil
}
