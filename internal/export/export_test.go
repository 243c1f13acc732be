package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/labfit/internal/aggregate"
	"github.com/RMahshie/labfit/pkg/models"
)

func ptr(v float64) *float64 { return &v }

func fitRecords() []models.SummaryRecord {
	return []models.SummaryRecord{
		{
			Sample: "S1", Analysis: models.AnalysisKinetics, Kind: models.RecordFit,
			Model: "Pseudo First Order", Params: map[string]float64{"qe": 50, "k1": 0.2},
			ParamOrder: []string{"qe", "k1"}, RSquared: ptr(0.99),
		},
		{
			Sample: "S1", Analysis: models.AnalysisKinetics, Kind: models.RecordFit,
			Model: "Pseudo Second Order", Params: map[string]float64{"qe": 55, "k2": 0.004},
			ParamOrder: []string{"qe", "k2"},
		},
	}
}

func TestWriteCSV_Fits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, models.AnalysisKinetics, fitRecords()))

	want := "Sheet,Model,qe,k1,k2,R^2\n" +
		"S1,Pseudo First Order,50,0.2,,0.99\n" +
		"S1,Pseudo Second Order,55,,0.004,\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_XRD(t *testing.T) {
	records := []models.SummaryRecord{
		models.PeakRecord("A", models.Peak{Position: 26.6, Value: 900, Prominence: 850}),
		models.PeakRecord("B", models.Peak{Position: 21, Value: 300, Prominence: 120.5}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, models.AnalysisXRD, records))

	want := "Sample,2Theta,Intensity,Prominence\n" +
		"A,26.6,900,850\n" +
		"B,21,300,120.5\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_FTIR(t *testing.T) {
	records := []models.SummaryRecord{
		models.AssignmentRecord("A", models.PeakAssignment{Label: "C=O Stretch (Carbonyl)", Target: 1700, Position: 1701.5, Value: 62}),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, models.AnalysisFTIR, records))

	want := "Sample,Label,Wavenumber,Transmittance\n" +
		"A,C=O Stretch (Carbonyl),1701.5,62\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, models.AnalysisIsotherm, nil))
	assert.Equal(t, "Sheet,Model,R^2\n", buf.String())
}

func TestWriteParquet_RoundTrip(t *testing.T) {
	records := fitRecords()

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, records))

	rows, err := ReadParquet(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "S1", rows[0].Sample)
	assert.Equal(t, "kinetics", rows[0].Analysis)
	assert.Equal(t, []string{"qe", "k1"}, rows[0].ParamNames)
	assert.Equal(t, []float64{50, 0.2}, rows[0].ParamValues)
	require.NotNil(t, rows[0].RSquared)
	assert.Equal(t, 0.99, *rows[0].RSquared)
	assert.Nil(t, rows[1].RSquared)
}

func TestTables(t *testing.T) {
	records := []models.SummaryRecord{
		models.PeakRecord("A", models.Peak{Value: 9}),
		models.PeakRecord("A", models.Peak{Value: 5}),
		models.PeakRecord("B", models.Peak{Value: 3}),
	}

	tables := Tables(models.AnalysisXRD, records, records)
	require.Len(t, tables, 3)
	assert.Equal(t, "XRD_Peak_Summary", tables[0].Name)
	assert.Len(t, tables[0].Records, 3)
	assert.Equal(t, "Peak_Details_A", tables[1].Name)
	assert.Len(t, tables[1].Records, 2)
	assert.Equal(t, "Peak_Details_B", tables[2].Name)

	fits := Tables(models.AnalysisKinetics, fitRecords(), fitRecords())
	require.Len(t, fits, 1)
	assert.Equal(t, "Kinetic_Fit_Summary", fits[0].Name)
}

func TestTables_FTIRDetailsKeepBandOrder(t *testing.T) {
	details := []models.SummaryRecord{
		models.AssignmentRecord("A", models.PeakAssignment{Label: "O-H", Position: 3400, Value: 34}),
		models.AssignmentRecord("A", models.PeakAssignment{Label: "C=O", Position: 1700, Value: 80}),
		models.AssignmentRecord("B", models.PeakAssignment{Label: "O-H", Position: 3400, Value: 50}),
		models.AssignmentRecord("B", models.PeakAssignment{Label: "C=O", Position: 1700, Value: 20}),
	}
	summary := append([]models.SummaryRecord(nil), details...)
	aggregate.SortBySampleValue(summary)

	tables := Tables(models.AnalysisFTIR, summary, details)
	require.Len(t, tables, 3)
	assert.Equal(t, "C=O", tables[0].Records[0].Label, "summary is value sorted")

	assert.Equal(t, "Peak_Details_A", tables[1].Name)
	assert.Equal(t, []string{"O-H", "C=O"}, []string{tables[1].Records[0].Label, tables[1].Records[1].Label})
	assert.Equal(t, "Peak_Details_B", tables[2].Name)
	assert.Equal(t, []string{"O-H", "C=O"}, []string{tables[2].Records[0].Label, tables[2].Records[1].Label})
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
	assert.Equal(t, "text/csv", f.ContentType())

	f, err = ParseFormat("parquet")
	require.NoError(t, err)
	assert.Equal(t, ".parquet", f.Ext())
	assert.Equal(t, "application/parquet", f.ContentType())

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
