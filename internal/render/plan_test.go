package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/labfit/internal/catalog"
	"github.com/RMahshie/labfit/pkg/models"
)

func TestArtifactNames(t *testing.T) {
	tests := []struct {
		analysis  models.AnalysisType
		single    string
		composite string
	}{
		{models.AnalysisKinetics, "Kinetic_Fit_S1", "Kinetic_Fit_All_Samples_with_Offset"},
		{models.AnalysisIsotherm, "Isotherm_Fit_S1", "Isotherm_Fit_All_Samples_with_Offset"},
		{models.AnalysisFTIR, "FTIR_Spectrum_S1", "FTIR_Spectrum_All_Samples_with_Offset"},
		{models.AnalysisXRD, "XRD_Pattern_S1", "XRD_Pattern_All_Samples_with_Offset"},
	}

	for _, tt := range tests {
		t.Run(string(tt.analysis), func(t *testing.T) {
			assert.Equal(t, tt.single, ArtifactName(tt.analysis, "S1"))
			assert.Equal(t, tt.composite, CompositeName(tt.analysis))
		})
	}
}

func TestPlotContext_XRD(t *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	c := NewPlotContext(models.AnalysisXRD, names)

	assert.Equal(t, "red", c.Color(0))
	assert.Equal(t, "orange", c.Color(4))
	assert.Equal(t, "red", c.Color(5), "palette cycles")
	assert.Equal(t, 0.0, c.Offset(0))
	assert.Equal(t, 3000.0, c.Offset(3))

	arts := c.Artifacts()
	require.Len(t, arts, len(names)+1)
	assert.Equal(t, models.Artifact{Name: "XRD_Pattern_b", Sample: "b", Color: "blue", Offset: 1000}, arts[1])
	assert.True(t, arts[len(arts)-1].Composite)
	assert.Equal(t, "XRD_Pattern_All_Samples_with_Offset", arts[len(arts)-1].Name)
}

func TestPlotContext_FTIR(t *testing.T) {
	c := NewPlotContext(models.AnalysisFTIR, []string{"x", "y"})

	assert.Equal(t, "blue", c.Color(0))
	assert.Equal(t, "yellow", c.Color(9))
	assert.Equal(t, -20.0, c.Offset(1))
}

func TestPlotContext_FitHasNoOffset(t *testing.T) {
	c := NewPlotContext(models.AnalysisKinetics, []string{"x", "y"})
	assert.Equal(t, 0.0, c.Offset(1))
}

func TestPlotContext_Deterministic(t *testing.T) {
	names := []string{"s1", "s2", "s3"}
	a := NewPlotContext(models.AnalysisFTIR, names).Artifacts()
	b := NewPlotContext(models.AnalysisFTIR, names).Artifacts()
	assert.Equal(t, a, b)
}

func TestOverlay(t *testing.T) {
	series := []models.Series{
		{Name: "a", Points: []models.Point{{X: 10, Y: 5}, {X: 11, Y: 6}}},
		{Name: "b", Points: []models.Point{{X: 10, Y: 7}}},
	}
	c := NewPlotContext(models.AnalysisXRD, []string{"a", "b"})

	traces := c.Overlay(series)
	require.Len(t, traces, 2)
	assert.Equal(t, []models.Point{{X: 10, Y: 5}, {X: 11, Y: 6}}, traces[0].Points)
	assert.Equal(t, []models.Point{{X: 10, Y: 1007}}, traces[1].Points)
	assert.Equal(t, "blue", traces[1].Color)

	// Input series are untouched.
	assert.Equal(t, 7.0, series[1].Points[0].Y)
}

func TestCurve(t *testing.T) {
	spec := catalog.MustLookup(catalog.PseudoFirstOrder)
	params := map[string]float64{"qe": 50, "k1": 0.2}

	pts, err := Curve(spec, params, []float64{20, 0, 10}, 5)
	require.NoError(t, err)
	require.Len(t, pts, 5)

	assert.Equal(t, 0.0, pts[0].X)
	assert.Equal(t, 20.0, pts[4].X)
	assert.InDelta(t, 0.0, pts[0].Y, 1e-12)
	assert.InDelta(t, spec.Formula(5, []float64{50, 0.2}), pts[1].Y, 1e-12)
}

func TestCurve_Edges(t *testing.T) {
	spec := catalog.MustLookup(catalog.Langmuir)

	pts, err := Curve(spec, map[string]float64{"qm": 1, "kL": 1}, nil, 10)
	require.NoError(t, err)
	assert.Empty(t, pts)

	pts, err = Curve(spec, map[string]float64{"qm": 1, "kL": 1}, []float64{2, 2}, 10)
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.InDelta(t, 2.0/3.0, pts[0].Y, 1e-12)

	_, err = Curve(spec, map[string]float64{"qm": 1}, []float64{1, 2}, 10)
	assert.Error(t, err)
}

func TestAttachCurves(t *testing.T) {
	series := []models.Series{{Name: "S1", Points: []models.Point{{X: 0, Y: 0}, {X: 10, Y: 43}, {X: 20, Y: 49}}}}
	fits := []models.FitResult{
		{Series: "S1", Model: "Pseudo First Order", Params: map[string]float64{"qe": 50, "k1": 0.2}},
		{Series: "S1", Model: "Elovich", Params: map[string]float64{"a": 1}},
		{Series: "missing", Model: "Pseudo First Order", Params: map[string]float64{"qe": 50, "k1": 0.2}},
	}

	AttachCurves(fits, series, 5)

	require.Len(t, fits[0].Curve, 5)
	assert.Equal(t, 0.0, fits[0].Curve[0].X)
	assert.Equal(t, 20.0, fits[0].Curve[4].X)
	assert.InDelta(t, 50*(1-math.Exp(-4)), fits[0].Curve[4].Y, 1e-9)
	assert.Nil(t, fits[1].Curve)
	assert.Nil(t, fits[2].Curve)
}
