// Package render plans the figures of a run. It assigns colors and offsets
// and samples fitted curves; drawing is left to the client.
package render

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/RMahshie/labfit/internal/catalog"
	"github.com/RMahshie/labfit/pkg/models"
)

// Composite offset steps per series index.
const (
	XRDOffsetStep  = 1000.0
	FTIROffsetStep = -20.0

	DefaultCurveSamples = 200
)

var (
	xrdPalette  = []string{"red", "blue", "green", "purple", "orange"}
	ftirPalette = []string{"blue", "green", "red", "purple", "orange", "brown", "pink", "cyan", "magenta", "yellow"}
)

// PlotContext maps series index to color and composite offset for one run.
type PlotContext struct {
	analysis models.AnalysisType
	names    []string
	palette  []string
	step     float64
}

// NewPlotContext builds the context for the series names, in run order.
// Fit analyses overlay their series without an offset.
func NewPlotContext(analysis models.AnalysisType, names []string) *PlotContext {
	c := &PlotContext{
		analysis: analysis,
		names:    append([]string(nil), names...),
		palette:  xrdPalette,
	}
	switch analysis {
	case models.AnalysisXRD:
		c.step = XRDOffsetStep
	case models.AnalysisFTIR:
		c.palette = ftirPalette
		c.step = FTIROffsetStep
	}
	return c
}

// Color returns the trace color of series i, cycling through the palette.
func (c *PlotContext) Color(i int) string {
	return c.palette[i%len(c.palette)]
}

// Offset returns the composite vertical offset of series i.
func (c *PlotContext) Offset(i int) float64 {
	return float64(i) * c.step
}

// Artifacts lists one figure per series followed by the composite.
func (c *PlotContext) Artifacts() []models.Artifact {
	out := make([]models.Artifact, 0, len(c.names)+1)
	for i, name := range c.names {
		out = append(out, models.Artifact{
			Name:   ArtifactName(c.analysis, name),
			Sample: name,
			Color:  c.Color(i),
			Offset: c.Offset(i),
		})
	}
	return append(out, models.Artifact{
		Name:      CompositeName(c.analysis),
		Composite: true,
	})
}

// Overlay shifts every series by its offset. Series must be in run order.
func (c *PlotContext) Overlay(series []models.Series) []models.Trace {
	traces := make([]models.Trace, len(series))
	for i, s := range series {
		xs, ys := s.XY()
		off := c.Offset(i)
		floats.AddConst(off, ys)

		pts := make([]models.Point, len(xs))
		for j := range xs {
			pts[j] = models.Point{X: xs[j], Y: ys[j]}
		}
		traces[i] = models.Trace{Name: s.Name, Color: c.Color(i), Offset: off, Points: pts}
	}
	return traces
}

// ArtifactName is <Category>_<Kind>_<series>, e.g. XRD_Pattern_Sample1.
func ArtifactName(analysis models.AnalysisType, series string) string {
	return fmt.Sprintf("%s_%s_%s", analysis.Category(), analysis.ArtifactKind(), series)
}

// CompositeName names the all-series figure of a run.
func CompositeName(analysis models.AnalysisType) string {
	return ArtifactName(analysis, "All_Samples_with_Offset")
}

// Curve samples a fitted model at n evenly spaced points across the range of xs.
func Curve(spec catalog.ModelSpec, params map[string]float64, xs []float64, n int) ([]models.Point, error) {
	if len(xs) == 0 || n < 1 {
		return nil, nil
	}
	p := make([]float64, spec.Arity())
	for i, name := range spec.Params {
		v, ok := params[name]
		if !ok {
			return nil, fmt.Errorf("missing parameter %q for %s", name, spec.Name)
		}
		p[i] = v
	}

	lo, hi := floats.Min(xs), floats.Max(xs)
	if lo == hi || n == 1 {
		return []models.Point{{X: lo, Y: spec.Formula(lo, p)}}, nil
	}
	grid := floats.Span(make([]float64, n), lo, hi)
	ys := spec.Eval(grid, p)

	out := make([]models.Point, n)
	for i := range grid {
		out[i] = models.Point{X: grid[i], Y: ys[i]}
	}
	return out, nil
}

// AttachCurves sets Curve on each fit, sampled over the x range of its
// series. Fits whose series or model is not known keep a nil curve.
func AttachCurves(fits []models.FitResult, series []models.Series, n int) {
	xsByName := make(map[string][]float64, len(series))
	for _, s := range series {
		xs, _ := s.XY()
		xsByName[s.Name] = xs
	}
	for i := range fits {
		xs, ok := xsByName[fits[i].Series]
		if !ok {
			continue
		}
		kind, err := catalog.ParseKind(fits[i].Model)
		if err != nil {
			continue
		}
		curve, err := Curve(catalog.MustLookup(kind), fits[i].Params, xs, n)
		if err != nil {
			continue
		}
		fits[i].Curve = curve
	}
}
