package models

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoValidPoints is returned when a series has nothing left after cleaning.
var ErrNoValidPoints = errors.New("series has no valid points")

// AnalysisType selects which analysis path a run takes
type AnalysisType string

const (
	AnalysisKinetics AnalysisType = "kinetics"
	AnalysisIsotherm AnalysisType = "isotherm"
	AnalysisFTIR     AnalysisType = "ftir"
	AnalysisXRD      AnalysisType = "xrd"
)

// AnalysisTypes lists every supported analysis type
var AnalysisTypes = []AnalysisType{AnalysisKinetics, AnalysisIsotherm, AnalysisFTIR, AnalysisXRD}

// ParseAnalysisType validates a user-supplied analysis type
func ParseAnalysisType(s string) (AnalysisType, error) {
	for _, t := range AnalysisTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown analysis type: %q", s)
}

// Role returns the semantic meaning of the series axes for this analysis
func (t AnalysisType) Role() AxisRole {
	switch t {
	case AnalysisKinetics:
		return RoleTimeQuantity
	case AnalysisIsotherm:
		return RoleConcentrationQuantity
	case AnalysisFTIR:
		return RoleWavenumberTransmittance
	case AnalysisXRD:
		return RoleAngleIntensity
	}
	return ""
}

// IsFit reports whether the analysis fits models rather than extracting peaks
func (t AnalysisType) IsFit() bool {
	return t == AnalysisKinetics || t == AnalysisIsotherm
}

// Category is the artifact category prefix (e.g. "XRD" in XRD_Pattern_<sample>)
func (t AnalysisType) Category() string {
	switch t {
	case AnalysisKinetics:
		return "Kinetic"
	case AnalysisIsotherm:
		return "Isotherm"
	case AnalysisFTIR:
		return "FTIR"
	case AnalysisXRD:
		return "XRD"
	}
	return ""
}

// ArtifactKind is the artifact kind infix (e.g. "Pattern" in XRD_Pattern_<sample>)
func (t AnalysisType) ArtifactKind() string {
	switch t {
	case AnalysisKinetics, AnalysisIsotherm:
		return "Fit"
	case AnalysisFTIR:
		return "Spectrum"
	case AnalysisXRD:
		return "Pattern"
	}
	return ""
}

// AxisRole names the two columns of a series
type AxisRole string

const (
	RoleTimeQuantity            AxisRole = "time/quantity"
	RoleConcentrationQuantity   AxisRole = "concentration/quantity"
	RoleWavenumberTransmittance AxisRole = "wavenumber/transmittance"
	RoleAngleIntensity          AxisRole = "angle/intensity"
)

// Columns returns the normalized column headers for the role
func (r AxisRole) Columns() (x, y string) {
	switch r {
	case RoleTimeQuantity:
		return "time(min)", "qt(mg/g)"
	case RoleConcentrationQuantity:
		return "Ce(mg/L)", "qe(mg/g)"
	case RoleWavenumberTransmittance:
		return "Wavenumber(cm-1)", "Transmittance(%)"
	case RoleAngleIntensity:
		return "2Theta", "Intensity"
	}
	return "x", "y"
}

// Point is a single (x, y) observation
type Point struct {
	X float64 `json:"x" doc:"Independent variable"`
	Y float64 `json:"y" doc:"Observed response"`
}

// Series is one named, cleaned experimental series
type Series struct {
	Name   string   `json:"name" minLength:"1" doc:"Sample name"`
	Role   AxisRole `json:"role,omitempty" doc:"Semantic meaning of the axes"`
	Points []Point  `json:"points" doc:"Observations, in stored order"`
}

// Validate checks the series is usable for processing
func (s Series) Validate() error {
	if len(s.Points) == 0 {
		return fmt.Errorf("%s: %w", s.Name, ErrNoValidPoints)
	}
	for i, p := range s.Points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			return fmt.Errorf("%s: non-finite value at row %d", s.Name, i)
		}
	}
	return nil
}

// XY splits the series into parallel x and y slices
func (s Series) XY() (xs, ys []float64) {
	xs = make([]float64, len(s.Points))
	ys = make([]float64, len(s.Points))
	for i, p := range s.Points {
		xs[i] = p.X
		ys[i] = p.Y
	}
	return xs, ys
}

// MaxY returns the largest response, or 0 for an empty series
func (s Series) MaxY() float64 {
	if len(s.Points) == 0 {
		return 0
	}
	m := s.Points[0].Y
	for _, p := range s.Points[1:] {
		if p.Y > m {
			m = p.Y
		}
	}
	return m
}

// SortedByX returns a copy ordered by x ascending. Equal x keep stored order.
func (s Series) SortedByX() []Point {
	out := append([]Point(nil), s.Points...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].X < out[j].X })
	return out
}

// SortedByXDesc returns a copy ordered by x descending. Equal x keep stored order.
func (s Series) SortedByXDesc() []Point {
	out := append([]Point(nil), s.Points...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].X > out[j].X })
	return out
}
