package models

// FitResult is the outcome of fitting one model to one series
type FitResult struct {
	Series     string             `json:"series" doc:"Sample name"`
	Model      string             `json:"model" doc:"Model name"`
	Params     map[string]float64 `json:"params" doc:"Fitted parameter values"`
	ParamOrder []string           `json:"param_order" doc:"Parameter names in model order"`
	// RSquared is nil when the series is constant and R² is undefined.
	RSquared   *float64 `json:"r_squared,omitempty" doc:"Coefficient of determination"`
	Converged  bool     `json:"converged" doc:"Whether the optimizer met its tolerance"`
	Iterations int      `json:"iterations" doc:"Optimizer iterations used"`
	Curve      []Point  `json:"curve,omitempty" doc:"Fitted curve sampled across the observed x range"`
}

// Param returns a fitted value by name
func (r *FitResult) Param(name string) float64 {
	return r.Params[name]
}

// Peak is a detected local maximum
type Peak struct {
	Position   float64 `json:"position" doc:"x-axis value of the maximum"`
	Value      float64 `json:"value" doc:"y-axis value of the maximum"`
	Prominence float64 `json:"prominence" doc:"Height above the higher bounding valley"`
	Index      int     `json:"index" doc:"Index into the x-ordered signal"`
}

// PeakAssignment pairs a reference band with its nearest observed point
type PeakAssignment struct {
	Label    string  `json:"label" doc:"Reference label"`
	Target   float64 `json:"target" doc:"Reference position"`
	Position float64 `json:"position" doc:"Matched x position"`
	Value    float64 `json:"value" doc:"Matched y value"`
}

// RecordKind says which engine a summary row came from
type RecordKind string

const (
	RecordFit        RecordKind = "fit"
	RecordPeak       RecordKind = "peak"
	RecordAssignment RecordKind = "assignment"
)

// SummaryRecord is one flattened row of a run's summary table
type SummaryRecord struct {
	Sample     string             `json:"sample" doc:"Originating series name"`
	Analysis   AnalysisType       `json:"analysis" doc:"Analysis type"`
	Kind       RecordKind         `json:"kind" doc:"Record source"`
	Model      string             `json:"model,omitempty" doc:"Fitted model name"`
	Params     map[string]float64 `json:"params,omitempty" doc:"Fitted parameter values"`
	ParamOrder []string           `json:"param_order,omitempty" doc:"Parameter names in model order"`
	RSquared   *float64           `json:"r_squared,omitempty" doc:"Coefficient of determination"`
	Label      string             `json:"label,omitempty" doc:"Reference label for FTIR assignments"`
	Position   float64            `json:"position" doc:"x position of the peak or assignment"`
	Value      float64            `json:"value" doc:"y value of the peak or assignment"`
	Prominence float64            `json:"prominence,omitempty" doc:"Peak prominence"`
}

// FitRecord flattens a fit result
func FitRecord(analysis AnalysisType, r *FitResult) SummaryRecord {
	return SummaryRecord{
		Sample:     r.Series,
		Analysis:   analysis,
		Kind:       RecordFit,
		Model:      r.Model,
		Params:     r.Params,
		ParamOrder: r.ParamOrder,
		RSquared:   r.RSquared,
	}
}

// PeakRecord flattens a detected peak
func PeakRecord(sample string, p Peak) SummaryRecord {
	return SummaryRecord{
		Sample:     sample,
		Analysis:   AnalysisXRD,
		Kind:       RecordPeak,
		Position:   p.Position,
		Value:      p.Value,
		Prominence: p.Prominence,
	}
}

// AssignmentRecord flattens a reference assignment
func AssignmentRecord(sample string, a PeakAssignment) SummaryRecord {
	return SummaryRecord{
		Sample:   sample,
		Analysis: AnalysisFTIR,
		Kind:     RecordAssignment,
		Label:    a.Label,
		Position: a.Position,
		Value:    a.Value,
	}
}
