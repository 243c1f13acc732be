// Package aggregate merges per-series outcomes into one ordered summary.
//
// An Aggregator is owned by a single collector: outcomes are added after all
// per-series work has finished, in series order, so no locking is needed.
package aggregate

import (
	"sort"

	"github.com/RMahshie/labfit/pkg/models"
)

// Status tells whether a run produced anything usable.
type Status string

const (
	StatusOK        Status = "ok"
	StatusNoResults Status = "no_results"
)

// Outcome is everything one series produced. Failed units appear only in Failures.
type Outcome struct {
	Series      string
	Fits        []*models.FitResult
	Peaks       []models.Peak
	Assignments []models.PeakAssignment
	Failures    []models.UnitFailure
}

// Summary is the final aggregate for one run.
type Summary struct {
	Analysis    models.AnalysisType
	Status      Status
	SeriesCount int
	Fits        []models.FitResult
	Records     []models.SummaryRecord
	// Details holds the same rows in processing order: series order, then
	// the order each engine produced them.
	Details  []models.SummaryRecord
	Failures []models.UnitFailure
}

// Empty reports the no-valid-results condition.
func (s *Summary) Empty() bool {
	return s.Status == StatusNoResults
}

// Aggregator accumulates outcomes for one analysis type.
type Aggregator struct {
	analysis models.AnalysisType
	series   int
	fits     []models.FitResult
	records  []models.SummaryRecord
	failures []models.UnitFailure
}

// New creates an aggregator for the analysis type.
func New(analysis models.AnalysisType) *Aggregator {
	return &Aggregator{analysis: analysis}
}

// Add appends one series outcome. Call in series order.
func (a *Aggregator) Add(o Outcome) {
	a.series++
	a.failures = append(a.failures, o.Failures...)

	switch a.analysis {
	case models.AnalysisKinetics, models.AnalysisIsotherm:
		for _, f := range o.Fits {
			if f == nil {
				continue
			}
			a.fits = append(a.fits, *f)
			a.records = append(a.records, models.FitRecord(a.analysis, f))
		}
	case models.AnalysisFTIR:
		for _, pa := range o.Assignments {
			a.records = append(a.records, models.AssignmentRecord(o.Series, pa))
		}
	case models.AnalysisXRD:
		for _, p := range o.Peaks {
			a.records = append(a.records, models.PeakRecord(o.Series, p))
		}
	}
}

// Summary returns the ordered aggregate. Fit rows keep processing order;
// peak and assignment rows are sorted by sample ascending, then value
// descending, keeping insertion order among equals.
func (a *Aggregator) Summary() *Summary {
	records := append([]models.SummaryRecord(nil), a.records...)
	if !a.analysis.IsFit() {
		SortBySampleValue(records)
	}

	s := &Summary{
		Analysis:    a.analysis,
		Status:      StatusOK,
		SeriesCount: a.series,
		Fits:        append([]models.FitResult(nil), a.fits...),
		Records:     records,
		Details:     append([]models.SummaryRecord(nil), a.records...),
		Failures:    append([]models.UnitFailure(nil), a.failures...),
	}
	if len(records) == 0 {
		s.Status = StatusNoResults
	}
	return s
}

// Collect aggregates a complete, ordered list of outcomes.
func Collect(analysis models.AnalysisType, outcomes []Outcome) *Summary {
	a := New(analysis)
	for _, o := range outcomes {
		a.Add(o)
	}
	return a.Summary()
}

// SortBySampleValue orders rows by sample ascending and value descending, stably.
func SortBySampleValue(records []models.SummaryRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Sample != records[j].Sample {
			return records[i].Sample < records[j].Sample
		}
		return records[i].Value > records[j].Value
	})
}

// GroupBySample splits rows into per-sample tables, in order of first appearance.
func GroupBySample(records []models.SummaryRecord) (samples []string, groups map[string][]models.SummaryRecord) {
	groups = make(map[string][]models.SummaryRecord)
	for _, r := range records {
		if _, ok := groups[r.Sample]; !ok {
			samples = append(samples, r.Sample)
		}
		groups[r.Sample] = append(groups[r.Sample], r)
	}
	return samples, groups
}
