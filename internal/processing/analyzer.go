package processing

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/RMahshie/labfit/internal/aggregate"
	"github.com/RMahshie/labfit/internal/catalog"
	"github.com/RMahshie/labfit/internal/peaks"
	"github.com/RMahshie/labfit/pkg/models"
)

// Fitter fits one catalog model to one series
type Fitter interface {
	Fit(spec catalog.ModelSpec, s models.Series) (*models.FitResult, error)
}

// AnalyzerConfig holds the batch settings
type AnalyzerConfig struct {
	Workers             int
	ProminenceThreshold float64
	MaxPeaks            int
	References          []peaks.Reference
}

// Analyzer runs one analysis over a batch of series
type Analyzer struct {
	fitter Fitter
	cfg    AnalyzerConfig
}

// NewAnalyzer creates an analyzer. Workers <= 0 means one per CPU; nil
// references mean the standard FTIR bands.
func NewAnalyzer(fitter Fitter, cfg AnalyzerConfig) *Analyzer {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.References == nil {
		cfg.References = peaks.FTIRReferences()
	}
	return &Analyzer{fitter: fitter, cfg: cfg}
}

// Run analyzes every series and aggregates the outcomes.
//
// Series are processed concurrently on a bounded pool; each task writes only
// its own outcome slot and failures stay inside that outcome. Outcomes are
// aggregated in input order after every task has finished. Cancelling ctx
// stops scheduling new series and returns the context error.
func (a *Analyzer) Run(ctx context.Context, analysis models.AnalysisType, series []models.Series, opts models.RunOptions) (*aggregate.Summary, error) {
	kinds, err := catalog.Select(analysis, opts.Models)
	if err != nil {
		return nil, err
	}
	detector := a.detector(opts)

	log.Info().
		Str("analysis", string(analysis)).
		Int("series", len(series)).
		Int("workers", a.cfg.Workers).
		Msg("Starting batch analysis")

	outcomes := make([]aggregate.Outcome, len(series))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Workers)

	for i := range series {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			outcomes[i] = a.analyzeSeries(analysis, kinds, detector, series[i])
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Str("analysis", string(analysis)).Msg("Batch analysis aborted")
		return nil, fmt.Errorf("analysis aborted: %w", err)
	}

	collector := aggregate.New(analysis)
	for _, o := range outcomes {
		for _, f := range o.Failures {
			log.Warn().Str("series", f.Sample).Str("model", f.Model).Str("error", f.Error).Msg("Unit failed, continuing")
		}
		collector.Add(o)
	}
	summary := collector.Summary()

	log.Info().
		Str("analysis", string(analysis)).
		Int("records", len(summary.Records)).
		Int("failures", len(summary.Failures)).
		Str("status", string(summary.Status)).
		Msg("Batch analysis finished")

	return summary, nil
}

func (a *Analyzer) detector(opts models.RunOptions) *peaks.Detector {
	threshold, maxPeaks := a.cfg.ProminenceThreshold, a.cfg.MaxPeaks
	if opts.ProminenceThreshold != nil {
		threshold = *opts.ProminenceThreshold
	}
	if opts.MaxPeaks != nil {
		maxPeaks = *opts.MaxPeaks
	}
	return peaks.NewDetector(peaks.WithProminenceThreshold(threshold), peaks.WithMaxPeaks(maxPeaks))
}

// analyzeSeries never fails as a whole: every problem becomes a UnitFailure.
func (a *Analyzer) analyzeSeries(analysis models.AnalysisType, kinds []catalog.Kind, detector *peaks.Detector, s models.Series) (o aggregate.Outcome) {
	o.Series = s.Name
	defer func() {
		if r := recover(); r != nil {
			o = aggregate.Outcome{
				Series:   s.Name,
				Failures: []models.UnitFailure{{Sample: s.Name, Error: fmt.Sprintf("panic: %v", r)}},
			}
		}
	}()

	if err := s.Validate(); err != nil {
		o.Failures = append(o.Failures, models.UnitFailure{Sample: s.Name, Error: err.Error()})
		return o
	}

	switch analysis {
	case models.AnalysisKinetics, models.AnalysisIsotherm:
		for _, k := range kinds {
			spec := catalog.MustLookup(k)
			res, err := a.fitter.Fit(spec, s)
			if err != nil {
				o.Failures = append(o.Failures, models.UnitFailure{Sample: s.Name, Model: spec.Name, Error: err.Error()})
				continue
			}
			o.Fits = append(o.Fits, res)
		}
	case models.AnalysisFTIR:
		// Spectra are read from high to low wavenumber.
		ordered := models.Series{Name: s.Name, Role: s.Role, Points: s.SortedByXDesc()}
		axis, values := ordered.XY()
		assignments, err := peaks.Match(axis, values, a.cfg.References)
		if err != nil {
			o.Failures = append(o.Failures, models.UnitFailure{Sample: s.Name, Error: err.Error()})
			return o
		}
		o.Assignments = assignments
	case models.AnalysisXRD:
		o.Peaks = detector.Detect(s.Points)
	}
	return o
}
