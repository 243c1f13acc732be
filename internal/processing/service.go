package processing

import (
	"bytes"
	"context"
	"fmt"

	"github.com/RMahshie/labfit/internal/aggregate"
	"github.com/RMahshie/labfit/internal/export"
	"github.com/RMahshie/labfit/internal/loader"
	"github.com/RMahshie/labfit/internal/render"
	"github.com/RMahshie/labfit/internal/repository"
	"github.com/RMahshie/labfit/internal/storage"
	"github.com/RMahshie/labfit/pkg/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ProcessingService interface {
	// ProcessRun loads the run's uploaded sources and analyzes them. Source
	// and storage failures mark the run failed instead of returning an error.
	ProcessRun(ctx context.Context, runID uuid.UUID) error
	// AnalyzeRun analyzes inline series for a run that already exists.
	AnalyzeRun(ctx context.Context, run *models.Run, series []models.Series) (*models.RunSummary, error)
}

type processingService struct {
	s3           storage.S3Service
	repository   repository.RunRepository
	analyzer     *Analyzer
	exportFormat export.Format
}

func NewProcessingService(s3Service storage.S3Service, repo repository.RunRepository, analyzer *Analyzer, exportFormat export.Format) ProcessingService {
	if exportFormat == "" {
		exportFormat = export.FormatCSV
	}
	return &processingService{
		s3:           s3Service,
		repository:   repo,
		analyzer:     analyzer,
		exportFormat: exportFormat,
	}
}

func (s *processingService) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	// Step 1: Update to processing status
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 10); err != nil {
		return err
	}

	// Step 2: Get run details
	run, err := s.repository.GetByID(ctx, runID)
	if err != nil {
		return err
	}

	// Step 3: Download and parse every source
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 20); err != nil {
		return err
	}

	role := run.AnalysisType.Role()
	series := make([]models.Series, 0, len(run.SourceKeys))
	var loadFailures []models.UnitFailure

	for _, key := range run.SourceKeys {
		data, err := s.s3.DownloadFile(ctx, key)
		if err != nil {
			log.Error().Err(err).Str("run_id", run.ID).Str("key", key).Msg("Failed to download source")
			s.repository.UpdateError(ctx, runID, fmt.Sprintf("Failed to download source %s", key))
			return nil // Don't return error, status is updated to failed
		}

		name := loader.SeriesName(key)
		sr, err := loader.ReadCSV(name, role, bytes.NewReader(data))
		if err != nil {
			log.Warn().Err(err).Str("run_id", run.ID).Str("series", name).Msg("Skipping unreadable source")
			loadFailures = append(loadFailures, models.UnitFailure{Sample: name, Stage: models.StageLoad, Error: err.Error()})
			continue
		}
		series = append(series, sr)
	}

	// Step 4: Analyze
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 50); err != nil {
		return err
	}

	if _, err := s.analyze(ctx, run, series, loadFailures); err != nil {
		log.Error().Err(err).Str("run_id", run.ID).Msg("Run failed")
		return nil // Don't return error, status is updated to failed
	}
	return nil
}

func (s *processingService) AnalyzeRun(ctx context.Context, run *models.Run, series []models.Series) (*models.RunSummary, error) {
	return s.analyze(ctx, run, series, nil)
}

func (s *processingService) analyze(ctx context.Context, run *models.Run, series []models.Series, loadFailures []models.UnitFailure) (*models.RunSummary, error) {
	runID, err := uuid.Parse(run.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid run ID: %w", err)
	}

	// Every failure past this point marks the run failed, so no run is left processing.
	fail := func(msg string, err error) (*models.RunSummary, error) {
		log.Error().Err(err).Str("run_id", run.ID).Msg(msg)
		if uerr := s.repository.UpdateError(context.WithoutCancel(ctx), runID, fmt.Sprintf("%s: %v", msg, err)); uerr != nil {
			log.Error().Err(uerr).Str("run_id", run.ID).Msg("Failed to mark run failed")
		}
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	summary, err := s.analyzer.Run(ctx, run.AnalysisType, series, run.Options)
	if err != nil {
		return fail("Analysis failed", err)
	}
	failures := append(loadFailures, summary.Failures...)

	// Step 5: Store results
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusProcessing, 80); err != nil {
		return fail("Failed to update run status", err)
	}
	if err := s.repository.StoreResults(ctx, runID, summary.Records, failures); err != nil {
		return fail("Failed to store results", err)
	}

	// Step 6: Export tables
	exportKeys, err := s.exportTables(ctx, run, summary)
	if err != nil {
		return fail("Failed to export results", err)
	}
	exportKey := exportKeys[0]
	if err := s.repository.SetExport(ctx, runID, exportKey); err != nil {
		s.removeExports(ctx, exportKeys)
		return fail("Failed to record export", err)
	}

	// Step 7: Mark complete
	if err := s.repository.UpdateStatus(ctx, runID, models.StatusCompleted, 100); err != nil {
		return fail("Failed to complete run", err)
	}

	log.Info().
		Str("run_id", run.ID).
		Str("analysis", string(run.AnalysisType)).
		Int("records", len(summary.Records)).
		Int("failures", len(failures)).
		Bool("empty", summary.Empty()).
		Msg("Run completed")

	run.Status = models.StatusCompleted
	run.ExportKey = &exportKey

	render.AttachCurves(summary.Fits, series, render.DefaultCurveSamples)

	out := BuildSummary(run, summary.Records, failures, series)
	out.Fits = summary.Fits
	return out, nil
}

// BuildSummary assembles the caller-facing view of a finished run.
//
// Artifacts cover the series that were actually analyzed, in run order. When
// those series are passed in, the composite artifact also carries the offset
// traces; stored runs are summarized without them.
func BuildSummary(run *models.Run, records []models.SummaryRecord, failures []models.UnitFailure, series []models.Series) *models.RunSummary {
	if records == nil {
		records = []models.SummaryRecord{}
	}

	var names []string
	if series != nil {
		for _, sr := range series {
			names = append(names, sr.Name)
		}
	} else {
		names = analyzedNames(run.SeriesNames, failures)
	}

	plot := render.NewPlotContext(run.AnalysisType, names)
	artifacts := plot.Artifacts()
	if len(series) > 0 {
		artifacts[len(artifacts)-1].Traces = plot.Overlay(series)
	}

	return &models.RunSummary{
		ID:           run.ID,
		AnalysisType: run.AnalysisType,
		Status:       run.Status,
		Empty:        len(records) == 0,
		Records:      records,
		Failures:     failures,
		Artifacts:    artifacts,
		ExportKey:    run.ExportKey,
		CreatedAt:    run.CreatedAt,
	}
}

// analyzedNames drops the series whose source could not be read.
func analyzedNames(names []string, failures []models.UnitFailure) []string {
	unread := make(map[string]bool)
	for _, f := range failures {
		if f.Stage == models.StageLoad {
			unread[f.Sample] = true
		}
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !unread[n] {
			out = append(out, n)
		}
	}
	return out
}

// exportTables uploads the summary table and any per-sample tables, and
// returns their object keys, summary first.
func (s *processingService) exportTables(ctx context.Context, run *models.Run, summary *aggregate.Summary) ([]string, error) {
	format := s.exportFormat
	if run.Options.ExportFormat != "" {
		f, err := export.ParseFormat(run.Options.ExportFormat)
		if err != nil {
			return nil, err
		}
		format = f
	}

	var uploaded []string
	for _, table := range export.Tables(run.AnalysisType, summary.Records, summary.Details) {
		var buf bytes.Buffer
		if err := export.Write(&buf, format, run.AnalysisType, table.Records); err != nil {
			s.removeExports(ctx, uploaded)
			return nil, fmt.Errorf("failed to encode %s: %w", table.Name, err)
		}

		key := ExportKey(run.ID, table.Name, format)
		if err := s.s3.UploadFile(ctx, key, format.ContentType(), buf.Bytes()); err != nil {
			s.removeExports(ctx, uploaded)
			return nil, err
		}
		uploaded = append(uploaded, key)
	}
	return uploaded, nil
}

// removeExports deletes the tables of a partial export
func (s *processingService) removeExports(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := s.s3.DeleteFile(ctx, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to remove partial export")
		}
	}
}

// ExportKey is the object key of one exported table
func ExportKey(runID, table string, format export.Format) string {
	return fmt.Sprintf("exports/%s/%s%s", runID, table, format.Ext())
}
