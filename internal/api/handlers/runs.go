package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RMahshie/labfit/internal/catalog"
	"github.com/RMahshie/labfit/internal/export"
	"github.com/RMahshie/labfit/internal/loader"
	"github.com/RMahshie/labfit/internal/processing"
	"github.com/RMahshie/labfit/internal/repository"
	"github.com/RMahshie/labfit/internal/storage"
	"github.com/RMahshie/labfit/pkg/models"
	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const uploadURLExpiry = 15 * time.Minute

// RunHandler handles run-related HTTP requests
type RunHandler struct {
	repo          repository.RunRepository
	s3Service     storage.S3Service
	processingSvc processing.ProcessingService
}

// NewRunHandler creates a new run handler
func NewRunHandler(repo repository.RunRepository, s3Service storage.S3Service, processingSvc processing.ProcessingService) *RunHandler {
	return &RunHandler{
		repo:          repo,
		s3Service:     s3Service,
		processingSvc: processingSvc,
	}
}

// CreateUpload returns a pre-signed URL for one CSV series source
func (h *RunHandler) CreateUpload(ctx context.Context, req *models.CreateUploadRequest) (*models.CreateUploadResponse, error) {
	name := strings.TrimSpace(req.Body.SampleName)
	if name == "" || strings.ContainsAny(name, "/\\") {
		return nil, huma.Error400BadRequest("Sample name must be non-empty and must not contain slashes", nil)
	}
	if req.Body.FileSize <= 0 {
		return nil, huma.Error400BadRequest("Source file is empty", nil)
	}
	if req.Body.FileSize > 10*1024*1024 {
		return nil, huma.Error400BadRequest("Source file too large. Split the batch into smaller files.", nil)
	}

	key := fmt.Sprintf("sources/%s/%s.csv", uuid.New(), name)

	uploadURL, err := h.s3Service.GenerateUploadURL(ctx, key, req.Body.MimeType)
	if err != nil {
		if strings.Contains(err.Error(), "invalid content type") {
			return nil, huma.Error400BadRequest("Source format not supported. Upload a CSV file.", err)
		}
		return nil, huma.Error400BadRequest("Failed to prepare upload. Please try again.", err)
	}
	log.Info().Str("key", key).Int64("fileSize", req.Body.FileSize).Msg("Upload URL generated")

	return &models.CreateUploadResponse{
		Body: models.CreateUploadResponseBody{
			Key:       key,
			UploadURL: uploadURL,
			ExpiresIn: int(uploadURLExpiry.Seconds()),
		},
	}, nil
}

// CreateRun analyzes inline series synchronously and returns the summary
func (h *RunHandler) CreateRun(ctx context.Context, req *models.CreateRunRequest) (*models.RunResultsResponse, error) {
	analysis, err := validateRun(req.Body.AnalysisType, req.Body.Options)
	if err != nil {
		return nil, err
	}

	series := make([]models.Series, len(req.Body.Series))
	names := make([]string, len(req.Body.Series))
	for i, s := range req.Body.Series {
		if s.Role == "" {
			s.Role = analysis.Role()
		}
		series[i] = s
		names[i] = s.Name
	}

	run := &models.Run{
		ID:           uuid.New().String(),
		AnalysisType: analysis,
		Status:       models.StatusProcessing,
		SeriesNames:  names,
		Options:      req.Body.Options,
	}
	if err := h.repo.Create(ctx, run); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create run", err)
	}
	log.Info().Str("runID", run.ID).Str("analysis", string(analysis)).Int("series", len(series)).Msg("Run created")

	summary, err := h.processingSvc.AnalyzeRun(ctx, run, series)
	if err != nil {
		return nil, huma.Error500InternalServerError("Analysis failed", err)
	}

	return &models.RunResultsResponse{Body: *summary}, nil
}

// ImportRun creates a run over uploaded sources and processes it in the background
func (h *RunHandler) ImportRun(ctx context.Context, req *models.ImportRunRequest) (*models.ImportRunResponse, error) {
	analysis, err := validateRun(req.Body.AnalysisType, req.Body.Options)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(req.Body.SourceKeys))
	for i, key := range req.Body.SourceKeys {
		names[i] = loader.SeriesName(key)
	}

	runID := uuid.New()
	run := &models.Run{
		ID:           runID.String(),
		AnalysisType: analysis,
		Status:       models.StatusPending,
		SourceKeys:   req.Body.SourceKeys,
		SeriesNames:  names,
		Options:      req.Body.Options,
	}
	if err := h.repo.Create(ctx, run); err != nil {
		return nil, huma.Error500InternalServerError("Failed to create run", err)
	}

	// Start processing in background (don't wait for completion)
	log.Info().Str("runID", run.ID).Int("sources", len(run.SourceKeys)).Msg("Starting background processing goroutine")
	go func() {
		if err := h.processingSvc.ProcessRun(context.Background(), runID); err != nil {
			log.Error().Err(err).Str("runID", runID.String()).Msg("Background processing failed")
			h.repo.UpdateError(context.Background(), runID, fmt.Sprintf("Processing failed: %v", err))
		}
	}()

	return &models.ImportRunResponse{
		Body: models.ImportRunResponseBody{
			ID:     run.ID,
			Status: run.Status,
		},
	}, nil
}

// GetRunStatus returns the current status of a run
func (h *RunHandler) GetRunStatus(ctx context.Context, req *models.GetRunRequest) (*models.GetRunStatusResponse, error) {
	run, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	message := generateStatusMessage(run.Status, run.Progress)
	if run.Status == models.StatusFailed && run.ErrorMsg != nil {
		message = *run.ErrorMsg
	}

	return &models.GetRunStatusResponse{
		Body: models.GetRunStatusResponseBody{
			ID:          run.ID,
			Status:      run.Status,
			Progress:    run.Progress,
			Message:     message,
			RecordCount: run.RecordCount,
		},
	}, nil
}

// GetRunResults returns the stored summary of a completed run
func (h *RunHandler) GetRunResults(ctx context.Context, req *models.GetRunRequest) (*models.RunResultsResponse, error) {
	run, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if run.Status != models.StatusCompleted {
		return nil, huma.Error409Conflict("Run not yet completed",
			fmt.Errorf("run status is %s", run.Status))
	}

	records, failures, err := h.repo.GetResults(ctx, uuid.MustParse(run.ID))
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to get results", err)
	}

	return &models.RunResultsResponse{Body: *processing.BuildSummary(run, records, failures, nil)}, nil
}

// GetRunExport returns a download URL for the exported summary table
func (h *RunHandler) GetRunExport(ctx context.Context, req *models.GetRunRequest) (*models.GetRunExportResponse, error) {
	run, err := h.lookup(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if run.ExportKey == nil {
		return nil, huma.Error404NotFound("Run has no export yet", nil)
	}

	url, err := h.s3Service.GenerateDownloadURL(ctx, *run.ExportKey)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate download URL", err)
	}

	return &models.GetRunExportResponse{
		Body: models.GetRunExportResponseBody{
			Key:         *run.ExportKey,
			DownloadURL: url,
		},
	}, nil
}

func (h *RunHandler) lookup(ctx context.Context, id string) (*models.Run, error) {
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, huma.Error400BadRequest("Invalid run ID", err)
	}

	run, err := h.repo.GetByID(ctx, runID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, huma.Error404NotFound("Run not found", err)
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load run", err)
	}
	return run, nil
}

// validateRun rejects unknown analysis types, models and export formats
// before anything is persisted.
func validateRun(analysisType string, opts models.RunOptions) (models.AnalysisType, error) {
	analysis, err := models.ParseAnalysisType(analysisType)
	if err != nil {
		return "", huma.Error400BadRequest("Unsupported analysis type", err)
	}
	if _, err := catalog.Select(analysis, opts.Models); err != nil {
		return "", huma.Error400BadRequest("Unsupported model selection", err)
	}
	if _, err := export.ParseFormat(opts.ExportFormat); err != nil {
		return "", huma.Error400BadRequest("Unsupported export format", err)
	}
	return analysis, nil
}

// generateStatusMessage creates a human-readable status message
func generateStatusMessage(status string, progress int) string {
	switch status {
	case models.StatusPending:
		return "Run queued for processing..."
	case models.StatusProcessing:
		if progress < 20 {
			return "Starting run..."
		} else if progress < 50 {
			return "Loading series sources..."
		} else if progress < 80 {
			return "Fitting models and detecting peaks..."
		} else {
			return "Exporting results..."
		}
	case models.StatusCompleted:
		return "Run complete!"
	case models.StatusFailed:
		return "Run failed."
	default:
		return "Unknown status"
	}
}
