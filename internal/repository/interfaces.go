package repository

import (
	"context"
	"errors"

	"github.com/RMahshie/labfit/pkg/models"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a run does not exist
var ErrNotFound = errors.New("run not found")

// RunRepository defines the interface for run data operations
type RunRepository interface {
	Create(ctx context.Context, run *models.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error
	UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error
	StoreResults(ctx context.Context, id uuid.UUID, records []models.SummaryRecord, failures []models.UnitFailure) error
	GetResults(ctx context.Context, id uuid.UUID) ([]models.SummaryRecord, []models.UnitFailure, error)
	SetExport(ctx context.Context, id uuid.UUID, key string) error
}
