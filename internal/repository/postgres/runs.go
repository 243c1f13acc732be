package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/RMahshie/labfit/internal/repository"
	"github.com/RMahshie/labfit/pkg/models"
	"github.com/google/uuid"
)

// PostgresRunRepository implements RunRepository for PostgreSQL
type PostgresRunRepository struct {
	db *sql.DB
}

// NewPostgresRunRepository creates a new PostgreSQL run repository
func NewPostgresRunRepository(db *sql.DB) repository.RunRepository {
	return &PostgresRunRepository{db: db}
}

// Create inserts a new run record, assigning an ID and timestamps when unset
func (r *PostgresRunRepository) Create(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = now
	}
	if run.UpdatedAt.IsZero() {
		run.UpdatedAt = run.CreatedAt
	}
	if run.Status == "" {
		run.Status = models.StatusPending
	}

	sourceKeys, err := json.Marshal(nonNil(run.SourceKeys))
	if err != nil {
		return fmt.Errorf("failed to marshal source keys: %w", err)
	}
	seriesNames, err := json.Marshal(nonNil(run.SeriesNames))
	if err != nil {
		return fmt.Errorf("failed to marshal series names: %w", err)
	}
	options, err := json.Marshal(run.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	query := `
		INSERT INTO runs (id, analysis_type, status, progress, source_keys, series_names, options, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		string(run.AnalysisType),
		run.Status,
		run.Progress,
		string(sourceKeys),
		string(seriesNames),
		string(options),
		run.CreatedAt,
		run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// GetByID retrieves a run by ID
func (r *PostgresRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	query := `
		SELECT id, analysis_type, status, progress, source_keys, series_names, options, error_message,
		       record_count, export_key, created_at, updated_at, completed_at
		FROM runs
		WHERE id = $1`

	var run models.Run
	var analysisType string
	var sourceKeys, seriesNames, options []byte
	var errorMsg, exportKey sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID,
		&analysisType,
		&run.Status,
		&run.Progress,
		&sourceKeys,
		&seriesNames,
		&options,
		&errorMsg,
		&run.RecordCount,
		&exportKey,
		&run.CreatedAt,
		&run.UpdatedAt,
		&completedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	run.AnalysisType = models.AnalysisType(analysisType)
	if err := json.Unmarshal(sourceKeys, &run.SourceKeys); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source keys: %w", err)
	}
	if err := json.Unmarshal(seriesNames, &run.SeriesNames); err != nil {
		return nil, fmt.Errorf("failed to unmarshal series names: %w", err)
	}
	if err := json.Unmarshal(options, &run.Options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	if errorMsg.Valid {
		run.ErrorMsg = &errorMsg.String
	}
	if exportKey.Valid {
		run.ExportKey = &exportKey.String
	}
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}

	return &run, nil
}

// UpdateStatus updates the status and progress of a run
func (r *PostgresRunRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	query := `
		UPDATE runs
		SET status = $1, progress = $2, updated_at = NOW(),
		    completed_at = CASE WHEN $1 = 'completed' THEN NOW() ELSE completed_at END
		WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, status, progress, id)
	return err
}

// UpdateError marks a run failed with a message
func (r *PostgresRunRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	query := `
		UPDATE runs
		SET status = 'failed', error_message = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, errorMsg, id)
	return err
}

// StoreResults replaces the summary rows and failures of a run in one transaction
func (r *PostgresRunRepository) StoreResults(ctx context.Context, id uuid.UUID, records []models.SummaryRecord, failures []models.UnitFailure) error {
	failuresJSON, err := json.Marshal(nonNil(failures))
	if err != nil {
		return fmt.Errorf("failed to marshal failures: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_records WHERE run_id = $1`, id); err != nil {
		return fmt.Errorf("failed to clear records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_records (run_id, position, sample, record)
		VALUES ($1, $2, $3, $4)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, rec.Sample, string(data)); err != nil {
			return fmt.Errorf("failed to insert record: %w", err)
		}
	}

	query := `
		UPDATE runs
		SET record_count = $1, failures = $2, updated_at = NOW()
		WHERE id = $3`
	if _, err := tx.ExecContext(ctx, query, len(records), string(failuresJSON), id); err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}

	return tx.Commit()
}

// GetResults retrieves summary rows in stored order, plus the failures
func (r *PostgresRunRepository) GetResults(ctx context.Context, id uuid.UUID) ([]models.SummaryRecord, []models.UnitFailure, error) {
	var failuresJSON []byte
	err := r.db.QueryRowContext(ctx, `SELECT failures FROM runs WHERE id = $1`, id).Scan(&failuresJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("run %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	var failures []models.UnitFailure
	if err := json.Unmarshal(failuresJSON, &failures); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal failures: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT record
		FROM run_records
		WHERE run_id = $1
		ORDER BY position`, id)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	records := []models.SummaryRecord{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, nil, err
		}
		var rec models.SummaryRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	return records, failures, nil
}

// SetExport records the object key of the exported summary table
func (r *PostgresRunRepository) SetExport(ctx context.Context, id uuid.UUID, key string) error {
	query := `
		UPDATE runs
		SET export_key = $1, updated_at = NOW()
		WHERE id = $2`

	_, err := r.db.ExecContext(ctx, query, key, id)
	return err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
