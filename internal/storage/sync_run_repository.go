package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Nyx-1992/hostease-backend/internal/storage/models"
)

// SyncRunRepository persists reconciliation run records.
type SyncRunRepository struct {
	BaseRepository
}

// NewSyncRunRepository creates a new sync run repository.
func NewSyncRunRepository(db *DB) *SyncRunRepository {
	return &SyncRunRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a started run.
func (r *SyncRunRepository) Create(ctx context.Context, run *models.SyncRun) error {
	run.ID = GenerateID()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO sync_runs (id, trigger_src, started_at, properties,
			processed, created, updated, removed, error_count, error_detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID, run.Trigger, run.StartedAt, run.Properties, run.Processed,
		run.Created, run.Updated, run.Removed, run.ErrorCount, run.ErrorDetail,
	)
	if err != nil {
		return fmt.Errorf("inserting sync run: %w", err)
	}
	return nil
}

// Finish records the run's final counters.
func (r *SyncRunRepository) Finish(ctx context.Context, run *models.SyncRun) error {
	_, err := r.DB().ExecContext(ctx, `
		UPDATE sync_runs SET finished_at = ?, properties = ?, processed = ?,
			created = ?, updated = ?, removed = ?, error_count = ?, error_detail = ?
		WHERE id = ?
	`,
		run.FinishedAt, run.Properties, run.Processed, run.Created,
		run.Updated, run.Removed, run.ErrorCount, run.ErrorDetail, run.ID,
	)
	if err != nil {
		return fmt.Errorf("finishing sync run: %w", err)
	}
	return nil
}

// Latest returns the most recently started run. Returns nil when none exist.
func (r *SyncRunRepository) Latest(ctx context.Context) (*models.SyncRun, error) {
	run := &models.SyncRun{}
	err := r.DB().QueryRowContext(ctx, `
		SELECT id, trigger_src, started_at, finished_at, properties,
			processed, created, updated, removed, error_count, error_detail
		FROM sync_runs ORDER BY started_at DESC LIMIT 1
	`).Scan(
		&run.ID, &run.Trigger, &run.StartedAt, &run.FinishedAt,
		&run.Properties, &run.Processed, &run.Created, &run.Updated,
		&run.Removed, &run.ErrorCount, &run.ErrorDetail,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest sync run: %w", err)
	}
	return run, nil
}
