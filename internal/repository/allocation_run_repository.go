package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// AllocationRunRepository tracks allocation runs and their progress.
type AllocationRunRepository struct {
	db *sqlx.DB
}

// NewAllocationRunRepository constructs the repository.
func NewAllocationRunRepository(db *sqlx.DB) *AllocationRunRepository {
	return &AllocationRunRepository{db: db}
}

const allocationRunColumns = `id, program_id, status, dry_run, progress, courses_total, courses_done, sessions_placed,
conflict_count, settings, summary, error, requested_by, created_at, started_at, finished_at`

// Create inserts a new run, assigning an id and QUEUED status when unset.
func (r *AllocationRunRepository) Create(ctx context.Context, run *models.AllocationRun) error {
	if run == nil {
		return fmt.Errorf("allocation run payload is nil")
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.Status == "" {
		run.Status = models.AllocationRunQueued
	}
	if len(run.Settings) == 0 {
		run.Settings = types.JSONText(`{}`)
	}
	if len(run.Summary) == 0 {
		run.Summary = types.JSONText(`{}`)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO allocation_runs (` + allocationRunColumns + `)
VALUES (:id, :program_id, :status, :dry_run, :progress, :courses_total, :courses_done, :sessions_placed,
:conflict_count, :settings, :summary, :error, :requested_by, :created_at, :started_at, :finished_at)`
	if _, err := r.db.NamedExecContext(ctx, query, run); err != nil {
		return fmt.Errorf("insert allocation run: %w", err)
	}
	return nil
}

// FindByID loads a run. sql.ErrNoRows is returned untouched.
func (r *AllocationRunRepository) FindByID(ctx context.Context, id string) (*models.AllocationRun, error) {
	const query = `SELECT ` + allocationRunColumns + ` FROM allocation_runs WHERE id = $1`
	var run models.AllocationRun
	if err := r.db.GetContext(ctx, &run, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find allocation run: %w", err)
	}
	return &run, nil
}

// MarkRunning moves a queued run to RUNNING and stamps its start time.
func (r *AllocationRunRepository) MarkRunning(ctx context.Context, id string, coursesTotal int) error {
	const query = `UPDATE allocation_runs SET status = $1, courses_total = $2, started_at = $3 WHERE id = $4 AND status = $5`
	return r.expectOne(ctx, "mark allocation run running", query,
		models.AllocationRunRunning, coursesTotal, time.Now().UTC(), id, models.AllocationRunQueued)
}

// UpdateProgress records how many courses the allocator has finished.
func (r *AllocationRunRepository) UpdateProgress(ctx context.Context, id string, done, total int) error {
	progress := 0
	if total > 0 {
		progress = done * 100 / total
	}
	const query = `UPDATE allocation_runs SET courses_done = $1, courses_total = $2, progress = $3 WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, done, total, progress, id); err != nil {
		return fmt.Errorf("update allocation run progress: %w", err)
	}
	return nil
}

// Finish stores the terminal state of a run.
func (r *AllocationRunRepository) Finish(ctx context.Context, run *models.AllocationRun) error {
	if run.FinishedAt == nil {
		now := time.Now().UTC()
		run.FinishedAt = &now
	}
	if len(run.Summary) == 0 {
		run.Summary = types.JSONText(`{}`)
	}
	const query = `UPDATE allocation_runs SET status = :status, progress = :progress, courses_done = :courses_done,
courses_total = :courses_total, sessions_placed = :sessions_placed, conflict_count = :conflict_count,
summary = :summary, error = :error, finished_at = :finished_at WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, run)
	if err != nil {
		return fmt.Errorf("finish allocation run: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish allocation run rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteFinishedBefore purges terminal runs older than cutoff and returns how
// many were removed.
func (r *AllocationRunRepository) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM allocation_runs WHERE finished_at IS NOT NULL AND finished_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge allocation runs: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge allocation runs rows affected: %w", err)
	}
	return affected, nil
}

func (r *AllocationRunRepository) expectOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
