package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// SchedulerSettingsRepository persists per-program allocation settings.
type SchedulerSettingsRepository struct {
	db *sqlx.DB
}

// NewSchedulerSettingsRepository constructs the repository.
func NewSchedulerSettingsRepository(db *sqlx.DB) *SchedulerSettingsRepository {
	return &SchedulerSettingsRepository{db: db}
}

// Get returns stored settings, or sql.ErrNoRows when the program has none.
func (r *SchedulerSettingsRepository) Get(ctx context.Context, programID string) (*models.SchedulerSettings, error) {
	const query = `SELECT program_id, settings, updated_by, updated_at FROM scheduler_settings WHERE program_id = $1`
	var settings models.SchedulerSettings
	if err := r.db.GetContext(ctx, &settings, query, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get scheduler settings: %w", err)
	}
	return &settings, nil
}

// Upsert stores settings for a program, replacing any previous value.
func (r *SchedulerSettingsRepository) Upsert(ctx context.Context, settings *models.SchedulerSettings) error {
	const query = `INSERT INTO scheduler_settings (program_id, settings, updated_by, updated_at)
VALUES (:program_id, :settings, :updated_by, :updated_at)
ON CONFLICT (program_id)
DO UPDATE SET settings = EXCLUDED.settings, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at`
	settings.UpdatedAt = time.Now().UTC()
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert scheduler settings: %w", err)
	}
	return nil
}
