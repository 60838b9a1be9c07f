package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ResourceRepository reads the shared lecturer and room pools.
type ResourceRepository struct {
	db *sqlx.DB
}

// NewResourceRepository constructs the repository.
func NewResourceRepository(db *sqlx.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// ListLecturers returns active lecturers in pool order.
func (r *ResourceRepository) ListLecturers(ctx context.Context) ([]models.Lecturer, error) {
	const query = `SELECT id, name, email, max_daily_hours, active, created_at, updated_at
FROM lecturers WHERE active = TRUE ORDER BY name ASC, id ASC`
	var lecturers []models.Lecturer
	if err := r.db.SelectContext(ctx, &lecturers, query); err != nil {
		return nil, fmt.Errorf("list lecturers: %w", err)
	}
	return lecturers, nil
}

// ListUnavailability returns blocked hours for the given lecturers.
func (r *ResourceRepository) ListUnavailability(ctx context.Context, lecturerIDs []string) ([]models.LecturerUnavailability, error) {
	if len(lecturerIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT lecturer_id, day_of_week, hour FROM lecturer_unavailability
WHERE lecturer_id IN (?) ORDER BY lecturer_id ASC, day_of_week ASC, hour ASC`, lecturerIDs)
	if err != nil {
		return nil, fmt.Errorf("build unavailability query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []models.LecturerUnavailability
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list lecturer unavailability: %w", err)
	}
	return rows, nil
}

// ListRooms returns active rooms in pool order.
func (r *ResourceRepository) ListRooms(ctx context.Context) ([]models.Room, error) {
	const query = `SELECT id, code, name, capacity, active, created_at, updated_at
FROM rooms WHERE active = TRUE ORDER BY code ASC, id ASC`
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
