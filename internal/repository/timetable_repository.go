package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// TimetableRepository stores the latest timetable and conflicts per program.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const (
	insertEntryQuery = `INSERT INTO timetable_entries (id, program_id, run_id, course_id, lecturer_id, room_id, day_of_week, start_time, end_time, year, semester, created_at)
VALUES (:id, :program_id, :run_id, :course_id, :lecturer_id, :room_id, :day_of_week, :start_time, :end_time, :year, :semester, :created_at)`

	insertConflictQuery = `INSERT INTO timetable_conflicts (id, program_id, run_id, position, kind, message, course_id, lecturer_id, session, dimension, details, created_at)
VALUES (:id, :program_id, :run_id, :position, :kind, :message, :course_id, :lecturer_id, :session, :dimension, :details, :created_at)`
)

// ReplaceForProgram swaps the program's entries and conflicts for a new set in
// one transaction. Readers see either the old timetable or the new one.
func (r *TimetableRepository) ReplaceForProgram(ctx context.Context, programID string, entries []models.TimetableEntry, conflicts []models.TimetableConflict) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace timetable: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_entries WHERE program_id = $1`, programID); err != nil {
		return fmt.Errorf("delete timetable entries: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM timetable_conflicts WHERE program_id = $1`, programID); err != nil {
		return fmt.Errorf("delete timetable conflicts: %w", err)
	}

	now := time.Now().UTC()
	for i := range entries {
		entry := &entries[i]
		entry.ProgramID = programID
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, insertEntryQuery, entry); err != nil {
			return fmt.Errorf("insert timetable entry: %w", err)
		}
	}
	for i := range conflicts {
		conflict := &conflicts[i]
		conflict.ProgramID = programID
		conflict.Position = i
		if conflict.ID == "" {
			conflict.ID = uuid.NewString()
		}
		if conflict.CreatedAt.IsZero() {
			conflict.CreatedAt = now
		}
		if len(conflict.Details) == 0 {
			conflict.Details = []byte(`{}`)
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, insertConflictQuery, conflict); err != nil {
			return fmt.Errorf("insert timetable conflict: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace timetable: %w", err)
	}
	return nil
}

// ListEntries returns the program's timetable with display names, ordered by
// day then start time.
func (r *TimetableRepository) ListEntries(ctx context.Context, programID string) ([]models.TimetableEntryView, error) {
	const query = `SELECT e.id, e.program_id, e.run_id, e.course_id, e.lecturer_id, e.room_id, e.day_of_week, e.start_time, e.end_time,
       e.year, e.semester, e.created_at, c.name AS course_name, l.name AS lecturer_name, rm.name AS room_name
FROM timetable_entries e
JOIN courses c ON c.id = e.course_id
JOIN lecturers l ON l.id = e.lecturer_id
JOIN rooms rm ON rm.id = e.room_id
WHERE e.program_id = $1
ORDER BY e.day_of_week ASC, e.start_time ASC, e.course_id ASC`
	var entries []models.TimetableEntryView
	if err := r.db.SelectContext(ctx, &entries, query, programID); err != nil {
		return nil, fmt.Errorf("list timetable entries: %w", err)
	}
	return entries, nil
}

// ListConflicts returns conflicts recorded by the program's latest persisted run.
func (r *TimetableRepository) ListConflicts(ctx context.Context, programID string) ([]models.TimetableConflict, error) {
	const query = `SELECT id, program_id, run_id, position, kind, message, course_id, lecturer_id, session, dimension, details, created_at
FROM timetable_conflicts WHERE program_id = $1 ORDER BY position ASC`
	var conflicts []models.TimetableConflict
	if err := r.db.SelectContext(ctx, &conflicts, query, programID); err != nil {
		return nil, fmt.Errorf("list timetable conflicts: %w", err)
	}
	return conflicts, nil
}
