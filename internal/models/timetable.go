package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// TimetableEntry is one persisted weekly session.
type TimetableEntry struct {
	ID         string    `db:"id" json:"id"`
	ProgramID  string    `db:"program_id" json:"program_id"`
	RunID      string    `db:"run_id" json:"run_id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	LecturerID string    `db:"lecturer_id" json:"lecturer_id"`
	RoomID     string    `db:"room_id" json:"room_id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	Year       int       `db:"year" json:"year"`
	Semester   int       `db:"semester" json:"semester"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// TimetableEntryView joins an entry with display names for listings and exports.
type TimetableEntryView struct {
	TimetableEntry
	CourseName   string `db:"course_name" json:"course_name"`
	LecturerName string `db:"lecturer_name" json:"lecturer_name"`
	RoomName     string `db:"room_name" json:"room_name"`
}

// TimetableConflict is a persisted conflict from the latest run of a program.
type TimetableConflict struct {
	ID         string         `db:"id" json:"id"`
	ProgramID  string         `db:"program_id" json:"program_id"`
	RunID      string         `db:"run_id" json:"run_id"`
	Position   int            `db:"position" json:"position"`
	Kind       string         `db:"kind" json:"kind"`
	Message    string         `db:"message" json:"message"`
	CourseID   *string        `db:"course_id" json:"course_id,omitempty"`
	LecturerID *string        `db:"lecturer_id" json:"lecturer_id,omitempty"`
	Session    *int           `db:"session" json:"session,omitempty"`
	Dimension  *string        `db:"dimension" json:"dimension,omitempty"`
	Details    types.JSONText `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
