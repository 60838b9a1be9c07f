package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AllocationRunStatus tracks the lifecycle of an allocation run.
type AllocationRunStatus string

const (
	AllocationRunQueued    AllocationRunStatus = "QUEUED"
	AllocationRunRunning   AllocationRunStatus = "RUNNING"
	AllocationRunCompleted AllocationRunStatus = "COMPLETED"
	AllocationRunCancelled AllocationRunStatus = "CANCELLED"
	AllocationRunFailed    AllocationRunStatus = "FAILED"
)

// Finished reports whether the run has reached a terminal state.
func (s AllocationRunStatus) Finished() bool {
	switch s {
	case AllocationRunCompleted, AllocationRunCancelled, AllocationRunFailed:
		return true
	}
	return false
}

// AllocationRun records one invocation of the allocator for a program.
type AllocationRun struct {
	ID             string              `db:"id" json:"id"`
	ProgramID      string              `db:"program_id" json:"program_id"`
	Status         AllocationRunStatus `db:"status" json:"status"`
	DryRun         bool                `db:"dry_run" json:"dry_run"`
	Progress       int                 `db:"progress" json:"progress"`
	CoursesTotal   int                 `db:"courses_total" json:"courses_total"`
	CoursesDone    int                 `db:"courses_done" json:"courses_done"`
	SessionsPlaced int                 `db:"sessions_placed" json:"sessions_placed"`
	ConflictCount  int                 `db:"conflict_count" json:"conflict_count"`
	Settings       types.JSONText      `db:"settings" json:"settings"`
	Summary        types.JSONText      `db:"summary" json:"summary,omitempty"`
	Error          *string             `db:"error" json:"error,omitempty"`
	RequestedBy    *string             `db:"requested_by" json:"requested_by,omitempty"`
	CreatedAt      time.Time           `db:"created_at" json:"created_at"`
	StartedAt      *time.Time          `db:"started_at" json:"started_at,omitempty"`
	FinishedAt     *time.Time          `db:"finished_at" json:"finished_at,omitempty"`
}
