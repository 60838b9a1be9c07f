package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// SchedulerSettings stores a program's allocation preferences as JSON.
type SchedulerSettings struct {
	ProgramID string         `db:"program_id" json:"program_id"`
	Settings  types.JSONText `db:"settings" json:"settings"`
	UpdatedBy *string        `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}
