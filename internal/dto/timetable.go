package dto

import (
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
)

// SchedulerSettingsPayload overrides individual allocation settings. Nil
// fields keep the value they are applied on top of.
type SchedulerSettingsPayload struct {
	PrioritizeRoomSize      *bool `json:"prioritizeRoomSize"`
	AvoidBackToBack         *bool `json:"avoidBackToBack"`
	BalanceLecturerLoad     *bool `json:"balanceLecturerLoad"`
	MaxDailyHours           *int  `json:"maxDailyHours" validate:"omitempty,min=1,max=24"`
	PreferredStartTime      *int  `json:"preferredStartTime" validate:"omitempty,min=0,max=23"`
	PreferredEndTime        *int  `json:"preferredEndTime" validate:"omitempty,min=1,max=24"`
	AllowWeekends           *bool `json:"allowWeekends"`
	SpreadCoursesAcrossDays *bool `json:"spreadCoursesAcrossDays"`
	MaxSessionsPerDay       *int  `json:"maxSessionsPerDay" validate:"omitempty,min=1,max=24"`
	RespectCreditHours      *bool `json:"respectCreditHours"`
	ConsiderRoomCapacity    *bool `json:"considerRoomCapacity"`
}

// Apply returns base with every non-nil override applied.
func (p *SchedulerSettingsPayload) Apply(base scheduler.Settings) scheduler.Settings {
	if p == nil {
		return base
	}
	out := base
	setBool(&out.PrioritizeRoomSize, p.PrioritizeRoomSize)
	setBool(&out.AvoidBackToBack, p.AvoidBackToBack)
	setBool(&out.BalanceLecturerLoad, p.BalanceLecturerLoad)
	setInt(&out.MaxDailyHours, p.MaxDailyHours)
	setInt(&out.PreferredStartTime, p.PreferredStartTime)
	setInt(&out.PreferredEndTime, p.PreferredEndTime)
	setBool(&out.AllowWeekends, p.AllowWeekends)
	setBool(&out.SpreadCoursesAcrossDays, p.SpreadCoursesAcrossDays)
	setInt(&out.MaxSessionsPerDay, p.MaxSessionsPerDay)
	setBool(&out.RespectCreditHours, p.RespectCreditHours)
	setBool(&out.ConsiderRoomCapacity, p.ConsiderRoomCapacity)
	return out
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// GenerateTimetableRequest asks for an allocation run over a program.
// Year and Semester restrict the run to one cohort.
type GenerateTimetableRequest struct {
	Year     *int                      `json:"year" validate:"omitempty,min=1"`
	Semester *int                      `json:"semester" validate:"omitempty,min=1"`
	Settings *SchedulerSettingsPayload `json:"settings" validate:"omitempty"`
	DryRun   bool                      `json:"dryRun"`
}

// GenerateTimetableResponse reports the outcome of a synchronous run.
type GenerateTimetableResponse struct {
	RunID     string                    `json:"runId"`
	ProgramID string                    `json:"programId"`
	Status    scheduler.RunStatus       `json:"status"`
	DryRun    bool                      `json:"dryRun"`
	Persisted bool                      `json:"persisted"`
	Settings  scheduler.Settings        `json:"settings"`
	Entries   []scheduler.ScheduleEntry `json:"entries"`
	Conflicts []scheduler.Conflict      `json:"conflicts"`
	Summary   scheduler.Summary         `json:"summary"`
}

// SchedulerSettingsResponse returns the effective settings for a program.
type SchedulerSettingsResponse struct {
	ProgramID string             `json:"programId"`
	Settings  scheduler.Settings `json:"settings"`
	Stored    bool               `json:"stored"`
}

// TimetableResponse lists the persisted timetable of a program.
type TimetableResponse struct {
	ProgramID string                      `json:"programId"`
	Entries   []models.TimetableEntryView `json:"entries"`
}

// TimetableExportQuery selects the export rendering.
type TimetableExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
	Layout string `form:"layout" validate:"omitempty,oneof=list grid"`
}

// StartRunResponse acknowledges an asynchronous run.
type StartRunResponse struct {
	RunID     string                     `json:"runId"`
	ProgramID string                     `json:"programId"`
	Status    models.AllocationRunStatus `json:"status"`
}
