package scheduler

import (
	"gonum.org/v1/gonum/stat"
)

// Summary condenses a run for reporting.
type Summary struct {
	Courses           int                  `json:"courses"`
	CoursesSkipped    int                  `json:"coursesSkipped"`
	SessionsNeeded    int                  `json:"sessionsNeeded"`
	SessionsScheduled int                  `json:"sessionsScheduled"`
	PlacementRatio    float64              `json:"placementRatio"`
	ConflictsByKind   map[ConflictKind]int `json:"conflictsByKind"`
	LecturerLoadMean  float64              `json:"lecturerLoadMean"`
	LecturerLoadStdev float64              `json:"lecturerLoadStdev"`
}

// Summarize derives placement and load statistics from a result. Skipped
// courses count towards the sessions needed. Every lecturer in the pool
// counts towards the load figures, including idle ones.
func Summarize(result Result, lecturers []Lecturer) Summary {
	summary := Summary{
		Courses:         len(result.Outcomes),
		ConflictsByKind: make(map[ConflictKind]int),
	}
	for _, outcome := range result.Outcomes {
		summary.SessionsNeeded += outcome.Needed
		summary.SessionsScheduled += outcome.Scheduled
		if outcome.Skipped {
			summary.CoursesSkipped++
		}
	}
	if summary.SessionsNeeded > 0 {
		summary.PlacementRatio = float64(summary.SessionsScheduled) / float64(summary.SessionsNeeded)
	}
	for _, conflict := range result.Conflicts {
		summary.ConflictsByKind[conflict.Kind]++
	}

	if len(lecturers) == 0 {
		return summary
	}
	hours := make(map[string]int, len(lecturers))
	for _, entry := range result.Entries {
		hours[entry.LecturerID]++
	}
	loads := make([]float64, len(lecturers))
	for i, lecturer := range lecturers {
		loads[i] = float64(hours[lecturer.ID])
	}
	summary.LecturerLoadMean = stat.Mean(loads, nil)
	if len(loads) > 1 {
		summary.LecturerLoadStdev = stat.StdDev(loads, nil)
	}
	return summary
}
