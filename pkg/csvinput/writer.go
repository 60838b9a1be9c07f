package csvinput

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/sma-timetable/internal/scheduler"
)

// ConflictRecord is one line of the conflict report.
type ConflictRecord struct {
	Kind       string `csv:"kind"`
	CourseID   string `csv:"course_id"`
	LecturerID string `csv:"lecturer_id"`
	Session    int    `csv:"session"`
	Dimension  string `csv:"dimension"`
	Message    string `csv:"message"`
}

// WriteConflicts renders the conflict report with a header line, even when
// there are no conflicts.
func WriteConflicts(out io.Writer, conflicts []scheduler.Conflict) error {
	records := make([]ConflictRecord, 0, len(conflicts))
	for _, c := range conflicts {
		records = append(records, ConflictRecord{
			Kind:       string(c.Kind),
			CourseID:   c.CourseID,
			LecturerID: c.LecturerID,
			Session:    c.Session,
			Dimension:  c.Dimension,
			Message:    c.Message,
		})
	}
	if err := gocsv.Marshal(&records, out); err != nil {
		return fmt.Errorf("encode conflicts: %w", err)
	}
	return nil
}
