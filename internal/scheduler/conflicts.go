package scheduler

import "fmt"

// Overlap dimensions reported by DetectOverlaps.
const (
	DimensionGroup    = "GROUP"
	DimensionRoom     = "ROOM"
	DimensionLecturer = "LECTURER"
)

type overlapKey struct {
	Dimension string
	Owner     string
	Year      int
	Semester  int
	Day       Day
	StartTime string
}

// DetectOverlaps re-checks committed entries for double bookings of a cohort,
// a room or a lecturer. The allocator's own bookkeeping should make this
// return nothing; a non-empty result points at an allocator bug.
func DetectOverlaps(entries []ScheduleEntry) []Conflict {
	groups := make(map[overlapKey][]ScheduleEntry)
	var order []overlapKey
	add := func(key overlapKey, entry ScheduleEntry) {
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], entry)
	}

	for _, entry := range entries {
		add(overlapKey{Dimension: DimensionGroup, Year: entry.Year, Semester: entry.Semester, Day: entry.Day, StartTime: entry.StartTime}, entry)
		add(overlapKey{Dimension: DimensionRoom, Owner: entry.RoomID, Day: entry.Day, StartTime: entry.StartTime}, entry)
		add(overlapKey{Dimension: DimensionLecturer, Owner: entry.LecturerID, Day: entry.Day, StartTime: entry.StartTime}, entry)
	}

	var conflicts []Conflict
	for _, key := range order {
		clash := groups[key]
		if len(clash) < 2 {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Kind:      ConflictOverlap,
			Message:   overlapMessage(key, len(clash)),
			CourseID:  clash[0].CourseID,
			Dimension: key.Dimension,
			Entries:   clash,
		})
	}
	return conflicts
}

func overlapMessage(key overlapKey, count int) string {
	switch key.Dimension {
	case DimensionRoom:
		return fmt.Sprintf("room %s has %d sessions on %s at %s", key.Owner, count, key.Day, key.StartTime)
	case DimensionLecturer:
		return fmt.Sprintf("lecturer %s has %d sessions on %s at %s", key.Owner, count, key.Day, key.StartTime)
	default:
		return fmt.Sprintf("year %d semester %d has %d sessions on %s at %s", key.Year, key.Semester, count, key.Day, key.StartTime)
	}
}
