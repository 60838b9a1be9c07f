package scheduler

type roomCell struct {
	RoomID string
	Cell   TimeCell
}

type lecturerCell struct {
	LecturerID string
	Cell       TimeCell
}

type lecturerDay struct {
	LecturerID string
	Day        Day
}

type groupCell struct {
	Group GroupKey
	Cell  TimeCell
}

type courseDay struct {
	CourseID string
	Day      Day
}

// Tracker is the occupancy scratchpad of a single run. It is not safe for
// concurrent use and must not be shared between runs.
type Tracker struct {
	roomBusy      map[roomCell]bool
	lecturerBlock map[lecturerCell]bool
	lecturerBusy  map[lecturerCell]bool
	dailyHours    map[lecturerDay]int
	totalHours    map[string]int
	groupBusy     map[groupCell]bool
	courseDaily   map[courseDay]int
}

// NewTracker builds an empty tracker with every lecturer's unavailable cells blocked.
func NewTracker(lecturers []Lecturer) *Tracker {
	t := &Tracker{
		roomBusy:      make(map[roomCell]bool),
		lecturerBlock: make(map[lecturerCell]bool),
		lecturerBusy:  make(map[lecturerCell]bool),
		dailyHours:    make(map[lecturerDay]int),
		totalHours:    make(map[string]int),
		groupBusy:     make(map[groupCell]bool),
		courseDaily:   make(map[courseDay]int),
	}
	for _, lecturer := range lecturers {
		for _, cell := range lecturer.Unavailable {
			t.Block(lecturer.ID, cell)
		}
	}
	return t
}

// Block marks a lecturer as unavailable for a cell.
func (t *Tracker) Block(lecturerID string, cell TimeCell) {
	t.lecturerBlock[lecturerCell{LecturerID: lecturerID, Cell: cell}] = true
}

// RoomBusy reports whether the room is taken in the cell.
func (t *Tracker) RoomBusy(roomID string, cell TimeCell) bool {
	return t.roomBusy[roomCell{RoomID: roomID, Cell: cell}]
}

// LecturerBusy reports whether the lecturer is teaching or unavailable in the cell.
func (t *Tracker) LecturerBusy(lecturerID string, cell TimeCell) bool {
	key := lecturerCell{LecturerID: lecturerID, Cell: cell}
	return t.lecturerBlock[key] || t.lecturerBusy[key]
}

// GroupBusy reports whether the cohort already attends a class in the cell.
func (t *Tracker) GroupBusy(group GroupKey, cell TimeCell) bool {
	return t.groupBusy[groupCell{Group: group, Cell: cell}]
}

// DailyHours returns the hours assigned to the lecturer on a day.
func (t *Tracker) DailyHours(lecturerID string, day Day) int {
	return t.dailyHours[lecturerDay{LecturerID: lecturerID, Day: day}]
}

// TotalHours returns the hours assigned to the lecturer in this run.
func (t *Tracker) TotalHours(lecturerID string) int {
	return t.totalHours[lecturerID]
}

// CourseSessionsOn returns the sessions of a course already placed on a day.
func (t *Tracker) CourseSessionsOn(courseID string, day Day) int {
	return t.courseDaily[courseDay{CourseID: courseID, Day: day}]
}

// Commit records a placed session against every resource it consumes.
func (t *Tracker) Commit(course Course, lecturerID, roomID string, slot TimeSlot) {
	cell := slot.Cell()
	t.roomBusy[roomCell{RoomID: roomID, Cell: cell}] = true
	t.lecturerBusy[lecturerCell{LecturerID: lecturerID, Cell: cell}] = true
	t.dailyHours[lecturerDay{LecturerID: lecturerID, Day: slot.Day}]++
	t.totalHours[lecturerID]++
	t.groupBusy[groupCell{Group: course.Group(), Cell: cell}] = true
	t.courseDaily[courseDay{CourseID: course.ID, Day: slot.Day}]++
}
