package scheduler

import (
	"fmt"
	"strings"
)

const (
	defaultCreditHours      = 3
	defaultExpectedStudents = 30
)

// Day is a weekday index, Monday=1 through Sunday=7.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = map[Day]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
	Sunday:    "SUNDAY",
}

var dayIndex = map[string]Day{
	"MONDAY":    Monday,
	"TUESDAY":   Tuesday,
	"WEDNESDAY": Wednesday,
	"THURSDAY":  Thursday,
	"FRIDAY":    Friday,
	"SATURDAY":  Saturday,
	"SUNDAY":    Sunday,
}

// String returns the upper-case day name.
func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DAY(%d)", int(d))
}

// Valid reports whether d is one of the seven weekdays.
func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

// ParseDay resolves a day name (case-insensitive, full or three-letter) to a Day.
func ParseDay(raw string) (Day, bool) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if day, ok := dayIndex[name]; ok {
		return day, true
	}
	if len(name) == 3 {
		for full, day := range dayIndex {
			if strings.HasPrefix(full, name) {
				return day, true
			}
		}
	}
	return 0, false
}

// TimeCell identifies a one-hour cell by day and start hour.
type TimeCell struct {
	Day  Day `json:"day"`
	Hour int `json:"hour"`
}

// TimeSlot is an atomic one-hour scheduling cell.
type TimeSlot struct {
	Day       Day `json:"day"`
	StartHour int `json:"startHour"`
	EndHour   int `json:"endHour"`
}

// Cell returns the key used by the tracker for this slot.
func (s TimeSlot) Cell() TimeCell {
	return TimeCell{Day: s.Day, Hour: s.StartHour}
}

// Program is the unit a timetable is generated for.
type Program struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	StudentCount int    `json:"studentCount"`
}

// Course carries the weekly demand of one course.
type Course struct {
	ID               string `json:"id"`
	ProgramID        string `json:"programId"`
	Name             string `json:"name"`
	CreditHours      int    `json:"creditHours"`
	Year             int    `json:"year"`
	Semester         int    `json:"semester"`
	LecturerID       string `json:"lecturerId,omitempty"`
	ExpectedStudents *int   `json:"expectedStudents,omitempty"`
}

// Credits returns the credit hours with the default applied.
func (c Course) Credits() int {
	if c.CreditHours == 0 {
		return defaultCreditHours
	}
	return c.CreditHours
}

// Students returns the expected enrolment with the default applied.
func (c Course) Students() int {
	if c.ExpectedStudents == nil {
		return defaultExpectedStudents
	}
	return *c.ExpectedStudents
}

// Group returns the student cohort the course belongs to.
func (c Course) Group() GroupKey {
	return GroupKey{Year: c.Year, Semester: c.Semester}
}

func (c Course) validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("course id is required")
	}
	if c.CreditHours < 0 {
		return fmt.Errorf("course %s has negative credit hours (%d)", c.ID, c.CreditHours)
	}
	if c.ExpectedStudents != nil && *c.ExpectedStudents < 0 {
		return fmt.Errorf("course %s has negative expected students (%d)", c.ID, *c.ExpectedStudents)
	}
	return nil
}

// Lecturer is a teaching resource with optional blocked cells.
type Lecturer struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Unavailable   []TimeCell `json:"unavailable,omitempty"`
	MaxDailyHours int        `json:"maxDailyHours,omitempty"`
}

// Room is a teaching space.
type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// GroupKey identifies a student cohort.
type GroupKey struct {
	Year     int
	Semester int
}

// ScheduleEntry is one committed session.
type ScheduleEntry struct {
	CourseID   string `json:"courseId"`
	LecturerID string `json:"lecturerId"`
	RoomID     string `json:"roomId"`
	Day        Day    `json:"day"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	ProgramID  string `json:"programId"`
	Year       int    `json:"year"`
	Semester   int    `json:"semester"`
}

// StartHour returns the hour the entry begins at.
func (e ScheduleEntry) StartHour() int {
	return parseHour(e.StartTime)
}

// ConflictKind classifies a recorded conflict.
type ConflictKind string

const (
	ConflictLecturerMissing      ConflictKind = "LecturerMissing"
	ConflictRoomCapacity         ConflictKind = "RoomCapacity"
	ConflictSchedulingFailure    ConflictKind = "SchedulingFailure"
	ConflictIncompleteScheduling ConflictKind = "IncompleteScheduling"
	ConflictOverlap              ConflictKind = "Overlap"
	ConflictError                ConflictKind = "Error"
)

// Conflict is an unsatisfied request or anomaly found during a run.
type Conflict struct {
	Kind       ConflictKind    `json:"kind"`
	Message    string          `json:"message"`
	CourseID   string          `json:"courseId,omitempty"`
	LecturerID string          `json:"lecturerId,omitempty"`
	Session    int             `json:"session,omitempty"`
	Dimension  string          `json:"dimension,omitempty"`
	Entries    []ScheduleEntry `json:"entries,omitempty"`
}

// RunStatus reports how a run ended.
type RunStatus string

const (
	StatusComplete  RunStatus = "complete"
	StatusCancelled RunStatus = "cancelled"
)

// Input is everything one allocation run consumes.
type Input struct {
	Program   Program
	Courses   []Course
	Lecturers []Lecturer
	Rooms     []Room
	Settings  Settings
}

// CourseOutcome records how many sessions a course needed and received.
// Skipped courses never reached session placement.
type CourseOutcome struct {
	CourseID  string `json:"courseId"`
	Needed    int    `json:"needed"`
	Scheduled int    `json:"scheduled"`
	Skipped   bool   `json:"skipped,omitempty"`
}

// Result is the output of one allocation run.
type Result struct {
	Status    RunStatus       `json:"status"`
	Entries   []ScheduleEntry `json:"entries"`
	Conflicts []Conflict      `json:"conflicts"`
	Outcomes  []CourseOutcome `json:"outcomes"`
}

func formatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

func parseHour(raw string) int {
	var hour, minute int
	if _, err := fmt.Sscanf(raw, "%d:%d", &hour, &minute); err != nil {
		return 0
	}
	return hour
}
