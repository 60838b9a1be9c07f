package scheduler

import (
	"context"
	"fmt"
)

// ProgressFunc is called after each course with the number of courses processed.
type ProgressFunc func(done, total int)

type allocateOptions struct {
	progress ProgressFunc
}

// Option customises a call to Allocate.
type Option func(*allocateOptions)

// WithProgress registers a progress callback invoked at every course boundary.
func WithProgress(fn ProgressFunc) Option {
	return func(o *allocateOptions) {
		o.progress = fn
	}
}

// Allocate runs the greedy single-pass allocation. Courses are visited in
// priority order and every session takes the first suitable slot of the
// universe that has a free room. Nothing committed is ever revisited.
//
// Cancellation through ctx is only observed between courses; the entries
// placed so far are returned with StatusCancelled.
func Allocate(ctx context.Context, in Input, opts ...Option) Result {
	options := allocateOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	settings := in.Settings.Normalize()
	a := &allocation{
		program:   in.Program,
		lecturers: in.Lecturers,
		rooms:     in.Rooms,
		settings:  settings,
		universe:  BuildSlotUniverse(settings),
		tracker:   NewTracker(in.Lecturers),
	}
	a.rooms = a.roomPool()

	courses := PrioritizeCourses(in.Courses)
	status := StatusComplete
	for i, course := range courses {
		if ctx.Err() != nil {
			status = StatusCancelled
			break
		}
		a.scheduleCourse(course)
		if options.progress != nil {
			options.progress(i+1, len(courses))
		}
	}

	a.conflicts = append(a.conflicts, DetectOverlaps(a.entries)...)

	return Result{
		Status:    status,
		Entries:   nonNilEntries(a.entries),
		Conflicts: nonNilConflicts(a.conflicts),
		Outcomes:  a.outcomes,
	}
}

type allocation struct {
	program   Program
	lecturers []Lecturer
	rooms     []Room
	settings  Settings
	universe  []TimeSlot
	tracker   *Tracker
	entries   []ScheduleEntry
	conflicts []Conflict
	outcomes  []CourseOutcome
}

// roomPool applies the program-wide capacity floor when enabled. When no room
// meets the floor the full pool is kept and a RoomCapacity conflict is recorded.
func (a *allocation) roomPool() []Room {
	if !a.settings.ConsiderRoomCapacity || a.program.StudentCount <= 0 || len(a.rooms) == 0 {
		return a.rooms
	}
	filtered := filterRoomsByCapacity(a.rooms, a.program.StudentCount)
	if len(filtered) > 0 {
		return filtered
	}
	a.conflicts = append(a.conflicts, Conflict{
		Kind:    ConflictRoomCapacity,
		Message: fmt.Sprintf("no room can seat the %d students of program %s", a.program.StudentCount, a.program.ID),
	})
	return a.rooms
}

func (a *allocation) scheduleCourse(course Course) {
	if err := course.validate(); err != nil {
		a.conflicts = append(a.conflicts, Conflict{
			Kind:     ConflictError,
			Message:  err.Error(),
			CourseID: course.ID,
		})
		a.skip(course)
		return
	}

	lecturer, ok := SelectLecturer(course, a.lecturers, a.tracker, a.settings)
	if !ok {
		a.conflicts = append(a.conflicts, Conflict{
			Kind:     ConflictLecturerMissing,
			Message:  fmt.Sprintf("no lecturer available for course %s", course.ID),
			CourseID: course.ID,
		})
		a.skip(course)
		return
	}
	if len(a.rooms) == 0 {
		a.conflicts = append(a.conflicts, Conflict{
			Kind:       ConflictError,
			Message:    fmt.Sprintf("no rooms available for course %s", course.ID),
			CourseID:   course.ID,
			LecturerID: lecturer.ID,
		})
		a.skip(course)
		return
	}

	needed := a.settings.SessionsNeeded(course.Credits())
	scheduled := 0
	for session := 0; session < needed; session++ {
		if a.placeSession(course, lecturer) {
			scheduled++
			continue
		}
		a.conflicts = append(a.conflicts, Conflict{
			Kind:       ConflictSchedulingFailure,
			Message:    fmt.Sprintf("no suitable slot for session %d of course %s with lecturer %s", session+1, course.ID, lecturer.ID),
			CourseID:   course.ID,
			LecturerID: lecturer.ID,
			Session:    session + 1,
		})
	}

	if scheduled < needed {
		a.conflicts = append(a.conflicts, Conflict{
			Kind:       ConflictIncompleteScheduling,
			Message:    fmt.Sprintf("course %s scheduled %d of %d sessions", course.ID, scheduled, needed),
			CourseID:   course.ID,
			LecturerID: lecturer.ID,
		})
	}
	a.outcomes = append(a.outcomes, CourseOutcome{CourseID: course.ID, Needed: needed, Scheduled: scheduled})
}

// skip records a course that never reached placement. A malformed course has
// no meaningful session count, so its Needed is zero.
func (a *allocation) skip(course Course) {
	a.outcomes = append(a.outcomes, CourseOutcome{
		CourseID: course.ID,
		Needed:   a.settings.SessionsNeeded(course.Credits()),
		Skipped:  true,
	})
}

func (a *allocation) placeSession(course Course, lecturer Lecturer) bool {
	for _, slot := range a.universe {
		if !a.suitable(course, lecturer, slot) {
			continue
		}
		room, ok := SelectRoom(course, slot, a.rooms, a.tracker, a.settings)
		if !ok {
			continue
		}
		a.commit(course, lecturer, room, slot)
		return true
	}
	return false
}

func (a *allocation) suitable(course Course, lecturer Lecturer, slot TimeSlot) bool {
	cell := slot.Cell()
	if a.tracker.GroupBusy(course.Group(), cell) {
		return false
	}
	if a.tracker.LecturerBusy(lecturer.ID, cell) {
		return false
	}
	if a.tracker.DailyHours(lecturer.ID, slot.Day) >= a.maxDailyHours(lecturer) {
		return false
	}
	if a.settings.AvoidBackToBack {
		before := TimeCell{Day: slot.Day, Hour: slot.StartHour - 1}
		after := TimeCell{Day: slot.Day, Hour: slot.StartHour + 1}
		if a.tracker.LecturerBusy(lecturer.ID, before) || a.tracker.LecturerBusy(lecturer.ID, after) {
			return false
		}
	}
	if a.settings.SpreadCoursesAcrossDays && a.tracker.CourseSessionsOn(course.ID, slot.Day) >= a.settings.MaxSessionsPerDay {
		return false
	}
	return true
}

func (a *allocation) maxDailyHours(lecturer Lecturer) int {
	if lecturer.MaxDailyHours > 0 {
		return lecturer.MaxDailyHours
	}
	return a.settings.MaxDailyHours
}

func (a *allocation) commit(course Course, lecturer Lecturer, room Room, slot TimeSlot) {
	a.tracker.Commit(course, lecturer.ID, room.ID, slot)
	programID := course.ProgramID
	if programID == "" {
		programID = a.program.ID
	}
	a.entries = append(a.entries, ScheduleEntry{
		CourseID:   course.ID,
		LecturerID: lecturer.ID,
		RoomID:     room.ID,
		Day:        slot.Day,
		StartTime:  formatHour(slot.StartHour),
		EndTime:    formatHour(slot.EndHour),
		ProgramID:  programID,
		Year:       course.Year,
		Semester:   course.Semester,
	})
}

func nonNilEntries(entries []ScheduleEntry) []ScheduleEntry {
	if entries == nil {
		return []ScheduleEntry{}
	}
	return entries
}

func nonNilConflicts(conflicts []Conflict) []Conflict {
	if conflicts == nil {
		return []Conflict{}
	}
	return conflicts
}
