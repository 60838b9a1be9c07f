package scheduler

import "sort"

// SelectLecturer picks the lecturer for every session of a course. A pinned
// lecturer wins; otherwise the least-loaded lecturer when balancing, else the first.
// It returns false only when the pool is empty.
func SelectLecturer(course Course, lecturers []Lecturer, tracker *Tracker, settings Settings) (Lecturer, bool) {
	if len(lecturers) == 0 {
		return Lecturer{}, false
	}
	if course.LecturerID != "" {
		for _, lecturer := range lecturers {
			if lecturer.ID == course.LecturerID {
				return lecturer, true
			}
		}
	}
	if !settings.BalanceLecturerLoad {
		return lecturers[0], true
	}
	best := lecturers[0]
	for _, lecturer := range lecturers[1:] {
		if tracker.TotalHours(lecturer.ID) < tracker.TotalHours(best.ID) {
			best = lecturer
		}
	}
	return best, true
}

// SelectRoom returns a free room for the slot, or false when every room is taken.
// With PrioritizeRoomSize the smallest room that fits wins and the largest free
// room is the fallback. Ties go to input order. Capacity never makes a slot
// infeasible.
func SelectRoom(course Course, slot TimeSlot, rooms []Room, tracker *Tracker, settings Settings) (Room, bool) {
	cell := slot.Cell()
	free := make([]Room, 0, len(rooms))
	for _, room := range rooms {
		if !tracker.RoomBusy(room.ID, cell) {
			free = append(free, room)
		}
	}
	if len(free) == 0 {
		return Room{}, false
	}
	if !settings.PrioritizeRoomSize {
		return free[0], true
	}

	sort.SliceStable(free, func(i, j int) bool {
		return free[i].Capacity < free[j].Capacity
	})
	need := course.Students()
	for _, room := range free {
		if room.Capacity >= need {
			return room, true
		}
	}
	largest := free[len(free)-1].Capacity
	for _, room := range free {
		if room.Capacity == largest {
			return room, true
		}
	}
	return free[len(free)-1], true
}

func filterRoomsByCapacity(rooms []Room, floor int) []Room {
	var result []Room
	for _, room := range rooms {
		if room.Capacity >= floor {
			result = append(result, room)
		}
	}
	return result
}
