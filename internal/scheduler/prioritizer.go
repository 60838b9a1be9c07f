package scheduler

import "sort"

// PrioritizeCourses orders courses by year, semester, credit hours and expected
// students, all descending. Equal keys keep their input order.
func PrioritizeCourses(courses []Course) []Course {
	sorted := make([]Course, len(courses))
	copy(sorted, courses)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Year != b.Year {
			return a.Year > b.Year
		}
		if a.Semester != b.Semester {
			return a.Semester > b.Semester
		}
		if a.Credits() != b.Credits() {
			return a.Credits() > b.Credits()
		}
		return a.Students() > b.Students()
	})
	return sorted
}
