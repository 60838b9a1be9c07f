package models

import "time"

// Program groups the courses that are timetabled together.
type Program struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	StudentCount int       `db:"student_count" json:"student_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Course is a program course with its weekly credit load.
type Course struct {
	ID               string    `db:"id" json:"id"`
	ProgramID        string    `db:"program_id" json:"program_id"`
	Code             string    `db:"code" json:"code"`
	Name             string    `db:"name" json:"name"`
	CreditHours      int       `db:"credit_hours" json:"credit_hours"`
	Year             int       `db:"year" json:"year"`
	Semester         int       `db:"semester" json:"semester"`
	LecturerID       *string   `db:"lecturer_id" json:"lecturer_id,omitempty"`
	ExpectedStudents *int      `db:"expected_students" json:"expected_students,omitempty"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows the courses loaded for a run.
type CourseFilter struct {
	ProgramID string
	Year      *int
	Semester  *int
}

// Lecturer is a member of the shared teaching pool.
type Lecturer struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Email         string    `db:"email" json:"email"`
	MaxDailyHours int       `db:"max_daily_hours" json:"max_daily_hours"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// LecturerUnavailability blocks one lecturer hour on one weekday.
type LecturerUnavailability struct {
	LecturerID string `db:"lecturer_id" json:"lecturer_id"`
	DayOfWeek  int    `db:"day_of_week" json:"day_of_week"`
	Hour       int    `db:"hour" json:"hour"`
}

// Room is a bookable teaching space.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
