package csvinput

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/noah-isme/sma-timetable/internal/scheduler"
)

// CourseRecord is one line of the courses file.
type CourseRecord struct {
	ID               string `csv:"id"`
	ProgramID        string `csv:"program_id"`
	Name             string `csv:"name"`
	CreditHours      int    `csv:"credit_hours"`
	Year             int    `csv:"year"`
	Semester         int    `csv:"semester"`
	LecturerID       string `csv:"lecturer_id"`
	ExpectedStudents string `csv:"expected_students"`
}

// LecturerRecord is one line of the lecturers file.
type LecturerRecord struct {
	ID            string `csv:"id"`
	Name          string `csv:"name"`
	MaxDailyHours int    `csv:"max_daily_hours"`
}

// RoomRecord is one line of the rooms file.
type RoomRecord struct {
	ID       string `csv:"id"`
	Name     string `csv:"name"`
	Capacity int    `csv:"capacity"`
}

// UnavailableRecord blocks a lecturer for one hour on one day.
type UnavailableRecord struct {
	LecturerID string `csv:"lecturer_id"`
	Day        string `csv:"day"`
	Hour       int    `csv:"hour"`
}

// Loader decodes allocation inputs from delimited text.
type Loader struct {
	Delimiter rune
}

// NewLoader returns a loader for the given delimiter; zero means comma.
func NewLoader(delim rune) *Loader {
	if delim == 0 {
		delim = ','
	}
	return &Loader{Delimiter: delim}
}

func (l *Loader) reader(in io.Reader) gocsv.CSVReader {
	r := csv.NewReader(in)
	r.Comma = l.Delimiter
	r.TrimLeadingSpace = true
	return r
}

// Courses decodes course records. A blank expected_students column leaves the
// engine default in place.
func (l *Loader) Courses(in io.Reader) ([]scheduler.Course, error) {
	var records []CourseRecord
	if err := gocsv.UnmarshalCSV(l.reader(in), &records); err != nil {
		return nil, fmt.Errorf("decode courses: %w", err)
	}
	courses := make([]scheduler.Course, 0, len(records))
	for i, rec := range records {
		course := scheduler.Course{
			ID:          strings.TrimSpace(rec.ID),
			ProgramID:   strings.TrimSpace(rec.ProgramID),
			Name:        rec.Name,
			CreditHours: rec.CreditHours,
			Year:        rec.Year,
			Semester:    rec.Semester,
			LecturerID:  strings.TrimSpace(rec.LecturerID),
		}
		if raw := strings.TrimSpace(rec.ExpectedStudents); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("course line %d: expected_students %q: %w", i+2, raw, err)
			}
			course.ExpectedStudents = &n
		}
		courses = append(courses, course)
	}
	return courses, nil
}

// Lecturers decodes lecturer records.
func (l *Loader) Lecturers(in io.Reader) ([]scheduler.Lecturer, error) {
	var records []LecturerRecord
	if err := gocsv.UnmarshalCSV(l.reader(in), &records); err != nil {
		return nil, fmt.Errorf("decode lecturers: %w", err)
	}
	lecturers := make([]scheduler.Lecturer, 0, len(records))
	for _, rec := range records {
		lecturers = append(lecturers, scheduler.Lecturer{
			ID:            strings.TrimSpace(rec.ID),
			Name:          rec.Name,
			MaxDailyHours: rec.MaxDailyHours,
		})
	}
	return lecturers, nil
}

// Rooms decodes room records.
func (l *Loader) Rooms(in io.Reader) ([]scheduler.Room, error) {
	var records []RoomRecord
	if err := gocsv.UnmarshalCSV(l.reader(in), &records); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	rooms := make([]scheduler.Room, 0, len(records))
	for _, rec := range records {
		rooms = append(rooms, scheduler.Room{
			ID:       strings.TrimSpace(rec.ID),
			Name:     rec.Name,
			Capacity: rec.Capacity,
		})
	}
	return rooms, nil
}

// ApplyUnavailability decodes blocked hours and attaches them to the matching
// lecturers. Rows naming an unknown lecturer or day are rejected.
func (l *Loader) ApplyUnavailability(in io.Reader, lecturers []scheduler.Lecturer) error {
	var records []UnavailableRecord
	if err := gocsv.UnmarshalCSV(l.reader(in), &records); err != nil {
		return fmt.Errorf("decode unavailability: %w", err)
	}
	index := make(map[string]int, len(lecturers))
	for i, lecturer := range lecturers {
		index[lecturer.ID] = i
	}
	for i, rec := range records {
		pos, ok := index[strings.TrimSpace(rec.LecturerID)]
		if !ok {
			return fmt.Errorf("unavailability line %d: unknown lecturer %q", i+2, rec.LecturerID)
		}
		day, ok := scheduler.ParseDay(rec.Day)
		if !ok {
			return fmt.Errorf("unavailability line %d: unknown day %q", i+2, rec.Day)
		}
		lecturers[pos].Unavailable = append(lecturers[pos].Unavailable, scheduler.TimeCell{Day: day, Hour: rec.Hour})
	}
	return nil
}

// Open is a convenience for reading a file through one of the decode methods.
func Open[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck
	return decode(f)
}
