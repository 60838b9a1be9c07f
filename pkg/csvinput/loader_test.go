package csvinput

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/scheduler"
)

func TestLoaderCourses(t *testing.T) {
	input := `id,program_id,name,credit_hours,year,semester,lecturer_id,expected_students
c1,p1,Algebra,4,1,1,l1,45
c2,p1,Physics,3,2,1,,
`
	courses, err := NewLoader(0).Courses(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, courses, 2)

	assert.Equal(t, "c1", courses[0].ID)
	assert.Equal(t, 4, courses[0].CreditHours)
	require.NotNil(t, courses[0].ExpectedStudents)
	assert.Equal(t, 45, *courses[0].ExpectedStudents)
	assert.Equal(t, "l1", courses[0].LecturerID)

	assert.Nil(t, courses[1].ExpectedStudents)
	assert.Equal(t, 30, courses[1].Students())
}

func TestLoaderCoursesRejectsBadStudentCount(t *testing.T) {
	input := "id,program_id,name,credit_hours,year,semester,lecturer_id,expected_students\nc1,p1,A,3,1,1,l1,many\n"
	_, err := NewLoader(',').Courses(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestLoaderSemicolonDelimiter(t *testing.T) {
	input := "id;name;capacity\nr1;Hall;120\nr2;Lab;30\n"
	rooms, err := NewLoader(';').Rooms(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []scheduler.Room{{ID: "r1", Name: "Hall", Capacity: 120}, {ID: "r2", Name: "Lab", Capacity: 30}}, rooms)
}

func TestLoaderApplyUnavailability(t *testing.T) {
	loader := NewLoader(0)
	lecturers, err := loader.Lecturers(strings.NewReader("id,name,max_daily_hours\nl1,Ana,4\nl2,Budi,0\n"))
	require.NoError(t, err)

	err = loader.ApplyUnavailability(strings.NewReader("lecturer_id,day,hour\nl1,Mon,8\nl1,tuesday,10\n"), lecturers)
	require.NoError(t, err)
	assert.Equal(t, []scheduler.TimeCell{{Day: scheduler.Monday, Hour: 8}, {Day: scheduler.Tuesday, Hour: 10}}, lecturers[0].Unavailable)
	assert.Empty(t, lecturers[1].Unavailable)
	assert.Equal(t, 4, lecturers[0].MaxDailyHours)

	err = loader.ApplyUnavailability(strings.NewReader("lecturer_id,day,hour\nghost,Mon,8\n"), lecturers)
	assert.ErrorContains(t, err, "unknown lecturer")

	err = loader.ApplyUnavailability(strings.NewReader("lecturer_id,day,hour\nl2,Someday,8\n"), lecturers)
	assert.ErrorContains(t, err, "unknown day")
}

func TestOpenReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rooms.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name,capacity\nr1,Hall,90\n"), 0o644))

	rooms, err := Open(path, NewLoader(0).Rooms)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 90, rooms[0].Capacity)

	_, err = Open(filepath.Join(t.TempDir(), "missing.csv"), NewLoader(0).Rooms)
	assert.Error(t, err)
}

func TestWriteConflicts(t *testing.T) {
	buf := &bytes.Buffer{}
	err := WriteConflicts(buf, []scheduler.Conflict{
		{Kind: scheduler.ConflictSchedulingFailure, CourseID: "c1", LecturerID: "l1", Session: 2, Message: "no slot"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "kind,course_id,lecturer_id,session,dimension,message", lines[0])
	assert.Equal(t, "SchedulingFailure,c1,l1,2,,no slot", lines[1])
}
