package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func TestTimetableRepositoryReplaceForProgram(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_entries WHERE program_id = $1")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM timetable_conflicts WHERE program_id = $1")).
		WithArgs("p1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO timetable_entries").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO timetable_conflicts").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	entries := []models.TimetableEntry{
		{RunID: "run-1", CourseID: "c1", LecturerID: "l1", RoomID: "r1", DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00", Year: 1, Semester: 1},
		{RunID: "run-1", CourseID: "c1", LecturerID: "l1", RoomID: "r1", DayOfWeek: 2, StartTime: "08:00", EndTime: "09:00", Year: 1, Semester: 1},
	}
	course := "c2"
	conflicts := []models.TimetableConflict{{RunID: "run-1", Kind: "IncompleteScheduling", Message: "1 of 2", CourseID: &course}}

	require.NoError(t, repo.ReplaceForProgram(context.Background(), "p1", entries, conflicts))
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, "p1", entries[1].ProgramID)
	assert.Equal(t, 0, conflicts[0].Position)
	assert.JSONEq(t, `{}`, string(conflicts[0].Details))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryReplaceRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM timetable_entries").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM timetable_conflicts").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO timetable_entries").WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	err := repo.ReplaceForProgram(context.Background(), "p1", []models.TimetableEntry{{CourseID: "ghost"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert timetable entry")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTimetableRepositoryListEntries(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "program_id", "run_id", "course_id", "lecturer_id", "room_id", "day_of_week", "start_time", "end_time",
		"year", "semester", "created_at", "course_name", "lecturer_name", "room_name"}).
		AddRow("e1", "p1", "run-1", "c1", "l1", "r1", 1, "08:00", "09:00", 1, 1, now, "Algebra", "Ana", "Hall")
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_entries e")).
		WithArgs("p1").
		WillReturnRows(rows)

	entries, err := repo.ListEntries(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "08:00", entries[0].StartTime)
	assert.Equal(t, "Algebra", entries[0].CourseName)
	assert.Equal(t, "Hall", entries[0].RoomName)
}

func TestTimetableRepositoryListConflicts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTimetableRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "program_id", "run_id", "position", "kind", "message", "course_id", "lecturer_id", "session", "dimension", "details", "created_at"}).
		AddRow("k1", "p1", "run-1", 0, "LecturerMissing", "no lecturer", "c1", nil, nil, nil, []byte(`{}`), now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM timetable_conflicts WHERE program_id = $1 ORDER BY position ASC")).
		WithArgs("p1").
		WillReturnRows(rows)

	conflicts, err := repo.ListConflicts(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "LecturerMissing", conflicts[0].Kind)
	assert.Nil(t, conflicts[0].Session)
}
