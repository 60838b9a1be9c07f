package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceRepositoryListLecturersAndRooms(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM lecturers WHERE active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "max_daily_hours", "active", "created_at", "updated_at"}).
			AddRow("l1", "Ana", "ana@campus.example", 4, true, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE active = TRUE")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "capacity", "active", "created_at", "updated_at"}).
			AddRow("r1", "A-101", "Lecture Hall", 120, true, now, now))

	lecturers, err := repo.ListLecturers(context.Background())
	require.NoError(t, err)
	require.Len(t, lecturers, 1)
	assert.Equal(t, 4, lecturers[0].MaxDailyHours)

	rooms, err := repo.ListRooms(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Equal(t, 120, rooms[0].Capacity)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListUnavailability(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM lecturer_unavailability")).
		WithArgs("l1", "l2").
		WillReturnRows(sqlmock.NewRows([]string{"lecturer_id", "day_of_week", "hour"}).
			AddRow("l1", 1, 8).
			AddRow("l2", 3, 14))

	rows, err := repo.ListUnavailability(context.Background(), []string{"l1", "l2"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 14, rows[1].Hour)

	empty, err := repo.ListUnavailability(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
	require.NoError(t, mock.ExpectationsWereMet())
}
