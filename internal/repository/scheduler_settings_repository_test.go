package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func TestSchedulerSettingsRepositoryGet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchedulerSettingsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduler_settings WHERE program_id = $1")).
		WithArgs("p1").
		WillReturnRows(sqlmock.NewRows([]string{"program_id", "settings", "updated_by", "updated_at"}).
			AddRow("p1", []byte(`{"allowWeekends":true}`), "u1", time.Now()))

	stored, err := repo.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"allowWeekends":true}`, string(stored.Settings))

	mock.ExpectQuery(regexp.QuoteMeta("FROM scheduler_settings WHERE program_id = $1")).
		WithArgs("p2").
		WillReturnError(sql.ErrNoRows)
	_, err = repo.Get(context.Background(), "p2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSchedulerSettingsRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSchedulerSettingsRepository(db)

	user := "u1"
	mock.ExpectExec("INSERT INTO scheduler_settings").
		WithArgs("p1", types.JSONText(`{"maxDailyHours":4}`), &user, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	settings := &models.SchedulerSettings{ProgramID: "p1", Settings: types.JSONText(`{"maxDailyHours":4}`), UpdatedBy: &user}
	require.NoError(t, repo.Upsert(context.Background(), settings))
	assert.False(t, settings.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
