package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type programRepoStub struct {
	program *models.Program
	courses []models.Course
	filter  models.CourseFilter
}

func (s *programRepoStub) FindByID(ctx context.Context, id string) (*models.Program, error) {
	if s.program == nil || s.program.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.program, nil
}

func (s *programRepoStub) ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error) {
	s.filter = filter
	return s.courses, nil
}

type resourceRepoStub struct {
	lecturers []models.Lecturer
	blocked   []models.LecturerUnavailability
	rooms     []models.Room
}

func (s *resourceRepoStub) ListLecturers(ctx context.Context) ([]models.Lecturer, error) {
	return s.lecturers, nil
}

func (s *resourceRepoStub) ListUnavailability(ctx context.Context, ids []string) ([]models.LecturerUnavailability, error) {
	return s.blocked, nil
}

func (s *resourceRepoStub) ListRooms(ctx context.Context) ([]models.Room, error) {
	return s.rooms, nil
}

type timetableStoreStub struct {
	replaced   bool
	entries    []models.TimetableEntry
	conflicts  []models.TimetableConflict
	views      []models.TimetableEntryView
	listCalls  int
	replaceErr error
}

func (s *timetableStoreStub) ReplaceForProgram(ctx context.Context, programID string, entries []models.TimetableEntry, conflicts []models.TimetableConflict) error {
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.replaced = true
	s.entries = entries
	s.conflicts = conflicts
	return nil
}

func (s *timetableStoreStub) ListEntries(ctx context.Context, programID string) ([]models.TimetableEntryView, error) {
	s.listCalls++
	return s.views, nil
}

func (s *timetableStoreStub) ListConflicts(ctx context.Context, programID string) ([]models.TimetableConflict, error) {
	return s.conflicts, nil
}

type staticSettings struct {
	settings scheduler.Settings
}

func (s staticSettings) Effective(ctx context.Context, programID string) (scheduler.Settings, error) {
	return s.settings, nil
}

type memoryCache struct {
	values      map[string]interface{}
	invalidated []string
}

func (c *memoryCache) Get(ctx context.Context, key string, dest interface{}) bool {
	value, ok := c.values[key]
	if !ok {
		return false
	}
	*(dest.(*dto.TimetableResponse)) = *(value.(*dto.TimetableResponse))
	return true
}

func (c *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.values == nil {
		c.values = map[string]interface{}{}
	}
	c.values[key] = value
}

func (c *memoryCache) InvalidateProgram(ctx context.Context, programID string) error {
	c.invalidated = append(c.invalidated, programID)
	c.values = nil
	return nil
}

func strPtr(v string) *string { return &v }

func newTimetableFixture() (*programRepoStub, *resourceRepoStub, *timetableStoreStub, *memoryCache, *TimetableService) {
	programs := &programRepoStub{
		program: &models.Program{ID: "p1", Code: "CS", Name: "Computer Science", StudentCount: 40},
		courses: []models.Course{
			{ID: "c1", ProgramID: "p1", Code: "CS101", Name: "Algorithms", CreditHours: 3, Year: 1, Semester: 1, LecturerID: strPtr("l1")},
			{ID: "c2", ProgramID: "p1", Code: "CS102", Name: "Broken", CreditHours: -1, Year: 1, Semester: 1},
		},
	}
	resources := &resourceRepoStub{
		lecturers: []models.Lecturer{{ID: "l1", Name: "Ana", MaxDailyHours: 4, Active: true}},
		blocked:   []models.LecturerUnavailability{{LecturerID: "l1", DayOfWeek: 1, Hour: 8}},
		rooms:     []models.Room{{ID: "r1", Code: "A-101", Name: "Hall", Capacity: 60, Active: true}},
	}
	store := &timetableStoreStub{}
	cache := &memoryCache{}
	svc := NewTimetableService(programs, resources, store, staticSettings{settings: scheduler.DefaultSettings()}, cache, nil, nil, zap.NewNop(),
		TimetableServiceConfig{Enabled: true, CacheTTL: time.Minute})
	return programs, resources, store, cache, svc
}

func TestTimetableServiceGeneratePersistsAndInvalidates(t *testing.T) {
	_, _, store, cache, svc := newTimetableFixture()

	resp, err := svc.Generate(context.Background(), "p1", dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusComplete, resp.Status)
	assert.True(t, resp.Persisted)
	require.Len(t, resp.Entries, 2)
	for _, entry := range resp.Entries {
		assert.Equal(t, "c1", entry.CourseID)
		assert.False(t, entry.Day == scheduler.Monday && entry.StartTime == "08:00")
	}

	require.True(t, store.replaced)
	require.Len(t, store.entries, 2)
	assert.Equal(t, resp.RunID, store.entries[0].RunID)
	require.NotEmpty(t, store.conflicts)
	assert.Equal(t, string(scheduler.ConflictError), store.conflicts[0].Kind)
	require.NotNil(t, store.conflicts[0].CourseID)
	assert.Equal(t, "c2", *store.conflicts[0].CourseID)
	assert.Equal(t, []string{"p1"}, cache.invalidated)
	assert.Equal(t, 2, resp.Summary.SessionsScheduled)
}

func TestTimetableServiceDryRunSkipsPersistence(t *testing.T) {
	programs, _, store, cache, svc := newTimetableFixture()
	year := 1
	resp, err := svc.Generate(context.Background(), "p1", dto.GenerateTimetableRequest{DryRun: true, Year: &year})
	require.NoError(t, err)
	assert.False(t, resp.Persisted)
	assert.True(t, resp.DryRun)
	assert.False(t, store.replaced)
	assert.Empty(t, cache.invalidated)
	require.NotNil(t, programs.filter.Year)
	assert.Equal(t, 1, *programs.filter.Year)
}

func TestTimetableServiceCancelledRunIsNotPersisted(t *testing.T) {
	_, _, store, _, svc := newTimetableFixture()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resp, err := svc.Generate(ctx, "p1", dto.GenerateTimetableRequest{})
	require.NoError(t, err)
	assert.Equal(t, scheduler.StatusCancelled, resp.Status)
	assert.False(t, resp.Persisted)
	assert.False(t, store.replaced)
}

func TestTimetableServiceSettingsOverride(t *testing.T) {
	_, _, _, _, svc := newTimetableFixture()
	weekends := true
	resp, err := svc.Generate(context.Background(), "p1", dto.GenerateTimetableRequest{
		DryRun:   true,
		Settings: &dto.SchedulerSettingsPayload{AllowWeekends: &weekends},
	})
	require.NoError(t, err)
	assert.True(t, resp.Settings.AllowWeekends)
	assert.Equal(t, scheduler.DefaultMaxDailyHours, resp.Settings.MaxDailyHours)
}

func TestTimetableServiceRejectsEmptyHourWindow(t *testing.T) {
	_, _, store, cache, svc := newTimetableFixture()
	late := 20
	_, err := svc.Generate(context.Background(), "p1", dto.GenerateTimetableRequest{
		Settings: &dto.SchedulerSettingsPayload{PreferredStartTime: &late},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, store.replaced)
	assert.Empty(t, cache.invalidated)
}

func TestTimetableServiceErrors(t *testing.T) {
	_, _, store, _, svc := newTimetableFixture()

	_, err := svc.Generate(context.Background(), "missing", dto.GenerateTimetableRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	store.replaceErr = errors.New("db down")
	_, err = svc.Generate(context.Background(), "p1", dto.GenerateTimetableRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	disabled := NewTimetableService(nil, nil, nil, nil, nil, nil, nil, nil, TimetableServiceConfig{})
	_, err = disabled.Generate(context.Background(), "p1", dto.GenerateTimetableRequest{})
	assert.True(t, appErrors.Is(err, appErrors.ErrSchedulerDisabled))
}

func TestTimetableServiceGetTimetableUsesCache(t *testing.T) {
	_, _, store, _, svc := newTimetableFixture()
	store.views = []models.TimetableEntryView{{TimetableEntry: models.TimetableEntry{ID: "e1", CourseID: "c1"}, CourseName: "Algorithms"}}

	first, hit, err := svc.GetTimetable(context.Background(), "p1")
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, first.Entries, 1)

	second, hit, err := svc.GetTimetable(context.Background(), "p1")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Algorithms", second.Entries[0].CourseName)
	assert.Equal(t, 1, store.listCalls)
}

func TestTimetableServiceListConflictsNeverNil(t *testing.T) {
	_, _, _, _, svc := newTimetableFixture()
	conflicts, err := svc.ListConflicts(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)
}
