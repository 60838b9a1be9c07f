package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	"github.com/noah-isme/sma-timetable/pkg/cache"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type timetableProgramRepository interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
	ListCourses(ctx context.Context, filter models.CourseFilter) ([]models.Course, error)
}

type timetableResourceRepository interface {
	ListLecturers(ctx context.Context) ([]models.Lecturer, error)
	ListUnavailability(ctx context.Context, lecturerIDs []string) ([]models.LecturerUnavailability, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
}

type timetableStore interface {
	ReplaceForProgram(ctx context.Context, programID string, entries []models.TimetableEntry, conflicts []models.TimetableConflict) error
	ListEntries(ctx context.Context, programID string) ([]models.TimetableEntryView, error)
	ListConflicts(ctx context.Context, programID string) ([]models.TimetableConflict, error)
}

type settingsResolver interface {
	Effective(ctx context.Context, programID string) (scheduler.Settings, error)
}

type timetableCache interface {
	Get(ctx context.Context, key string, dest interface{}) bool
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration)
	InvalidateProgram(ctx context.Context, programID string) error
}

// TimetableServiceConfig tunes the timetable service.
type TimetableServiceConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// TimetableService loads a program's inputs, runs the allocator over them and
// persists the outcome.
type TimetableService struct {
	programs  timetableProgramRepository
	resources timetableResourceRepository
	store     timetableStore
	settings  settingsResolver
	cache     timetableCache
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       TimetableServiceConfig
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(
	programs timetableProgramRepository,
	resources timetableResourceRepository,
	store timetableStore,
	settings settingsResolver,
	cache timetableCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableServiceConfig,
) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TimetableService{
		programs:  programs,
		resources: resources,
		store:     store,
		settings:  settings,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Generate runs the allocator synchronously under a fresh run id.
func (s *TimetableService) Generate(ctx context.Context, programID string, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	return s.Execute(ctx, uuid.NewString(), programID, req, nil)
}

// Execute runs the allocator for a program. Unless the request is a dry run
// and the run finished, the program's previous timetable and conflicts are
// replaced with the new ones in a single transaction. Cancelled runs are
// returned but never persisted.
func (s *TimetableService) Execute(ctx context.Context, runID, programID string, req dto.GenerateTimetableRequest, progress scheduler.ProgressFunc) (*dto.GenerateTimetableResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrSchedulerDisabled
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	input, err := s.loadInput(ctx, programID, req)
	if err != nil {
		return nil, err
	}

	s.logger.Info("timetable allocation started",
		zap.String("run_id", runID),
		zap.String("program_id", programID),
		zap.Int("courses", len(input.Courses)),
		zap.Int("lecturers", len(input.Lecturers)),
		zap.Int("rooms", len(input.Rooms)),
		zap.Bool("dry_run", req.DryRun),
	)

	opts := []scheduler.Option{}
	if progress != nil {
		opts = append(opts, scheduler.WithProgress(progress))
	}
	start := time.Now()
	result := scheduler.Allocate(ctx, input, opts...)
	elapsed := time.Since(start)
	summary := scheduler.Summarize(result, input.Lecturers)
	s.metrics.ObserveAllocation(result, elapsed)

	s.logger.Info("timetable allocation finished",
		zap.String("run_id", runID),
		zap.String("program_id", programID),
		zap.String("status", string(result.Status)),
		zap.Int("sessions_placed", summary.SessionsScheduled),
		zap.Int("sessions_needed", summary.SessionsNeeded),
		zap.Int("conflicts", len(result.Conflicts)),
		zap.Duration("elapsed", elapsed),
	)

	resp := &dto.GenerateTimetableResponse{
		RunID:     runID,
		ProgramID: programID,
		Status:    result.Status,
		DryRun:    req.DryRun,
		Settings:  input.Settings.Normalize(),
		Entries:   result.Entries,
		Conflicts: result.Conflicts,
		Summary:   summary,
	}
	if req.DryRun || result.Status != scheduler.StatusComplete {
		return resp, nil
	}

	entries := toTimetableEntries(runID, result.Entries)
	conflicts := toTimetableConflicts(runID, result.Conflicts)
	persistStart := time.Now()
	err = s.store.ReplaceForProgram(ctx, programID, entries, conflicts)
	s.metrics.ObserveDBQuery("replace_timetable", time.Since(persistStart))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable")
	}
	resp.Persisted = true
	if s.cache != nil {
		_ = s.cache.InvalidateProgram(ctx, programID)
	}
	return resp, nil
}

// GetTimetable returns the persisted timetable of a program and whether it
// was served from cache.
func (s *TimetableService) GetTimetable(ctx context.Context, programID string) (*dto.TimetableResponse, bool, error) {
	key := cache.TimetableKey(programID)
	if s.cache != nil {
		var cached dto.TimetableResponse
		if s.cache.Get(ctx, key, &cached) {
			return &cached, true, nil
		}
	}

	if err := s.ensureProgram(ctx, programID); err != nil {
		return nil, false, err
	}
	start := time.Now()
	entries, err := s.store.ListEntries(ctx, programID)
	s.metrics.ObserveDBQuery("list_timetable_entries", time.Since(start))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if entries == nil {
		entries = []models.TimetableEntryView{}
	}
	resp := &dto.TimetableResponse{ProgramID: programID, Entries: entries}
	if s.cache != nil {
		s.cache.Set(ctx, key, resp, s.cfg.CacheTTL)
	}
	return resp, false, nil
}

// ListConflicts returns the conflicts recorded by the program's last persisted run.
func (s *TimetableService) ListConflicts(ctx context.Context, programID string) ([]models.TimetableConflict, error) {
	if err := s.ensureProgram(ctx, programID); err != nil {
		return nil, err
	}
	conflicts, err := s.store.ListConflicts(ctx, programID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load conflicts")
	}
	if conflicts == nil {
		conflicts = []models.TimetableConflict{}
	}
	return conflicts, nil
}

func (s *TimetableService) ensureProgram(ctx context.Context, programID string) error {
	_, err := s.findProgram(ctx, programID)
	return err
}

func (s *TimetableService) findProgram(ctx context.Context, programID string) (*models.Program, error) {
	program, err := s.programs.FindByID(ctx, programID)
	if err != nil {
		return nil, notFoundOrInternal(err, "program not found", "failed to load program")
	}
	return program, nil
}

// notFoundOrInternal maps sql.ErrNoRows to a 404 and anything else to a 500.
func notFoundOrInternal(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}

func (s *TimetableService) loadInput(ctx context.Context, programID string, req dto.GenerateTimetableRequest) (scheduler.Input, error) {
	program, err := s.findProgram(ctx, programID)
	if err != nil {
		return scheduler.Input{}, err
	}

	base, err := s.settings.Effective(ctx, programID)
	if err != nil {
		return scheduler.Input{}, err
	}
	settings := req.Settings.Apply(base)
	if err := settings.CheckWindow(); err != nil {
		return scheduler.Input{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	start := time.Now()
	defer func() {
		s.metrics.ObserveDBQuery("load_allocation_input", time.Since(start))
	}()

	courses, err := s.programs.ListCourses(ctx, models.CourseFilter{ProgramID: programID, Year: req.Year, Semester: req.Semester})
	if err != nil {
		return scheduler.Input{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	lecturers, err := s.resources.ListLecturers(ctx)
	if err != nil {
		return scheduler.Input{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturers")
	}
	ids := make([]string, len(lecturers))
	for i, lecturer := range lecturers {
		ids[i] = lecturer.ID
	}
	blocked, err := s.resources.ListUnavailability(ctx, ids)
	if err != nil {
		return scheduler.Input{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer availability")
	}
	rooms, err := s.resources.ListRooms(ctx)
	if err != nil {
		return scheduler.Input{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load rooms")
	}

	return scheduler.Input{
		Program:   scheduler.Program{ID: program.ID, Name: program.Name, StudentCount: program.StudentCount},
		Courses:   toSchedulerCourses(courses),
		Lecturers: toSchedulerLecturers(lecturers, blocked),
		Rooms:     toSchedulerRooms(rooms),
		Settings:  settings,
	}, nil
}

func toSchedulerCourses(courses []models.Course) []scheduler.Course {
	out := make([]scheduler.Course, 0, len(courses))
	for _, course := range courses {
		c := scheduler.Course{
			ID:               course.ID,
			ProgramID:        course.ProgramID,
			Name:             course.Name,
			CreditHours:      course.CreditHours,
			Year:             course.Year,
			Semester:         course.Semester,
			ExpectedStudents: course.ExpectedStudents,
		}
		if course.LecturerID != nil {
			c.LecturerID = *course.LecturerID
		}
		out = append(out, c)
	}
	return out
}

func toSchedulerLecturers(lecturers []models.Lecturer, blocked []models.LecturerUnavailability) []scheduler.Lecturer {
	cells := make(map[string][]scheduler.TimeCell)
	for _, b := range blocked {
		cells[b.LecturerID] = append(cells[b.LecturerID], scheduler.TimeCell{Day: scheduler.Day(b.DayOfWeek), Hour: b.Hour})
	}
	out := make([]scheduler.Lecturer, 0, len(lecturers))
	for _, lecturer := range lecturers {
		out = append(out, scheduler.Lecturer{
			ID:            lecturer.ID,
			Name:          lecturer.Name,
			Unavailable:   cells[lecturer.ID],
			MaxDailyHours: lecturer.MaxDailyHours,
		})
	}
	return out
}

func toSchedulerRooms(rooms []models.Room) []scheduler.Room {
	out := make([]scheduler.Room, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, scheduler.Room{ID: room.ID, Name: room.Name, Capacity: room.Capacity})
	}
	return out
}

func toTimetableEntries(runID string, entries []scheduler.ScheduleEntry) []models.TimetableEntry {
	out := make([]models.TimetableEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, models.TimetableEntry{
			RunID:      runID,
			CourseID:   entry.CourseID,
			LecturerID: entry.LecturerID,
			RoomID:     entry.RoomID,
			DayOfWeek:  int(entry.Day),
			StartTime:  entry.StartTime,
			EndTime:    entry.EndTime,
			Year:       entry.Year,
			Semester:   entry.Semester,
		})
	}
	return out
}

func toTimetableConflicts(runID string, conflicts []scheduler.Conflict) []models.TimetableConflict {
	out := make([]models.TimetableConflict, 0, len(conflicts))
	for _, conflict := range conflicts {
		record := models.TimetableConflict{
			RunID:      runID,
			Kind:       string(conflict.Kind),
			Message:    conflict.Message,
			CourseID:   optionalString(conflict.CourseID),
			LecturerID: optionalString(conflict.LecturerID),
			Dimension:  optionalString(conflict.Dimension),
		}
		if conflict.Session > 0 {
			session := conflict.Session
			record.Session = &session
		}
		if len(conflict.Entries) > 0 {
			if raw, err := json.Marshal(map[string]interface{}{"entries": conflict.Entries}); err == nil {
				record.Details = raw
			}
		}
		out = append(out, record)
	}
	return out
}

func optionalString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
