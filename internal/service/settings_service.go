package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	"github.com/noah-isme/sma-timetable/pkg/config"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

type schedulerSettingsStore interface {
	Get(ctx context.Context, programID string) (*models.SchedulerSettings, error)
	Upsert(ctx context.Context, settings *models.SchedulerSettings) error
}

type programLookup interface {
	FindByID(ctx context.Context, id string) (*models.Program, error)
}

// SettingsService resolves the allocation settings a program runs with.
// Stored values are layered over the configured defaults, so a stored
// document only needs the keys an operator changed.
type SettingsService struct {
	repo      schedulerSettingsStore
	programs  programLookup
	defaults  scheduler.Settings
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSettingsService constructs a SettingsService.
func NewSettingsService(repo schedulerSettingsStore, programs programLookup, defaults scheduler.Settings, validate *validator.Validate, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SettingsService{repo: repo, programs: programs, defaults: defaults, validator: validate, logger: logger}
}

// SettingsFromConfig maps configured defaults onto engine settings.
func SettingsFromConfig(cfg config.SchedulerDefaults) scheduler.Settings {
	return scheduler.Settings{
		PrioritizeRoomSize:      cfg.PrioritizeRoomSize,
		AvoidBackToBack:         cfg.AvoidBackToBack,
		BalanceLecturerLoad:     cfg.BalanceLecturerLoad,
		MaxDailyHours:           cfg.MaxDailyHours,
		PreferredStartTime:      cfg.PreferredStartTime,
		PreferredEndTime:        cfg.PreferredEndTime,
		AllowWeekends:           cfg.AllowWeekends,
		SpreadCoursesAcrossDays: cfg.SpreadCoursesAcrossDays,
		MaxSessionsPerDay:       cfg.MaxSessionsPerDay,
		RespectCreditHours:      cfg.RespectCreditHours,
		ConsiderRoomCapacity:    cfg.ConsiderRoomCapacity,
	}
}

// Effective returns the program's settings with defaults filled in.
func (s *SettingsService) Effective(ctx context.Context, programID string) (scheduler.Settings, error) {
	settings, _, err := s.load(ctx, programID)
	return settings, err
}

// Get returns the effective settings and whether the program stores its own.
func (s *SettingsService) Get(ctx context.Context, programID string) (*dto.SchedulerSettingsResponse, error) {
	if err := s.ensureProgram(ctx, programID); err != nil {
		return nil, err
	}
	settings, stored, err := s.load(ctx, programID)
	if err != nil {
		return nil, err
	}
	return &dto.SchedulerSettingsResponse{ProgramID: programID, Settings: settings, Stored: stored}, nil
}

// Put applies the payload on top of the current settings and stores the result.
func (s *SettingsService) Put(ctx context.Context, programID string, payload dto.SchedulerSettingsPayload, updatedBy string) (*dto.SchedulerSettingsResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scheduler settings payload")
	}
	if err := s.ensureProgram(ctx, programID); err != nil {
		return nil, err
	}
	current, _, err := s.load(ctx, programID)
	if err != nil {
		return nil, err
	}
	next := payload.Apply(current)
	if err := next.CheckWindow(); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	raw, err := json.Marshal(next)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode scheduler settings")
	}
	record := &models.SchedulerSettings{ProgramID: programID, Settings: types.JSONText(raw)}
	if updatedBy != "" {
		record.UpdatedBy = &updatedBy
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store scheduler settings")
	}
	s.logger.Info("scheduler settings updated", zap.String("program_id", programID), zap.String("updated_by", updatedBy))
	return &dto.SchedulerSettingsResponse{ProgramID: programID, Settings: next, Stored: true}, nil
}

func (s *SettingsService) load(ctx context.Context, programID string) (scheduler.Settings, bool, error) {
	settings := s.defaults
	stored, err := s.repo.Get(ctx, programID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return settings, false, nil
		}
		return settings, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduler settings")
	}
	if len(stored.Settings) > 0 {
		if err := stored.Settings.Unmarshal(&settings); err != nil {
			s.logger.Warn("ignoring undecodable scheduler settings", zap.String("program_id", programID), zap.Error(err))
			return s.defaults, false, nil
		}
	}
	return settings, true, nil
}

func (s *SettingsService) ensureProgram(ctx context.Context, programID string) error {
	if s.programs == nil {
		return nil
	}
	if _, err := s.programs.FindByID(ctx, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}
	return nil
}
