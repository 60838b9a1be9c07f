package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
)

// AllocateJobType tags queue jobs that execute an allocation run.
const AllocateJobType = "timetable.allocate"

type allocationRunStore interface {
	Create(ctx context.Context, run *models.AllocationRun) error
	FindByID(ctx context.Context, id string) (*models.AllocationRun, error)
	MarkRunning(ctx context.Context, id string, coursesTotal int) error
	UpdateProgress(ctx context.Context, id string, done, total int) error
	Finish(ctx context.Context, run *models.AllocationRun) error
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type allocationExecutor interface {
	Execute(ctx context.Context, runID, programID string, req dto.GenerateTimetableRequest, progress scheduler.ProgressFunc) (*dto.GenerateTimetableResponse, error)
}

// RunRegistry tracks the cancel functions of runs currently executing.
type RunRegistry struct {
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

// NewRunRegistry constructs an empty registry.
func NewRunRegistry() *RunRegistry {
	return &RunRegistry{cancels: make(map[string]context.CancelFunc)}
}

func (r *RunRegistry) register(id string, cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()
}

func (r *RunRegistry) unregister(id string) {
	r.mu.Lock()
	delete(r.cancels, id)
	r.mu.Unlock()
}

// Active reports how many runs are registered.
func (r *RunRegistry) Active() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

// AllocationRunConfig governs run retention.
type AllocationRunConfig struct {
	Enabled         bool
	Retention       time.Duration
	CleanupInterval time.Duration
}

// allocateJobPayload is carried on the queue job.
type allocateJobPayload struct {
	ProgramID string
	Request   dto.GenerateTimetableRequest
}

// AllocationRunService manages asynchronous allocation runs.
type AllocationRunService struct {
	repo      allocationRunStore
	programs  programLookup
	queue     jobDispatcher
	registry  *RunRegistry
	validator *validator.Validate
	logger    *zap.Logger
	cfg       AllocationRunConfig
}

// NewAllocationRunService constructs the run service.
func NewAllocationRunService(repo allocationRunStore, programs programLookup, queue jobDispatcher, registry *RunRegistry, validate *validator.Validate, logger *zap.Logger, cfg AllocationRunConfig) *AllocationRunService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if registry == nil {
		registry = NewRunRegistry()
	}
	if cfg.Retention <= 0 {
		cfg.Retention = time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	return &AllocationRunService{
		repo:      repo,
		programs:  programs,
		queue:     queue,
		registry:  registry,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// Start records a queued run and hands it to the worker pool.
func (s *AllocationRunService) Start(ctx context.Context, programID string, req dto.GenerateTimetableRequest, requestedBy string) (*dto.StartRunResponse, error) {
	if !s.cfg.Enabled {
		return nil, appErrors.ErrSchedulerDisabled
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}
	if _, err := s.programs.FindByID(ctx, programID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "program not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load program")
	}

	run := &models.AllocationRun{ProgramID: programID, DryRun: req.DryRun}
	if req.Settings != nil {
		if raw, err := json.Marshal(req.Settings); err == nil {
			run.Settings = types.JSONText(raw)
		}
	}
	if requestedBy != "" {
		run.RequestedBy = &requestedBy
	}
	if err := s.repo.Create(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create allocation run")
	}

	job := jobs.Job{ID: run.ID, Type: AllocateJobType, Payload: allocateJobPayload{ProgramID: programID, Request: req}}
	if err := s.queue.Enqueue(job); err != nil {
		msg := "failed to enqueue run"
		run.Status = models.AllocationRunFailed
		run.Error = &msg
		if finishErr := s.repo.Finish(ctx, run); finishErr != nil {
			s.logger.Warn("failed to mark run failed", zap.String("run_id", run.ID), zap.Error(finishErr))
		}
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Wrap(err, appErrors.ErrQueueUnavailable.Code, appErrors.ErrQueueUnavailable.Status, "allocation queue is full")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrQueueUnavailable.Code, appErrors.ErrQueueUnavailable.Status, appErrors.ErrQueueUnavailable.Message)
	}

	s.logger.Info("allocation run queued", zap.String("run_id", run.ID), zap.String("program_id", programID))
	return &dto.StartRunResponse{RunID: run.ID, ProgramID: programID, Status: run.Status}, nil
}

// Get returns a run's current state.
func (s *AllocationRunService) Get(ctx context.Context, runID string) (*models.AllocationRun, error) {
	run, err := s.repo.FindByID(ctx, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "allocation run not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocation run")
	}
	return run, nil
}

// Cancel stops a run. A running run is signalled and stops at the next
// course boundary; a queued run is marked cancelled before it starts.
func (s *AllocationRunService) Cancel(ctx context.Context, runID string) (*models.AllocationRun, error) {
	run, err := s.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.Status.Finished() {
		return nil, appErrors.Clone(appErrors.ErrRunFinished, "allocation run already "+string(run.Status))
	}

	s.registry.mu.Lock()
	defer s.registry.mu.Unlock()
	if cancel, ok := s.registry.cancels[runID]; ok {
		cancel()
		s.logger.Info("allocation run cancel requested", zap.String("run_id", runID))
		return run, nil
	}

	run.Status = models.AllocationRunCancelled
	if err := s.repo.Finish(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel allocation run")
	}
	s.logger.Info("queued allocation run cancelled", zap.String("run_id", runID))
	return run, nil
}

// Purge deletes finished runs older than the retention window.
func (s *AllocationRunService) Purge(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.Retention)
	purged, err := s.repo.DeleteFinishedBefore(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to purge allocation runs")
	}
	return purged, nil
}

// StartCleanup boots a goroutine that purges expired runs periodically.
func (s *AllocationRunService) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := s.Purge(ctx)
				if err != nil {
					s.logger.Sugar().Warnw("allocation run cleanup failed", "error", err)
					continue
				}
				if purged > 0 {
					s.logger.Sugar().Infow("allocation runs purged", "count", purged)
				}
			}
		}
	}()
}

// AllocationWorker bridges queue jobs to the timetable executor.
type AllocationWorker struct {
	repo     allocationRunStore
	executor allocationExecutor
	registry *RunRegistry
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewAllocationWorker constructs a worker.
func NewAllocationWorker(repo allocationRunStore, executor allocationExecutor, registry *RunRegistry, metrics *MetricsService, logger *zap.Logger) *AllocationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if registry == nil {
		registry = NewRunRegistry()
	}
	return &AllocationWorker{repo: repo, executor: executor, registry: registry, metrics: metrics, logger: logger}
}

// Handle processes a queue job. Failures are recorded on the run, so the job
// itself only errors when the run record cannot be updated.
func (w *AllocationWorker) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(allocateJobPayload)
	if !ok {
		return errors.New("allocation job payload missing")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.registry.register(job.ID, cancel)
	defer w.registry.unregister(job.ID)

	// Progress and terminal writes must land even once the run is cancelled.
	store := context.WithoutCancel(ctx)
	if err := w.repo.MarkRunning(store, job.ID, 0); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			w.logger.Info("skipping allocation run no longer queued", zap.String("run_id", job.ID))
			return nil
		}
		return err
	}
	w.metrics.RunStarted()
	defer w.metrics.RunFinished()

	run := &models.AllocationRun{ID: job.ID, ProgramID: payload.ProgramID, DryRun: payload.Request.DryRun}
	progress := func(done, total int) {
		run.CoursesDone, run.CoursesTotal = done, total
		if err := w.repo.UpdateProgress(store, job.ID, done, total); err != nil {
			w.logger.Warn("failed to record run progress", zap.String("run_id", job.ID), zap.Error(err))
		}
	}

	resp, err := w.executor.Execute(runCtx, job.ID, payload.ProgramID, payload.Request, progress)
	switch {
	case err != nil && runCtx.Err() != nil:
		run.Status = models.AllocationRunCancelled
	case err != nil:
		msg := err.Error()
		run.Status = models.AllocationRunFailed
		run.Error = &msg
		w.logger.Warn("allocation run failed", zap.String("run_id", job.ID), zap.Error(err))
	case resp.Status == scheduler.StatusCancelled:
		run.Status = models.AllocationRunCancelled
		w.applyOutcome(run, resp)
	default:
		run.Status = models.AllocationRunCompleted
		run.Progress = 100
		w.applyOutcome(run, resp)
	}

	if err := w.repo.Finish(store, run); err != nil {
		w.logger.Warn("failed to finish allocation run", zap.String("run_id", job.ID), zap.Error(err))
		return err
	}
	return nil
}

func (w *AllocationWorker) applyOutcome(run *models.AllocationRun, resp *dto.GenerateTimetableResponse) {
	run.SessionsPlaced = len(resp.Entries)
	run.ConflictCount = len(resp.Conflicts)
	if run.CoursesTotal > 0 && run.Status != models.AllocationRunCompleted {
		run.Progress = run.CoursesDone * 100 / run.CoursesTotal
	}
	if raw, err := json.Marshal(resp.Summary); err == nil {
		run.Summary = types.JSONText(raw)
	}
}
