// Package operation composes the retry executor, the timeout guard, the
// draft store and the workout gateway into the object a UI-facing layer
// consumes: typed operations plus aggregate loading/error/retry state with
// cooperative cancellation.
package operation

import (
	"context"
	"sync"
	"time"

	"fitcoach/workout-app/internal/apperr"
	"fitcoach/workout-app/internal/domain"
	"fitcoach/workout-app/internal/draft"
	"fitcoach/workout-app/internal/reliability"
	"fitcoach/workout-app/internal/service"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Config sets the reliability envelope applied to every operation.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Timeout     time.Duration
}

// DefaultConfig provides sensible defaults.
var DefaultConfig = Config{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
	Timeout:     10 * time.Second,
}

// State is the aggregate operation state a caller renders from.
type State struct {
	Loading    bool
	RetryCount int
	LastLabel  string
	Err        *apperr.Error
	// CanRetry is true when offering the user a retry action is meaningful,
	// i.e. the last failure was network-kind and not a caller cancel.
	CanRetry bool
}

// Runner wraps the workout gateway's operations with draft persistence,
// bounded retry and per-attempt timeouts.
type Runner struct {
	workouts service.WorkoutService
	drafts   *draft.Store
	cfg      Config

	mu     sync.Mutex
	exec   *reliability.Executor
	cancel context.CancelFunc
	err    *apperr.Error
}

// NewRunner creates a runner over the given gateway and draft store,
// filling in defaults for zero config values.
func NewRunner(workouts service.WorkoutService, drafts *draft.Store, cfg Config) *Runner {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultConfig.BaseDelay
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig.Timeout
	}
	return &Runner{workouts: workouts, drafts: drafts, cfg: cfg}
}

// CreateDraftKey is the draft key for an instructor's in-progress creation form.
func CreateDraftKey(instructorID primitive.ObjectID) string {
	return "workout:create:" + instructorID.Hex()
}

// UpdateDraftKey is the draft key for an in-progress edit of one workout.
func UpdateDraftKey(workoutID primitive.ObjectID) string {
	return "workout:update:" + workoutID.Hex()
}

// run executes op through the retry/timeout envelope and records final state.
func run[T any](r *Runner, ctx context.Context, label string, op func(context.Context) (T, error)) (T, error) {
	opCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	exec := reliability.NewExecutor(reliability.RetryConfig{
		MaxAttempts: r.cfg.MaxAttempts,
		BaseDelay:   r.cfg.BaseDelay,
	})

	r.mu.Lock()
	r.exec = exec
	r.cancel = cancel
	r.err = nil
	r.mu.Unlock()

	result, err := reliability.Retry(opCtx, exec, label, func(attemptCtx context.Context) (T, error) {
		return reliability.WithTimeout(attemptCtx, r.cfg.Timeout, op)
	})

	r.mu.Lock()
	r.cancel = nil
	r.err = apperr.From(err)
	r.mu.Unlock()

	return result, err
}

// State returns a snapshot of the runner's aggregate operation state.
func (r *Runner) State() State {
	r.mu.Lock()
	exec, lastErr := r.exec, r.err
	r.mu.Unlock()

	st := State{Err: lastErr}
	if exec != nil {
		es := exec.State()
		st.Loading = es.Loading
		st.RetryCount = es.RetryCount
		st.LastLabel = es.LastLabel
	}
	if lastErr != nil {
		st.CanRetry = lastErr.Retryable()
	}
	return st
}

// Cancel aborts the in-flight operation and clears local error state. The
// persisted draft is deliberately kept: it is the recovery path.
func (r *Runner) Cancel() {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.err = nil
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// ClearError drops the last surfaced error.
func (r *Runner) ClearError() {
	r.mu.Lock()
	r.err = nil
	r.mu.Unlock()
}

// LoadDraft restores a previously persisted form payload, reporting whether
// a fresh draft existed.
func (r *Runner) LoadDraft(ctx context.Context, key string, out any) bool {
	return r.drafts.Load(ctx, key, out)
}

// ClearDraft removes a persisted form payload.
func (r *Runner) ClearDraft(ctx context.Context, key string) {
	r.drafts.Clear(ctx, key)
}

// CreateWorkout persists the request as a draft, runs the gateway create
// through the reliability envelope, and clears the draft only after a
// confirmed success. On failure the draft stays for recovery.
func (r *Runner) CreateWorkout(ctx context.Context, instructorID primitive.ObjectID, req service.CreateWorkoutRequest) (*domain.WorkoutDetail, error) {
	key := CreateDraftKey(instructorID)
	r.drafts.Save(ctx, key, req)

	result, err := run(r, ctx, "createWorkout", func(opCtx context.Context) (*domain.WorkoutDetail, error) {
		return r.workouts.Create(opCtx, instructorID, req)
	})
	if err != nil {
		return nil, err
	}
	r.drafts.Clear(ctx, key)
	return result, nil
}

// UpdateWorkout mirrors CreateWorkout's draft lifecycle for edits.
func (r *Runner) UpdateWorkout(ctx context.Context, id, instructorID primitive.ObjectID, patch service.UpdateWorkoutRequest) (*domain.WorkoutDetail, error) {
	key := UpdateDraftKey(id)
	r.drafts.Save(ctx, key, patch)

	result, err := run(r, ctx, "updateWorkout", func(opCtx context.Context) (*domain.WorkoutDetail, error) {
		return r.workouts.Update(opCtx, id, instructorID, patch)
	})
	if err != nil {
		return nil, err
	}
	r.drafts.Clear(ctx, key)
	return result, nil
}

// DeleteWorkout removes a workout through the reliability envelope.
func (r *Runner) DeleteWorkout(ctx context.Context, id, instructorID primitive.ObjectID) error {
	_, err := run(r, ctx, "deleteWorkout", func(opCtx context.Context) (struct{}, error) {
		return struct{}{}, r.workouts.Delete(opCtx, id, instructorID)
	})
	return err
}

// DuplicateWorkout copies a workout through the reliability envelope.
func (r *Runner) DuplicateWorkout(ctx context.Context, id, instructorID primitive.ObjectID, opts service.DuplicateWorkoutOptions) (*domain.WorkoutDetail, error) {
	return run(r, ctx, "duplicateWorkout", func(opCtx context.Context) (*domain.WorkoutDetail, error) {
		return r.workouts.Duplicate(opCtx, id, instructorID, opts)
	})
}

// GetWorkoutDetails reads one aggregate through the reliability envelope.
func (r *Runner) GetWorkoutDetails(ctx context.Context, id primitive.ObjectID) (*domain.WorkoutDetail, error) {
	return run(r, ctx, "getWorkoutDetails", func(opCtx context.Context) (*domain.WorkoutDetail, error) {
		return r.workouts.GetDetails(opCtx, id)
	})
}

// ListByInstructor reads an instructor's workouts through the reliability envelope.
func (r *Runner) ListByInstructor(ctx context.Context, instructorID primitive.ObjectID) ([]domain.WorkoutDetail, error) {
	return run(r, ctx, "listWorkoutsByInstructor", func(opCtx context.Context) ([]domain.WorkoutDetail, error) {
		return r.workouts.GetByInstructor(opCtx, instructorID)
	})
}

// ListByStudent reads a student's workouts through the reliability envelope.
func (r *Runner) ListByStudent(ctx context.Context, studentID primitive.ObjectID) ([]domain.WorkoutDetail, error) {
	return run(r, ctx, "listWorkoutsByStudent", func(opCtx context.Context) ([]domain.WorkoutDetail, error) {
		return r.workouts.GetByStudent(opCtx, studentID)
	})
}

// SearchWorkouts searches an instructor's workouts through the reliability envelope.
func (r *Runner) SearchWorkouts(ctx context.Context, instructorID primitive.ObjectID, query service.SearchWorkoutsQuery) ([]domain.WorkoutDetail, error) {
	return run(r, ctx, "searchWorkouts", func(opCtx context.Context) ([]domain.WorkoutDetail, error) {
		return r.workouts.Search(opCtx, instructorID, query)
	})
}

// InstructorStats reads the dashboard stats. The gateway already degrades
// internally, so this never fails; the envelope still bounds its latency.
func (r *Runner) InstructorStats(ctx context.Context, instructorID primitive.ObjectID) *domain.InstructorStats {
	stats, err := run(r, ctx, "instructorStats", func(opCtx context.Context) (*domain.InstructorStats, error) {
		return r.workouts.GetInstructorStats(opCtx, instructorID), nil
	})
	if err != nil || stats == nil {
		return &domain.InstructorStats{}
	}
	return stats
}
