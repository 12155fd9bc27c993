package reliability

import (
	"context"
	"sync"
	"time"

	"fitcoach/workout-app/internal/apperr"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// ShouldRetry decides per failure whether another attempt makes sense.
	// Nil means DefaultShouldRetry.
	ShouldRetry func(err *apperr.Error) bool
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts: 3,
	BaseDelay:   500 * time.Millisecond,
}

// DefaultShouldRetry retries only network failures. Validation, permission
// and not-found failures cannot succeed without caller intervention, so they
// are terminal after the first attempt regardless of remaining budget.
func DefaultShouldRetry(err *apperr.Error) bool {
	return err.Retryable()
}

// State is a snapshot of an executor's attempt sequence, exposed for
// loading indicators and observability.
type State struct {
	Loading    bool
	RetryCount int
	LastLabel  string
}

// Executor runs operations with bounded retry and exponential backoff.
// It is safe for concurrent use; state reflects the most recent sequence.
type Executor struct {
	cfg RetryConfig

	mu    sync.Mutex
	state State
}

// NewExecutor creates an executor with the given config, filling in defaults
// for zero values.
func NewExecutor(cfg RetryConfig) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultRetryConfig.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultRetryConfig.BaseDelay
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = DefaultShouldRetry
	}
	return &Executor{cfg: cfg}
}

// State returns a snapshot of the current attempt sequence.
func (e *Executor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Executor) begin(label string) {
	e.mu.Lock()
	e.state = State{Loading: true, LastLabel: label}
	e.mu.Unlock()
}

func (e *Executor) setAttempt(n int) {
	e.mu.Lock()
	e.state.RetryCount = n
	e.mu.Unlock()
}

func (e *Executor) finish() {
	e.mu.Lock()
	e.state.Loading = false
	e.mu.Unlock()
}

// Retry executes op up to the executor's attempt budget. The op must be
// re-invocable: each attempt re-runs the underlying call. Backoff between
// attempt n and n+1 is BaseDelay * 2^n, unjittered, waited out without
// blocking the scheduler. Loading stays true for the whole sequence; on
// exhaustion or a non-retryable failure the last error is returned.
func Retry[T any](ctx context.Context, e *Executor, label string, op func(context.Context) (T, error)) (T, error) {
	var zero T
	e.begin(label)
	defer e.finish()

	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxAttempts; attempt++ {
		e.setAttempt(attempt)

		v, err := op(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !e.cfg.ShouldRetry(apperr.From(err)) || attempt == e.cfg.MaxAttempts-1 {
			break
		}

		delay := e.cfg.BaseDelay << uint(attempt)
		select {
		case <-ctx.Done():
			return zero, apperr.From(ctx.Err())
		case <-time.After(delay):
		}
	}

	return zero, lastErr
}
