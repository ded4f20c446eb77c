package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	amanerrors "github.com/Aman-CERP/amankb/internal/errors"
)

const (
	// maxRetries bounds follow-up runs after a retryable failure.
	maxRetries = 3
	// DefaultRetryDelay is the wait before retrying a retryable failure.
	DefaultRetryDelay = 500 * time.Millisecond
)

// ReloadFunc performs one reload.
type ReloadFunc func(ctx context.Context) error

// Reloader runs reloads on a background goroutine. Triggers that arrive
// while a reload is running collapse into a single follow-up run.
type Reloader struct {
	fn     ReloadFunc
	logger *slog.Logger

	// RetryDelay spaces retries of retryable failures such as a source
	// locked by a writer. Set before Start.
	RetryDelay time.Duration

	trigger chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
	runs    int
	retries int
	lastErr error
}

// NewReloader creates a reloader that calls fn for each coalesced trigger.
func NewReloader(fn ReloadFunc, logger *slog.Logger) *Reloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reloader{
		fn:         fn,
		logger:     logger,
		RetryDelay: DefaultRetryDelay,
		trigger:    make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start launches the background loop. It is non-blocking and idempotent.
func (r *Reloader) Start(ctx context.Context) {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	go r.loop(ctx)
}

// Trigger requests a reload without blocking.
func (r *Reloader) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
		// A reload is already pending.
	}
}

func (r *Reloader) loop(ctx context.Context) {
	defer close(r.doneCh)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.trigger:
			err := r.fn(ctx)
			r.mu.Lock()
			r.runs++
			r.lastErr = err
			r.mu.Unlock()
			if err == nil || ctx.Err() != nil {
				r.mu.Lock()
				r.retries = 0
				r.mu.Unlock()
				continue
			}
			r.logger.Warn("background_reload_failed", amanerrors.LogAttrs(err)...)
			r.scheduleRetry(err)
		}
	}
}

// scheduleRetry re-triggers after RetryDelay when err is retryable and
// the retry budget is not spent.
func (r *Reloader) scheduleRetry(err error) {
	if !amanerrors.IsRetryable(err) {
		return
	}
	r.mu.Lock()
	if r.retries >= maxRetries {
		r.mu.Unlock()
		r.logger.Warn("background_reload_giving_up", slog.Int("retries", maxRetries))
		return
	}
	r.retries++
	attempt := r.retries
	r.mu.Unlock()

	r.logger.Info("background_reload_retry", slog.Int("attempt", attempt), slog.Duration("delay", r.RetryDelay))
	time.AfterFunc(r.RetryDelay, func() {
		select {
		case <-r.stopCh:
		default:
			r.Trigger()
		}
	})
}

// Stop cancels any running reload and waits for the loop to exit.
func (r *Reloader) Stop() {
	r.mu.Lock()
	if !r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	close(r.stopCh)
	<-r.doneCh
}

// Done is closed when the loop exits.
func (r *Reloader) Done() <-chan struct{} {
	return r.doneCh
}

// Runs returns how many reloads have completed.
func (r *Reloader) Runs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs
}

// LastError returns the result of the most recent reload.
func (r *Reloader) LastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}
