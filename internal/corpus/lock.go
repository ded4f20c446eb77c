package corpus

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/gofrs/flock"
)

// lockRetryDelay is how often a blocked shared lock is retried.
const lockRetryDelay = 50 * time.Millisecond

// SourceLock is an advisory cross-process lock guarding one CSV source.
// Readers take it shared; a dataset generator appending rows takes it
// exclusive, so a reload never observes a half-written row.
// The lock file lives next to the source at <path>.lock.
type SourceLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewSourceLock creates a lock for the source file at path.
func NewSourceLock(path string) *SourceLock {
	lockPath := path + ".lock"
	return &SourceLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// RLock acquires a shared lock, retrying until ctx is done.
// A source in a read-only directory cannot carry a lock file; RLock then
// reports acquired=false with no error and the caller reads unlocked.
func (l *SourceLock) RLock(ctx context.Context) (bool, error) {
	ok, err := l.flock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire shared lock: %w", err)
	}
	l.locked = ok
	return ok, nil
}

// Lock acquires an exclusive lock. This call blocks until the lock is available.
func (l *SourceLock) Lock() error {
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock.
// It's safe to call Unlock multiple times or on an unlocked SourceLock.
func (l *SourceLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}

// Path returns the path to the lock file.
func (l *SourceLock) Path() string {
	return l.path
}
