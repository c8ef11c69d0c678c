package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// StartLock provides cross-process mutual exclusion around daemon
// startup, so two "ainav serve" invocations racing against the same
// PID file don't both believe they became the daemon.
type StartLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// NewStartLock creates a start lock alongside the given PID file path.
func NewStartLock(pidPath string) *StartLock {
	lockPath := pidPath + ".lock"
	return &StartLock{path: lockPath, flock: flock.New(lockPath)}
}

// TryLock attempts to acquire the startup lock without blocking.
// Returns false if another process already holds it.
func (l *StartLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire start lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Safe to call even if TryLock was never
// called or failed.
func (l *StartLock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("release start lock: %w", err)
	}
	l.locked = false
	return nil
}
