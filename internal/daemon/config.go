// Package daemon dispatches the HTTP RPC surface (spec §6) to the
// indexer and query engine, serializing indexing per repository
// (spec §5).
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds process-lifecycle configuration for the daemon binary.
// Host/port and model tuning live in internal/config; this Config only
// covers what the process itself needs to manage its own lifecycle.
type Config struct {
	// PIDPath is the file path for storing the daemon's process ID.
	// Default: ~/.ainav/daemon.pid
	PIDPath string

	// ShutdownGracePeriod is the time to wait for in-flight requests
	// to finish before the process exits.
	// Default: 10s
	ShutdownGracePeriod time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/tmp"
	}

	ainavDir := filepath.Join(home, ".ainav")

	return Config{
		PIDPath:             filepath.Join(ainavDir, "daemon.pid"),
		ShutdownGracePeriod: 10 * time.Second,
	}
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.PIDPath == "" {
		return fmt.Errorf("PID path cannot be empty")
	}
	if c.ShutdownGracePeriod <= 0 {
		return fmt.Errorf("shutdown grace period must be positive")
	}
	return nil
}

// EnsureDir creates the directory for the PID file if it doesn't exist.
func (c Config) EnsureDir() error {
	dir := filepath.Dir(c.PIDPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	return nil
}
