package daemon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigHasSensibleDefaults(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotEmpty(t, cfg.PIDPath)
	assert.Greater(t, cfg.ShutdownGracePeriod, time.Duration(0))
}

func TestDefaultConfigPathInAinavDir(t *testing.T) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	expectedDir := filepath.Join(home, ".ainav")
	assert.True(t, strings.HasPrefix(cfg.PIDPath, expectedDir))
}

func TestConfigValidateRejectsEmptyPIDPath(t *testing.T) {
	cfg := Config{PIDPath: "", ShutdownGracePeriod: 10 * time.Second}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PID path")
}

func TestConfigValidateRejectsZeroGracePeriod(t *testing.T) {
	cfg := Config{PIDPath: "/tmp/test.pid", ShutdownGracePeriod: 0}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "grace period")
}

func TestConfigValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestConfigEnsureDirCreatesNestedDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "nested", "deeply")
	pidPath := filepath.Join(nestedDir, "daemon.pid")

	cfg := Config{PIDPath: pidPath, ShutdownGracePeriod: 10 * time.Second}

	_, err := os.Stat(nestedDir)
	require.True(t, os.IsNotExist(err))

	require.NoError(t, cfg.EnsureDir())

	info, err := os.Stat(nestedDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
