package daemon

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartLockTryLockSucceedsOnce(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "daemon.pid")

	a := NewStartLock(pidPath)
	ok, err := a.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	defer a.Unlock()

	b := NewStartLock(pidPath)
	ok, err = b.TryLock()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStartLockUnlockAllowsReacquire(t *testing.T) {
	pidPath := filepath.Join(t.TempDir(), "daemon.pid")

	a := NewStartLock(pidPath)
	ok, err := a.TryLock()
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, a.Unlock())

	b := NewStartLock(pidPath)
	ok, err = b.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	defer b.Unlock()
}

func TestStartLockUnlockIsSafeWithoutLock(t *testing.T) {
	l := NewStartLock(filepath.Join(t.TempDir(), "daemon.pid"))
	assert.NoError(t, l.Unlock())
}
