package gitignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileIgnoresNothing(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir)
	require.NoError(t, err)
	assert.False(t, m.MatchesPath("anything.py"))
}

func TestLoadMatchesPatterns(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.log\nbuild/\n"), 0o644))

	m, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, m.MatchesPath("debug.log"))
	assert.True(t, m.MatchesPath("build/output.txt"))
	assert.False(t, m.MatchesPath("main.go"))
}
