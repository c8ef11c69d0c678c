package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataPathHonorsDataRootEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("AINAV_DATA_ROOT", dir)
	assert.Equal(t, filepath.Join(dir, "metadata.db"), metadataPath())
}

func TestMetadataPathDefaultsUnderHomeDir(t *testing.T) {
	t.Setenv("AINAV_DATA_ROOT", "")
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	want := filepath.Join(home, ".ainav", "metadata.db")
	assert.Equal(t, want, metadataPath())
}

func TestNewServeCmdRegistersQdrantFlags(t *testing.T) {
	cmd := newServeCmd()
	assert.NotNil(t, cmd.Flags().Lookup("qdrant-host"))
	assert.NotNil(t, cmd.Flags().Lookup("qdrant-port"))
}
