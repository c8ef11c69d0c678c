package cmd

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ainav/ainav/internal/httpapi"
)

func TestResolveRepoPathUsesExplicitArg(t *testing.T) {
	got, err := resolveRepoPath([]string{"/some/repo"})
	require.NoError(t, err)
	assert.Equal(t, "/some/repo", got)
}

func TestResolveRepoPathFallsBackToProjectRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	cwd, err := os.Getwd()
	require.NoError(t, err)
	defer os.Chdir(cwd)
	require.NoError(t, os.Chdir(dir))

	got, err := resolveRepoPath(nil)
	require.NoError(t, err)
	resolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	wantResolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	assert.Equal(t, wantResolved, resolved)
}

func TestIndexCmdPostsRequestAndPrintsSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req httpapi.IndexRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/tmp/repo", req.RepoPath)
		assert.True(t, req.Rebuild)

		json.NewEncoder(w).Encode(httpapi.IndexResponse{
			RepoPath:      req.RepoPath,
			FilesScanned:  10,
			FilesIndexed:  3,
			ChunksIndexed: 42,
		})
	}))
	defer srv.Close()

	serverAddr = srv.URL
	cmd := newIndexCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--rebuild", "/tmp/repo"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, buf.String(), "indexed /tmp/repo")
	assert.Contains(t, buf.String(), "chunks indexed: 42")
}
