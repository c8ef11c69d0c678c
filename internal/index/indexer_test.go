package index

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ainav/ainav/internal/chunk"
	"github.com/ainav/ainav/internal/metastore"
	"github.com/ainav/ainav/internal/vectorstore"
)

type fakeEmbedder struct{ dim int }

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dim)
	}
	return out, nil
}
func (f *fakeEmbedder) Dimensions() int { return f.dim }

type fakeVectorStore struct {
	vectorstore.Store
	rebuildOnEnsure bool
	upserted        map[string][]vectorstore.Point
	deletedFiles    []string
	deletedIDs      [][]string
}

func (f *fakeVectorStore) EnsureCollection(_ context.Context, _ string, _ int) (bool, error) {
	return f.rebuildOnEnsure, nil
}
func (f *fakeVectorStore) Upsert(_ context.Context, repoPath string, points []vectorstore.Point) error {
	if f.upserted == nil {
		f.upserted = make(map[string][]vectorstore.Point)
	}
	f.upserted[repoPath] = append(f.upserted[repoPath], points...)
	return nil
}
func (f *fakeVectorStore) DeleteByFilePath(_ context.Context, _, filePath string) error {
	f.deletedFiles = append(f.deletedFiles, filePath)
	return nil
}
func (f *fakeVectorStore) DeleteByChunkIDs(_ context.Context, _ string, ids []string) error {
	f.deletedIDs = append(f.deletedIDs, ids)
	return nil
}
func (f *fakeVectorStore) CountChunks(_ context.Context, repoPath string) (int, error) {
	return len(f.upserted[repoPath]), nil
}

type fakeMetaStore struct {
	metastore.Store
	hashes map[string]string
	chunks map[string][]*chunk.CodeChunk // by file path
	hashCalls []string
}

func (f *fakeMetaStore) GetFileHashes(_ context.Context, _ string) (map[string]string, error) {
	return f.hashes, nil
}
func (f *fakeMetaStore) UpsertFileHash(_ context.Context, _, filePath, hash string) error {
	f.hashCalls = append(f.hashCalls, filePath)
	if f.hashes == nil {
		f.hashes = make(map[string]string)
	}
	f.hashes[filePath] = hash
	return nil
}
func (f *fakeMetaStore) GetChunkIDsForFile(_ context.Context, _, filePath string) ([]string, error) {
	var ids []string
	for _, c := range f.chunks[filePath] {
		ids = append(ids, c.ChunkID)
	}
	return ids, nil
}
func (f *fakeMetaStore) DeleteChunksByFile(_ context.Context, _, filePath string) error {
	delete(f.chunks, filePath)
	return nil
}
func (f *fakeMetaStore) UpsertChunks(_ context.Context, _ string, chunks []*chunk.CodeChunk) error {
	if f.chunks == nil {
		f.chunks = make(map[string][]*chunk.CodeChunk)
	}
	for _, c := range chunks {
		f.chunks[c.FilePath] = append(f.chunks[c.FilePath], c)
	}
	return nil
}
func (f *fakeMetaStore) ClearRepo(_ context.Context, _ string) error {
	f.hashes = nil
	f.chunks = nil
	return nil
}
func (f *fakeMetaStore) DeleteFiles(_ context.Context, _ string, filePaths []string) error {
	for _, p := range filePaths {
		delete(f.hashes, p)
		delete(f.chunks, p)
	}
	return nil
}

const samplePython = `def create_post(title):
    """Create a post."""
    return {"title": title}
`

func TestRunIndexesNewFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte(samplePython), 0o644))

	meta := &fakeMetaStore{}
	vectors := &fakeVectorStore{}
	embedder := &fakeEmbedder{dim: 4}
	indexer := New(meta, vectors, embedder, nil)

	res, err := indexer.Run(context.Background(), dir, false)

	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesScanned)
	assert.Equal(t, 1, res.FilesIndexed)
	assert.Zero(t, res.FilesDeleted)
	assert.Contains(t, meta.hashCalls, "app.py")
}

func TestRunSkipsUnchangedFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte(samplePython), 0o644))

	meta := &fakeMetaStore{}
	vectors := &fakeVectorStore{}
	embedder := &fakeEmbedder{dim: 4}
	indexer := New(meta, vectors, embedder, nil)

	_, err := indexer.Run(context.Background(), dir, false)
	require.NoError(t, err)
	firstCalls := len(meta.hashCalls)

	res, err := indexer.Run(context.Background(), dir, false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.FilesScanned)
	assert.Zero(t, res.FilesIndexed, "unchanged hash should skip re-indexing")
	assert.Equal(t, firstCalls, len(meta.hashCalls))
}

func TestRunDeletesFilesRemovedFromWalk(t *testing.T) {
	dir := t.TempDir()
	meta := &fakeMetaStore{hashes: map[string]string{"gone.py": "oldhash"}}
	vectors := &fakeVectorStore{}
	embedder := &fakeEmbedder{dim: 4}
	indexer := New(meta, vectors, embedder, nil)

	res, err := indexer.Run(context.Background(), dir, false)

	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesDeleted)
	assert.Contains(t, vectors.deletedFiles, "gone.py")
}

func TestRunPromotesToRebuildWhenCollectionRecreated(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.py"), []byte(samplePython), 0o644))

	meta := &fakeMetaStore{hashes: map[string]string{"stale.py": "x"}}
	vectors := &fakeVectorStore{rebuildOnEnsure: true}
	embedder := &fakeEmbedder{dim: 4}
	indexer := New(meta, vectors, embedder, nil)

	_, err := indexer.Run(context.Background(), dir, false)

	require.NoError(t, err)
	assert.NotContains(t, meta.hashes, "stale.py", "ClearRepo should have wiped prior file hashes")
}

func TestEmbeddingTextIncludesHTTPMetadataOnlyWhenRoute(t *testing.T) {
	c := &chunk.CodeChunk{FilePath: "a.py", Symbol: "f", SymbolKind: "function", Description: "does a thing"}
	text := EmbeddingText(c)
	assert.NotContains(t, text, "HTTP Metadata")

	c.RouteMethod = "POST"
	c.RoutePath = "/posts"
	text = EmbeddingText(c)
	assert.Contains(t, text, "HTTP Metadata")
	assert.Contains(t, text, "Method: POST")
	assert.Contains(t, text, "Route: /posts")
}
