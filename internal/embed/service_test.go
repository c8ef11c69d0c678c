package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ainav/ainav/internal/metastore"
)

type countingBackend struct {
	calls int
	dims  int
}

func (b *countingBackend) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := b.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (b *countingBackend) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	b.calls += len(texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 0, 0}
	}
	return out, nil
}

func (b *countingBackend) Dimensions() int                    { return 3 }
func (b *countingBackend) ModelName() string                  { return "fake-model" }
func (b *countingBackend) Available(ctx context.Context) bool { return true }
func (b *countingBackend) Close() error                       { return nil }

type fakePersistentCache struct {
	store map[string]*metastore.EmbeddingCacheEntry
}

func newFakePersistentCache() *fakePersistentCache {
	return &fakePersistentCache{store: make(map[string]*metastore.EmbeddingCacheEntry)}
}

func (f *fakePersistentCache) GetCachedEmbeddings(ctx context.Context, keys []string) (map[string]*metastore.EmbeddingCacheEntry, error) {
	out := make(map[string]*metastore.EmbeddingCacheEntry)
	for _, k := range keys {
		if e, ok := f.store[k]; ok {
			out[k] = e
		}
	}
	return out, nil
}

func (f *fakePersistentCache) UpsertCachedEmbeddings(ctx context.Context, entries []*metastore.EmbeddingCacheEntry) error {
	for _, e := range entries {
		f.store[e.Key] = e
	}
	return nil
}

func TestServiceMemoryTierAvoidsRecomputation(t *testing.T) {
	backend := &countingBackend{}
	svc := NewService(backend, nil, 10)
	ctx := context.Background()

	_, err := svc.EmbedQuery(ctx, "find posts")
	require.NoError(t, err)
	_, err = svc.EmbedQuery(ctx, "find posts")
	require.NoError(t, err)

	assert.Equal(t, 1, backend.calls)
}

func TestServicePersistentTierSurvivesFreshMemoryCache(t *testing.T) {
	backend := &countingBackend{}
	persistent := newFakePersistentCache()
	svc1 := NewService(backend, persistent, 10)
	ctx := context.Background()

	_, err := svc1.EmbedQuery(ctx, "find posts")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls)

	svc2 := NewService(backend, persistent, 10)
	_, err = svc2.EmbedQuery(ctx, "find posts")
	require.NoError(t, err)
	assert.Equal(t, 1, backend.calls, "second service should hit the persistent cache, not the backend")
}

func TestEmbedDocumentsBatches(t *testing.T) {
	backend := &countingBackend{}
	svc := NewService(backend, nil, 10)

	vecs, err := svc.EmbedDocuments(context.Background(), []string{"a", "bb", "ccc"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	assert.Equal(t, 3, backend.calls)
}
