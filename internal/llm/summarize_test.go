package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ainav/ainav/internal/metastore"
)

type fakeSummaryCache struct {
	store map[string]*metastore.SummaryCacheEntry
}

func newFakeSummaryCache() *fakeSummaryCache {
	return &fakeSummaryCache{store: make(map[string]*metastore.SummaryCacheEntry)}
}

func (f *fakeSummaryCache) GetCachedChunkSummaries(_ context.Context, keys []string) (map[string]*metastore.SummaryCacheEntry, error) {
	out := make(map[string]*metastore.SummaryCacheEntry)
	for _, k := range keys {
		if e, ok := f.store[k]; ok {
			out[k] = e
		}
	}
	return out, nil
}

func (f *fakeSummaryCache) UpsertCachedChunkSummaries(_ context.Context, entries []*metastore.SummaryCacheEntry) error {
	for _, e := range entries {
		f.store[e.SummaryKey] = e
	}
	return nil
}

func TestSummarizeUnavailableClientReturnsEmpty(t *testing.T) {
	client := &fakeClient{available: false}
	s := NewSummarizer(client, newFakeSummaryCache())

	out := s.Summarize(context.Background(), "app/routes.py", "create_post", "hash1", "def create_post(): pass")
	assert.Empty(t, out)
	assert.Zero(t, client.calls)
}

func TestSummarizeCachesByContentHash(t *testing.T) {
	client := &fakeClient{available: true, response: "Creates a new post."}
	cache := newFakeSummaryCache()
	s := NewSummarizer(client, cache)
	ctx := context.Background()

	out1 := s.Summarize(ctx, "app/routes.py", "create_post", "hash1", "def create_post(): pass")
	assert.Equal(t, "Creates a new post.", out1)
	assert.Equal(t, 1, client.calls)

	out2 := s.Summarize(ctx, "app/routes.py", "create_post", "hash1", "def create_post(): pass")
	assert.Equal(t, out1, out2)
	assert.Equal(t, 1, client.calls, "unchanged content hash must hit the cache")
}

func TestSummarizeGenerationFailureReturnsEmptyNotError(t *testing.T) {
	client := &fakeClient{available: true, err: assertionError{}}
	s := NewSummarizer(client, newFakeSummaryCache())

	out := s.Summarize(context.Background(), "app/routes.py", "create_post", "hash1", "text")
	assert.Empty(t, out)
}

type assertionError struct{}

func (assertionError) Error() string { return "generation failed" }
