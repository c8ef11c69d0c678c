package daemon

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ainav/ainav/internal/index"
	"github.com/ainav/ainav/internal/metastore"
	"github.com/ainav/ainav/internal/search"
)

type fakeIndexRunner struct {
	mu        sync.Mutex
	running   int
	maxSeen   int
	callCount int
}

func (f *fakeIndexRunner) Run(_ context.Context, _ string, _ bool) (*index.Result, error) {
	f.mu.Lock()
	f.running++
	f.callCount++
	if f.running > f.maxSeen {
		f.maxSeen = f.running
	}
	f.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	f.mu.Lock()
	f.running--
	f.mu.Unlock()

	return &index.Result{FilesIndexed: 1}, nil
}

type fakeQueryEngine struct {
	calls atomic.Int32
}

func (f *fakeQueryEngine) Query(_ context.Context, _, _ string, _ int) (*search.Result, error) {
	f.calls.Add(1)
	return &search.Result{Matches: []search.Match{{FilePath: "a.py"}}}, nil
}

type fakeMetaStatusStore struct {
	metastore.Store
	status *metastore.Status
}

func (f *fakeMetaStatusStore) GetStatus(_ context.Context, _ string) (*metastore.Status, error) {
	return f.status, nil
}

func TestIndexSerializesPerRepo(t *testing.T) {
	runner := &fakeIndexRunner{}
	d := New(runner, &fakeQueryEngine{}, &fakeMetaStatusStore{})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.Index(context.Background(), "/repo", false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, runner.callCount)
	assert.Equal(t, 1, runner.maxSeen, "concurrent Index calls for the same repo must serialize")
}

func TestIndexAllowsConcurrencyAcrossDifferentRepos(t *testing.T) {
	runner := &fakeIndexRunner{}
	d := New(runner, &fakeQueryEngine{}, &fakeMetaStatusStore{})

	var wg sync.WaitGroup
	for _, repo := range []string{"/repo-a", "/repo-b", "/repo-c"} {
		wg.Add(1)
		go func(r string) {
			defer wg.Done()
			_, err := d.Index(context.Background(), r, false)
			assert.NoError(t, err)
		}(repo)
	}
	wg.Wait()

	assert.Greater(t, runner.maxSeen, 1, "different repos should be able to index concurrently")
}

func TestQueryDoesNotTakeIndexLock(t *testing.T) {
	engine := &fakeQueryEngine{}
	d := New(&fakeIndexRunner{}, engine, &fakeMetaStatusStore{})

	// Hold the repo's indexing mutex; Query must still return.
	mu := d.lockFor("/repo")
	mu.Lock()
	defer mu.Unlock()

	res, err := d.Query(context.Background(), "/repo", "find the login handler", 8)
	require.NoError(t, err)
	assert.Len(t, res.Matches, 1)
	assert.Equal(t, int32(1), engine.calls.Load())
}

func TestStatusDelegatesToMetaStore(t *testing.T) {
	now := time.Now()
	meta := &fakeMetaStatusStore{status: &metastore.Status{IndexedFiles: 3, IndexedChunks: 9, LastIndexedAt: &now}}
	d := New(&fakeIndexRunner{}, &fakeQueryEngine{}, meta)

	status, err := d.Status(context.Background(), "/repo")
	require.NoError(t, err)
	assert.Equal(t, 3, status.IndexedFiles)
	assert.Equal(t, 9, status.IndexedChunks)
}
