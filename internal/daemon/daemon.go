// Package daemon serializes indexing per repository: indexing a given
// repo is exclusive with itself via a per-repo mutex, and queries never
// take that mutex so reads proceed while a different repo (or the same
// repo's stale state) is being rebuilt. Bounding concurrent external
// model calls (spec §5) is the query engine's own responsibility, since
// that's where the LLM/cross-encoder calls are actually made — see
// internal/search's WithLLMWorkers/WithRerankWorkers.
package daemon

import (
	"context"
	"sync"

	"github.com/ainav/ainav/internal/index"
	"github.com/ainav/ainav/internal/metastore"
	"github.com/ainav/ainav/internal/search"
)

// IndexRunner is the subset of index.Indexer the daemon dispatches to.
type IndexRunner interface {
	Run(ctx context.Context, repoPath string, rebuild bool) (*index.Result, error)
}

// QueryEngine is the subset of search.Engine the daemon dispatches to.
type QueryEngine interface {
	Query(ctx context.Context, repoPath, queryText string, topK int) (*search.Result, error)
}

// Daemon dispatches /index and /query requests (spec §6) to an indexer
// and query engine, serializing concurrent indexing of the same repo.
type Daemon struct {
	indexer IndexRunner
	engine  QueryEngine
	meta    metastore.Store

	repoLocks sync.Mutex
	perRepoMu map[string]*sync.Mutex
}

// New creates a Daemon.
func New(indexer IndexRunner, engine QueryEngine, meta metastore.Store) *Daemon {
	return &Daemon{
		indexer:   indexer,
		engine:    engine,
		meta:      meta,
		perRepoMu: make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding indexing for repoPath, creating
// one on first use.
func (d *Daemon) lockFor(repoPath string) *sync.Mutex {
	d.repoLocks.Lock()
	defer d.repoLocks.Unlock()
	mu, ok := d.perRepoMu[repoPath]
	if !ok {
		mu = &sync.Mutex{}
		d.perRepoMu[repoPath] = mu
	}
	return mu
}

// Index runs an indexing pass over repoPath. Concurrent Index calls
// for the same repoPath serialize on that repo's mutex; calls for
// different repos run concurrently.
func (d *Daemon) Index(ctx context.Context, repoPath string, rebuild bool) (*index.Result, error) {
	mu := d.lockFor(repoPath)
	mu.Lock()
	defer mu.Unlock()

	return d.indexer.Run(ctx, repoPath, rebuild)
}

// Query runs a search over repoPath's index. Query never takes the
// per-repo indexing mutex, so reads proceed while a rebuild of a
// different repo (or the same repo's stale state) is in flight.
func (d *Daemon) Query(ctx context.Context, repoPath, queryText string, topK int) (*search.Result, error) {
	return d.engine.Query(ctx, repoPath, queryText, topK)
}

// Status reports the metadata store's view of repoPath for GET /status.
func (d *Daemon) Status(ctx context.Context, repoPath string) (*metastore.Status, error) {
	return d.meta.GetStatus(ctx, repoPath)
}
