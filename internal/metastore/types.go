// Package metastore implements the metadata store (spec §4.5): a durable
// relational store for files, chunks, the embedding cache, the chunk
// summary cache, and per-repo index timestamps.
package metastore

import (
	"context"
	"time"

	"github.com/ainav/ainav/internal/chunk"
)

// FileRecord is (repo_path, file_path) -> (content_hash, last_indexed_at).
type FileRecord struct {
	RepoPath      string
	FilePath      string
	ContentHash   string
	LastIndexedAt time.Time
}

// EmbeddingCacheEntry is keyed by the hash of the embedding input text.
type EmbeddingCacheEntry struct {
	Key       string
	Dimension int
	Vector    []float32
	UpdatedAt time.Time
}

// SummaryCacheEntry is keyed by summary_key; llm.Summarizer builds it as
// sha256(model|file_path|content_hash|text).
type SummaryCacheEntry struct {
	SummaryKey string
	ModelName  string
	Summary    string
	UpdatedAt  time.Time
}

// Status is the response shape for the metadata-store half of /status.
type Status struct {
	IndexedFiles  int
	IndexedChunks int
	LastIndexedAt *time.Time
}

// Store is the metadata store's operation set (spec §4.5 table).
type Store interface {
	ClearRepo(ctx context.Context, repoPath string) error
	GetFileHashes(ctx context.Context, repoPath string) (map[string]string, error)
	UpsertFileHash(ctx context.Context, repoPath, filePath, contentHash string) error
	DeleteFiles(ctx context.Context, repoPath string, filePaths []string) error

	GetChunkIDsForFile(ctx context.Context, repoPath, filePath string) ([]string, error)
	DeleteChunksByFile(ctx context.Context, repoPath, filePath string) error
	DeleteChunksByIDs(ctx context.Context, chunkIDs []string) error
	UpsertChunks(ctx context.Context, repoPath string, chunks []*chunk.CodeChunk) error
	GetChunksByIDs(ctx context.Context, chunkIDs []string) (map[string]*chunk.CodeChunk, error)

	GetCachedEmbeddings(ctx context.Context, keys []string) (map[string]*EmbeddingCacheEntry, error)
	UpsertCachedEmbeddings(ctx context.Context, entries []*EmbeddingCacheEntry) error

	GetCachedChunkSummaries(ctx context.Context, keys []string) (map[string]*SummaryCacheEntry, error)
	UpsertCachedChunkSummaries(ctx context.Context, entries []*SummaryCacheEntry) error

	GetStatus(ctx context.Context, repoPath string) (*Status, error)

	Close() error
}
