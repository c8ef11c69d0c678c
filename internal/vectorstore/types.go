// Package vectorstore implements the per-repo vector collection store
// (spec §4.7) on top of Qdrant.
package vectorstore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strconv"

	"github.com/google/uuid"
)

// pointNamespace is the fixed UUIDv5 namespace chunk ids are hashed into,
// giving every chunk a stable point identity across re-indexes.
var pointNamespace = uuid.MustParse("9b1f9b58-9a24-4c6d-8d2e-4f9b1a2c7e6d")

// PointID derives the stable Qdrant point id for a chunk id.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

// CollectionName derives the per-repo collection name: "ainav_" followed
// by the first 20 hex characters of sha1(repoPath).
func CollectionName(repoPath string) string {
	sum := sha1.Sum([]byte(repoPath))
	return "ainav_" + hex.EncodeToString(sum[:])[:20]
}

// Point is one vector + payload to upsert.
type Point struct {
	ChunkID string
	Vector  []float32
	Payload map[string]any
}

// SearchResult is one scored match from Search.
type SearchResult struct {
	ChunkID string
	Score   float32
	Payload map[string]any
}

// DimensionMismatchError is returned by Search when a query vector's
// dimension does not match the collection's stored dimension.
// EnsureCollection does not return it; it recreates the collection instead.
type DimensionMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimensionMismatchError) Error() string {
	return "vectorstore: dimension mismatch: collection expects " +
		strconv.Itoa(e.Expected) + ", got " + strconv.Itoa(e.Actual)
}

// Store is the vector store's operation set (spec §4.7).
type Store interface {
	// EnsureCollection makes sure the repo's collection exists with the
	// given vector dimension, recreating it if a prior dimension doesn't
	// match. Returns rebuild=true when recreation means callers must
	// re-upsert every chunk (the old data was wiped).
	EnsureCollection(ctx context.Context, repoPath string, dimension int) (rebuild bool, err error)

	Upsert(ctx context.Context, repoPath string, points []Point) error
	DeleteByFilePath(ctx context.Context, repoPath, filePath string) error
	DeleteByChunkIDs(ctx context.Context, repoPath string, chunkIDs []string) error
	Search(ctx context.Context, repoPath string, vector []float32, limit int) ([]SearchResult, error)
	CountChunks(ctx context.Context, repoPath string) (int, error)

	Close() error
}
