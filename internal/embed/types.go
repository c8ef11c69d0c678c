// Package embed implements the embedding service (spec §4.6): a
// model-family-aware prefixing layer and a two-tier cache in front of a
// pluggable embedding backend.
package embed

import (
	"context"
	"math"
	"time"
)

const (
	MinBatchSize     = 1
	MaxBatchSize     = 256
	DefaultBatchSize = 32

	DefaultTimeout        = 60 * time.Second
	DefaultConnectTimeout = 5 * time.Second
	DefaultMaxRetries     = 3

	// DefaultDimensions is used when a backend's dimension cannot be
	// auto-detected and none was configured.
	DefaultDimensions = 768

	// StaticDimensions is the output dimension of the hash-based fallback
	// embedder.
	StaticDimensions = 256

	// DefaultMemoryCacheSize bounds the in-process LRU cache tier.
	DefaultMemoryCacheSize = 1000
)

// Embedder generates vector embeddings for text. Implementations are the
// external embedding-model collaborator described in spec §6.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	ModelName() string
	Available(ctx context.Context) bool
	Close() error
}

func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
