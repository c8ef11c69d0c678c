package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ainav/ainav/internal/metastore"
)

// PersistentCache is the subset of the metadata store's embedding-cache
// operations the Service needs, so tests can fake it without a real
// database.
type PersistentCache interface {
	GetCachedEmbeddings(ctx context.Context, keys []string) (map[string]*metastore.EmbeddingCacheEntry, error)
	UpsertCachedEmbeddings(ctx context.Context, entries []*metastore.EmbeddingCacheEntry) error
}

// Service is the embedding service (spec §4.6): it applies model-family
// input prefixes and a two-tier cache (in-process LRU, then the
// persistent table) in front of an Embedder backend.
type Service struct {
	backend    Embedder
	persistent PersistentCache
	memory     *lru.Cache[string, []float32]
}

// NewService wraps backend with a memory-tier cache of memCacheSize
// entries and, if persistent is non-nil, a persistent tier backed by the
// metadata store.
func NewService(backend Embedder, persistent PersistentCache, memCacheSize int) *Service {
	if memCacheSize <= 0 {
		memCacheSize = DefaultMemoryCacheSize
	}
	cache, _ := lru.New[string, []float32](memCacheSize)
	return &Service{backend: backend, persistent: persistent, memory: cache}
}

func cacheKey(modelName, text string) string {
	h := sha256.Sum256([]byte(modelName + "\x00" + text))
	return hex.EncodeToString(h[:])
}

// EmbedQuery embeds a search query, applying the backend model family's
// query-side prefix.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return s.embedOne(ctx, applyQueryPrefix(s.backend.ModelName(), text))
}

// EmbedDocuments embeds chunk text for indexing, applying the backend
// model family's document-side prefix.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = applyDocPrefix(s.backend.ModelName(), t)
	}
	return s.embedBatch(ctx, prefixed)
}

func (s *Service) embedOne(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (s *Service) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = cacheKey(s.backend.ModelName(), t)
	}

	var missIdx []int
	for i, key := range keys {
		if vec, ok := s.memory.Get(key); ok {
			results[i] = vec
		} else {
			missIdx = append(missIdx, i)
		}
	}
	if len(missIdx) == 0 {
		return results, nil
	}

	if s.persistent != nil {
		lookupKeys := make([]string, len(missIdx))
		for j, i := range missIdx {
			lookupKeys[j] = keys[i]
		}
		cached, err := s.persistent.GetCachedEmbeddings(ctx, lookupKeys)
		if err == nil {
			var stillMiss []int
			for _, i := range missIdx {
				if entry, ok := cached[keys[i]]; ok {
					results[i] = entry.Vector
					s.memory.Add(keys[i], entry.Vector)
				} else {
					stillMiss = append(stillMiss, i)
				}
			}
			missIdx = stillMiss
		}
	}
	if len(missIdx) == 0 {
		return results, nil
	}

	missTexts := make([]string, len(missIdx))
	for j, i := range missIdx {
		missTexts[j] = texts[i]
	}
	computed, err := s.backend.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}

	var toPersist []*metastore.EmbeddingCacheEntry
	for j, i := range missIdx {
		results[i] = computed[j]
		s.memory.Add(keys[i], computed[j])
		toPersist = append(toPersist, &metastore.EmbeddingCacheEntry{
			Key:       keys[i],
			Dimension: len(computed[j]),
			Vector:    computed[j],
		})
	}
	if s.persistent != nil && len(toPersist) > 0 {
		_ = s.persistent.UpsertCachedEmbeddings(ctx, toPersist)
	}

	return results, nil
}

func (s *Service) Dimensions() int            { return s.backend.Dimensions() }
func (s *Service) ModelName() string          { return s.backend.ModelName() }
func (s *Service) Available(ctx context.Context) bool { return s.backend.Available(ctx) }
func (s *Service) Close() error               { return s.backend.Close() }
