package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ainav/ainav/internal/metastore"
)

const summaryPromptTemplate = `Summarize what this code does in one sentence, mentioning the function
or route name if present. Output ONLY the sentence.

File: %s
Symbol: %s

%s

Summary:`

// SummaryCache is the subset of metadata-store summary-cache operations
// the Summarizer needs.
type SummaryCache interface {
	GetCachedChunkSummaries(ctx context.Context, keys []string) (map[string]*metastore.SummaryCacheEntry, error)
	UpsertCachedChunkSummaries(ctx context.Context, entries []*metastore.SummaryCacheEntry) error
}

// Summarizer produces an optional one-sentence LLM summary per chunk
// (spec §4.8), caching by (model, file path, content hash, text) so
// unchanged chunks are never re-summarized. The key holds the chunk's
// file path, not its chunk id, so chunks of one file with identical text
// share one cached summary.
type Summarizer struct {
	client Client
	cache  SummaryCache
}

func NewSummarizer(client Client, cache SummaryCache) *Summarizer {
	return &Summarizer{client: client, cache: cache}
}

func summaryKey(modelName, chunkID, contentHash, text string) string {
	h := sha256.Sum256([]byte(modelName + "|" + chunkID + "|" + contentHash + "|" + text))
	return hex.EncodeToString(h[:])
}

// Summarize returns an LLM-generated summary, or "" if the client is
// unavailable. A failed generation call leaves the chunk's summary null
// rather than propagating the error (spec §7: LLM failures are always
// recoverable).
func (s *Summarizer) Summarize(ctx context.Context, filePath, symbol, contentHash, text string) string {
	if !s.client.Available(ctx) {
		return ""
	}

	key := summaryKey(s.client.ModelName(), filePath, contentHash, text)
	if cached, err := s.cache.GetCachedChunkSummaries(ctx, []string{key}); err == nil {
		if entry, ok := cached[key]; ok {
			return entry.Summary
		}
	}

	truncated := text
	if len(truncated) > 1500 {
		truncated = truncated[:1500] + "\n... [truncated]"
	}
	prompt := fmt.Sprintf(summaryPromptTemplate, filePath, symbol, truncated)

	out, err := s.client.Generate(ctx, prompt)
	if err != nil || strings.TrimSpace(out) == "" {
		return ""
	}
	summary := strings.TrimSpace(out)

	_ = s.cache.UpsertCachedChunkSummaries(ctx, []*metastore.SummaryCacheEntry{{
		SummaryKey: key,
		ModelName:  s.client.ModelName(),
		Summary:    summary,
	}})
	return summary
}
