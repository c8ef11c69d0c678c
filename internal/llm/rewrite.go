package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const defaultRewriteCacheSize = 256

const rewritePromptTemplate = `Rewrite this natural-language code search query into a short, literal
search phrase emphasizing function/route/intent keywords. Output ONLY the
rewritten query, no preamble.

Query: %s

Rewritten query:`

// Rewriter expands a natural-language query into a literal keyword-dense
// phrase (part of §4.14's rewrite -> embed -> search pipeline), caching
// results per (model, query) so a repeated query never re-invokes the LLM.
type Rewriter struct {
	client Client
	cache  *lru.Cache[string, string]
}

func NewRewriter(client Client) *Rewriter {
	cache, _ := lru.New[string, string](defaultRewriteCacheSize)
	return &Rewriter{client: client, cache: cache}
}

func rewriteCacheKey(modelName, query string) string {
	h := sha256.Sum256([]byte(modelName + "\x00" + query))
	return hex.EncodeToString(h[:])
}

// Rewrite returns the LLM-rewritten query, or the original query
// unchanged if the client is unavailable or returns an empty response.
func (r *Rewriter) Rewrite(ctx context.Context, query string) (string, error) {
	if !r.client.Available(ctx) {
		return query, nil
	}

	key := rewriteCacheKey(r.client.ModelName(), query)
	if cached, ok := r.cache.Get(key); ok {
		return cached, nil
	}

	prompt := fmt.Sprintf(rewritePromptTemplate, query)
	out, err := r.client.Generate(ctx, prompt)
	if err != nil {
		return query, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		out = query
	}

	r.cache.Add(key, out)
	return out, nil
}
