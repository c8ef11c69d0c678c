package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ainav/ainav/internal/chunk"
	"github.com/ainav/ainav/internal/intent"
	"github.com/ainav/ainav/internal/llm"
	"github.com/ainav/ainav/internal/metastore"
	"github.com/ainav/ainav/internal/normalize"
	"github.com/ainav/ainav/internal/rank"
	"github.com/ainav/ainav/internal/rerank"
	"github.com/ainav/ainav/internal/score"
	"github.com/ainav/ainav/internal/vectorstore"
)

// CandidateMultiplier is how many times top_k the vector search fetches,
// so rescoring has enough candidates to reorder within (spec §4.14 step 3).
const CandidateMultiplier = 12

// DefaultLLMWorkers and DefaultRerankWorkers are the default bounded
// worker-pool sizes for external model calls (spec §5): a burst of
// concurrent queries can't open unbounded concurrent calls against
// Ollama or the cross-encoder.
const (
	DefaultLLMWorkers    = 4
	DefaultRerankWorkers = 1
)

// Embedder is the subset of internal/embed's Service used to encode a
// query, kept as a narrow interface so the engine is testable without a
// live embedding backend.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Engine wires together the metadata store, vector store, embedder, and
// optional LLM/cross-encoder collaborators into the query pipeline.
type Engine struct {
	meta     metastore.Store
	vectors  vectorstore.Store
	embedder Embedder

	rankConfig rank.Config

	preRewriter  *llm.Rewriter // pre-search rewrite (step 1)
	llmClient    llm.Client    // nil disables the LLM reranker entirely
	llmRewriter  *llm.Rewriter // rerank-stage rewrite, may be the same instance as preRewriter or nil
	crossEncoder rerank.CrossEncoder

	vectorThreshold float64
	maxCandidates   int

	llmPool    chan struct{}
	rerankPool chan struct{}
}

// Option configures an Engine at construction time.
type Option func(*Engine)

func WithPreSearchRewrite(r *llm.Rewriter) Option {
	return func(e *Engine) { e.preRewriter = r }
}

func WithLLMReranker(client llm.Client, rewriter *llm.Rewriter) Option {
	return func(e *Engine) {
		e.llmClient = client
		e.llmRewriter = rewriter
	}
}

func WithCrossEncoder(enc rerank.CrossEncoder) Option {
	return func(e *Engine) { e.crossEncoder = enc }
}

func WithVectorThreshold(t float64) Option {
	return func(e *Engine) { e.vectorThreshold = t }
}

func WithRankConfig(cfg rank.Config) Option {
	return func(e *Engine) { e.rankConfig = cfg }
}

// WithLLMWorkers bounds concurrent LLM reranker calls to n. Zero or
// negative falls back to DefaultLLMWorkers.
func WithLLMWorkers(n int) Option {
	if n <= 0 {
		n = DefaultLLMWorkers
	}
	return func(e *Engine) { e.llmPool = make(chan struct{}, n) }
}

// WithRerankWorkers bounds concurrent cross-encoder calls to n. Zero or
// negative falls back to DefaultRerankWorkers.
func WithRerankWorkers(n int) Option {
	if n <= 0 {
		n = DefaultRerankWorkers
	}
	return func(e *Engine) { e.rerankPool = make(chan struct{}, n) }
}

func New(meta metastore.Store, vectors vectorstore.Store, embedder Embedder, opts ...Option) *Engine {
	e := &Engine{
		meta:            meta,
		vectors:         vectors,
		embedder:        embedder,
		rankConfig:      rank.DefaultConfig(),
		vectorThreshold: rerank.DefaultVectorConfidenceThreshold,
		maxCandidates:   rerank.DefaultMaxCandidates,
		llmPool:         make(chan struct{}, DefaultLLMWorkers),
		rerankPool:      make(chan struct{}, DefaultRerankWorkers),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// acquire blocks until a pool slot is free, returning a release
// function, or returns ctx's error if it's canceled first.
func acquire(ctx context.Context, pool chan struct{}) (func(), error) {
	select {
	case pool <- struct{}{}:
		return func() { <-pool }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Query implements the query engine pipeline (spec §4.14).
func (e *Engine) Query(ctx context.Context, repoPath, queryText string, topK int) (*Result, error) {
	start := time.Now()
	if topK <= 0 {
		topK = 10
	}

	telemetry := Telemetry{}
	searchText := queryText
	if e.preRewriter != nil {
		rewritten, err := e.preRewriter.Rewrite(ctx, queryText)
		if err == nil && rewritten != queryText {
			searchText = rewritten
			telemetry.RewriteUsed = true
			telemetry.RewrittenQuery = rewritten
		}
	}

	vec, err := e.embedder.EmbedQuery(ctx, searchText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	limit := topK * CandidateMultiplier
	if limit < topK {
		limit = topK
	}
	hits, err := e.vectors.Search(ctx, repoPath, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ChunkID
	}
	chunks, err := e.meta.GetChunksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch chunks: %w", err)
	}

	queryTerms := normalize.NormalizeTerms(searchText)
	querySignal := intent.InferQuerySignal(searchText)

	candidates := make([]rerank.Candidate, 0, len(hits))
	reasonsByChunk := make(map[string][]string, len(hits))
	componentsByChunk := make(map[string]score.Components, len(hits))
	matchedKeywordsByChunk := make(map[string][]string, len(hits))
	matchedIntentsByChunk := make(map[string][]string, len(hits))
	for _, h := range hits {
		c, ok := chunks[h.ChunkID]
		if !ok {
			continue
		}
		comp := score.Score(queryTerms, querySignal, c, h.Score)
		adj := rank.Adjust(e.rankConfig, comp.Combined, queryTerms, querySignal, c)

		componentsByChunk[c.ChunkID] = comp
		reasonsByChunk[c.ChunkID] = adj.Reasons
		matchedKeywordsByChunk[c.ChunkID] = adj.MatchedKeywords
		matchedIntentsByChunk[c.ChunkID] = adj.MatchedIntents

		candidates = append(candidates, toCandidate(c, comp, adj.Adjusted))
	}

	sortCandidates(candidates)

	if e.crossEncoder != nil {
		if release, err := acquire(ctx, e.rerankPool); err == nil {
			candidates = rerank.CrossEncoderRerank(ctx, e.crossEncoder, searchText, candidates, e.maxCandidates)
			release()
		}
	}

	selectionText := searchText
	selection := rerank.Selection{Source: "vector", Reason: "reranker disabled"}
	if len(candidates) > 0 {
		selection.FilePath = candidates[0].FilePath
		selection.Line = candidates[0].StartLine
	}
	if e.llmClient != nil {
		if release, err := acquire(ctx, e.llmPool); err == nil {
			selection = rerank.LLMRerank(ctx, e.llmClient, e.llmRewriter, selectionText, candidates, e.vectorThreshold, e.maxCandidates)
			release()
		}
		if selection.UsedLLM {
			telemetry.LLMUsed = true
			telemetry.LLMModel = selection.Model
			telemetry.LLMLatency = selection.Latency
			if selection.RewrittenQuery != "" && selection.RewrittenQuery != selectionText {
				telemetry.RewrittenQuery = selection.RewrittenQuery
			}
		}
	}

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		comp := componentsByChunk[c.ChunkID]
		matches[i] = Match{
			ChunkID:         c.ChunkID,
			FilePath:        c.FilePath,
			Symbol:          c.Symbol,
			SymbolKind:      c.SymbolKind,
			StartLine:       c.StartLine,
			EndLine:         c.EndLine,
			Description:     c.Description,
			IntentTags:      c.IntentTags,
			RouteMethod:     c.RouteMethod,
			RoutePath:       c.RoutePath,
			Tokens:          c.Tokens,
			VectorScore:     comp.VectorScore,
			KeywordScore:    comp.KeywordScore,
			SymbolScore:     comp.SymbolScore,
			IntentScore:     comp.IntentScore,
			StructuralScore: comp.StructuralScore,
			Adjusted:        c.Score,
			Explanation:     explain(comp, reasonsByChunk[c.ChunkID]),
			MatchedKeywords: matchedKeywordsByChunk[c.ChunkID],
			MatchedIntents:  matchedIntentsByChunk[c.ChunkID],
		}
	}

	return &Result{
		Matches:   matches,
		Duration:  time.Since(start),
		Selection: selection,
		Telemetry: telemetry,
	}, nil
}

func toCandidate(c *chunk.CodeChunk, comp score.Components, adjusted float64) rerank.Candidate {
	return rerank.Candidate{
		ChunkID:         c.ChunkID,
		FilePath:        c.FilePath,
		Symbol:          c.Symbol,
		SymbolKind:      c.SymbolKind,
		IntentTags:      c.IntentTags,
		Summary:         c.LLMSummary,
		Description:     c.Description,
		RouteMethod:     c.RouteMethod,
		RoutePath:       c.RoutePath,
		StartLine:       c.StartLine,
		EndLine:         c.EndLine,
		Text:            c.Text,
		Tokens:          c.Tokens,
		VectorScore:     comp.VectorScore,
		KeywordScore:    comp.KeywordScore,
		SymbolScore:     comp.SymbolScore,
		IntentScore:     comp.IntentScore,
		StructuralScore: comp.StructuralScore,
		Score:           adjusted,
	}
}

// sortCandidates orders by (adjusted score, vector_score, has_symbol,
// -tokens) descending, per spec §4.14 step 6.
func sortCandidates(candidates []rerank.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.VectorScore != b.VectorScore {
			return a.VectorScore > b.VectorScore
		}
		aSym, bSym := hasSymbol(a), hasSymbol(b)
		if aSym != bSym {
			return aSym
		}
		return a.Tokens < b.Tokens
	})
}

func hasSymbol(c rerank.Candidate) bool { return c.Symbol != "" }

func explain(comp score.Components, reasons []string) string {
	heuristics := "none"
	if len(reasons) > 0 {
		heuristics = strings.Join(reasons, ", ")
	}
	return fmt.Sprintf(
		"semantic=%.3f; keyword=%.3f; symbol=%.3f; intent=%.3f; structural=%.3f; heuristics=%s",
		comp.VectorScore, comp.KeywordScore, comp.SymbolScore, comp.IntentScore, comp.StructuralScore, heuristics,
	)
}
