// Package search implements the query engine (spec §4.14): rewrite,
// embed, vector-search, rescore, heuristics, optional cross-encoder
// rerank, and LLM-or-vector selection.
package search

import (
	"time"

	"github.com/ainav/ainav/internal/rerank"
)

// Match is one ranked result returned by Query, carrying its score
// breakdown and a human-readable explanation.
type Match struct {
	ChunkID     string
	FilePath    string
	Symbol      string
	SymbolKind  string
	StartLine   int
	EndLine     int
	Language    string
	Description string
	IntentTags  []string
	RouteMethod string
	RoutePath   string
	Tokens      int

	VectorScore     float64
	KeywordScore    float64
	SymbolScore     float64
	IntentScore     float64
	StructuralScore float64
	Adjusted        float64
	Explanation     string

	MatchedIntents  []string
	MatchedKeywords []string
}

// Telemetry reports on the optional LLM-assisted stages of a query.
type Telemetry struct {
	RewriteUsed    bool
	RewrittenQuery string
	LLMUsed        bool
	LLMModel       string
	LLMLatency     time.Duration
}

// Result is the full outcome of Query.
type Result struct {
	Matches   []Match
	Duration  time.Duration
	Selection rerank.Selection
	Telemetry Telemetry
}
