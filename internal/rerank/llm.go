package rerank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ainav/ainav/internal/llm"
)

// DefaultVectorConfidenceThreshold is the top-candidate vector_score
// below which the LLM reranker engages (spec §4.13).
const DefaultVectorConfidenceThreshold = 0.85

const llmRerankPromptTemplate = `You are selecting the single best code match for a search query.
Respond with ONLY a JSON object: {"file": string, "line": integer, "reason": string}.
"file" must be exactly one of the candidate file paths below. "line" must be a line
number that falls inside that file's candidate range. "reason" must be non-empty.

Query: %s

Candidates:
%s

JSON:`

// Selection is the outcome of the optional LLM rerank stage (spec §4.13,
// §4.14 step 8): either the LLM's choice or a vector fallback.
type Selection struct {
	FilePath string
	Line     int
	Reason   string
	Source   string // "vector" | "llm"

	UsedLLM        bool
	Model          string
	Latency        time.Duration
	RewrittenQuery string
}

type llmChoice struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// LLMRerank implements §4.13: engaged only when the top candidate's
// vector score is below threshold. It optionally rewrites the query,
// serializes up to 10 candidates, asks the LLM to choose one, validates
// the choice against the candidate list, and falls back to the top
// vector match on any failure.
func LLMRerank(ctx context.Context, client llm.Client, rewriter *llm.Rewriter, query string, matches []Candidate, threshold float64, maxCandidates int) Selection {
	if len(matches) == 0 {
		return Selection{Source: "vector", Reason: "no candidates"}
	}
	top := matches[0]
	fallback := Selection{
		FilePath: top.FilePath,
		Line:     top.StartLine,
		Reason:   "reranker disabled",
		Source:   "vector",
	}

	if client == nil || !client.Available(ctx) {
		return fallback
	}
	if top.VectorScore >= threshold {
		fallback.Reason = "top candidate above confidence threshold"
		return fallback
	}

	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	window := matches
	if len(window) > maxCandidates {
		window = window[:maxCandidates]
	}

	rewritten := query
	if rewriter != nil {
		if rw, err := rewriter.Rewrite(ctx, query); err == nil {
			rewritten = rw
		}
	}

	start := time.Now()
	prompt := fmt.Sprintf(llmRerankPromptTemplate, rewritten, serializeCandidates(window))
	raw, err := client.Generate(ctx, prompt)
	latency := time.Since(start)
	if err != nil {
		fallback.Reason = "rerank failed: " + err.Error()
		return fallback
	}

	choice, ok := parseLLMChoice(raw)
	if !ok {
		fallback.Reason = "rerank failed: malformed LLM response"
		return fallback
	}

	line, ok := validateChoice(choice, window)
	if !ok {
		fallback.Reason = "rerank failed: file not in candidate list"
		return fallback
	}

	return Selection{
		FilePath:       choice.File,
		Line:           line,
		Reason:         choice.Reason,
		Source:         "llm",
		UsedLLM:        true,
		Model:          client.ModelName(),
		Latency:        latency,
		RewrittenQuery: rewritten,
	}
}

// parseLLMChoice extracts the {file,line,reason} JSON object from a raw
// completion, tolerating surrounding prose by scanning for the first
// '{'..last '}' span.
func parseLLMChoice(raw string) (llmChoice, bool) {
	start := strings.IndexByte(raw, '{')
	end := strings.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return llmChoice{}, false
	}
	var c llmChoice
	if err := json.Unmarshal([]byte(raw[start:end+1]), &c); err != nil {
		return llmChoice{}, false
	}
	if c.File == "" || c.Line <= 0 || strings.TrimSpace(c.Reason) == "" {
		return llmChoice{}, false
	}
	return c, true
}

// validateChoice confirms choice.File appears among candidates. If the
// line falls outside every candidate range for that file, it snaps to
// the highest-scoring candidate's start line for that file.
func validateChoice(choice llmChoice, candidates []Candidate) (int, bool) {
	var best *Candidate
	lineInRange := false
	for i := range candidates {
		c := &candidates[i]
		if c.FilePath != choice.File {
			continue
		}
		if best == nil || c.Score > best.Score {
			best = c
		}
		if choice.Line >= c.StartLine && choice.Line <= c.EndLine {
			lineInRange = true
		}
	}
	if best == nil {
		return 0, false
	}
	if lineInRange {
		return choice.Line, true
	}
	return best.StartLine, true
}

func serializeCandidates(candidates []Candidate) string {
	type serialized struct {
		FilePath        string  `json:"file_path"`
		LineRange       [2]int  `json:"line_range"`
		Snippet         string  `json:"snippet"`
		Symbol          string  `json:"symbol"`
		SymbolKind      string  `json:"symbol_kind"`
		IntentTags      []string `json:"intent_tags"`
		VectorScore     float64 `json:"vector_score"`
		KeywordScore    float64 `json:"keyword_score"`
		SymbolScore     float64 `json:"symbol_score"`
		IntentScore     float64 `json:"intent_score"`
		StructuralScore float64 `json:"structural_score"`
	}
	out := make([]serialized, len(candidates))
	for i, c := range candidates {
		out[i] = serialized{
			FilePath:        c.FilePath,
			LineRange:       [2]int{c.StartLine, c.EndLine},
			Snippet:         c.snippet(),
			Symbol:          c.Symbol,
			SymbolKind:      c.SymbolKind,
			IntentTags:      c.IntentTags,
			VectorScore:     c.VectorScore,
			KeywordScore:    c.KeywordScore,
			SymbolScore:     c.SymbolScore,
			IntentScore:     c.IntentScore,
			StructuralScore: c.StructuralScore,
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "[]"
	}
	return string(b)
}
