// Package score implements the hybrid scorer (spec §4.10): a weighted
// blend of vector similarity, keyword overlap, symbol-term overlap,
// intent-candidate overlap, and structural-term overlap.
package score

import (
	"strings"

	"github.com/ainav/ainav/internal/chunk"
	"github.com/ainav/ainav/internal/intent"
	"github.com/ainav/ainav/internal/normalize"
)

// Weights are the hybrid scorer's fixed component weights (spec §4.10).
const (
	WeightVector     = 0.50
	WeightKeyword    = 0.18
	WeightSymbol     = 0.12
	WeightIntent     = 0.12
	WeightStructural = 0.08
)

// Components is the per-chunk breakdown the scorer produces, retained so
// ranking heuristics (§4.11) and API responses can explain a score.
type Components struct {
	VectorScore     float64
	KeywordScore    float64
	SymbolScore     float64
	IntentScore     float64
	StructuralScore float64
	Combined        float64
}

// NormalizeVectorScore maps a raw vector-store similarity into [0, 1].
// Scores already in [0, 1] (e.g. a cosine similarity some stores clamp
// to non-negative, or a dot-product score) pass through unchanged;
// scores in [-1, 1] are mapped via (s+1)/2. Out-of-range inputs are
// clamped to [-1, 1] before mapping.
func NormalizeVectorScore(raw float32) float64 {
	v := float64(raw)
	if v >= 0 && v <= 1 {
		return v
	}
	if v < -1 {
		v = -1
	}
	if v > 1 {
		v = 1
	}
	return (v + 1) / 2
}

// overlapRatio is |a ∩ b| / |a|, the directional overlap ratio used by
// keyword_score, symbol_score, and structural_score: it measures how much
// of the query side (a) is covered by the chunk side (b). 0 when either
// side is empty.
func overlapRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	overlap := normalize.OverlapCount(a, b)
	return float64(overlap) / float64(len(a))
}

// intentScore matches the query's inferred CRUD intents against a small
// per-chunk candidate set: the chunk's own route intent, its route
// method, and HTTPIntentMap[route method] (deduplicated, nulls dropped).
func intentScore(q *intent.QuerySignal, c *chunk.CodeChunk) float64 {
	if q == nil || len(q.Intents) == 0 {
		return 0
	}
	candidates := map[string]struct{}{}
	if c.RouteIntent != "" {
		candidates[strings.ToLower(c.RouteIntent)] = struct{}{}
	}
	method := strings.ToLower(c.RouteMethod)
	if method != "" {
		candidates[method] = struct{}{}
		if mapped, ok := intent.HTTPIntentMap[method]; ok {
			candidates[mapped] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return 0
	}
	matched := 0
	for _, in := range q.Intents {
		if _, ok := candidates[in]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(q.Intents))
}

// structuralCandidates is the chunk-side set structural_score matches
// the query's structural terms against: the chunk's own structural
// terms plus its route method/intent and a normalized form of its
// route resource.
func structuralCandidates(c *chunk.CodeChunk) []string {
	out := append([]string{}, c.StructuralTerms...)
	if c.RouteMethod != "" {
		out = append(out, strings.ToLower(c.RouteMethod))
	}
	if c.RouteIntent != "" {
		out = append(out, c.RouteIntent)
	}
	if c.RouteResource != "" {
		out = append(out, normalize.NormalizeTerms(c.RouteResource)...)
	}
	return out
}

// Score computes the hybrid score for one chunk against one query
// (normalized query terms, the inferred query signal, and the chunk's
// vector similarity from the vector store search).
func Score(queryTerms []string, q *intent.QuerySignal, c *chunk.CodeChunk, vectorScore float32) Components {
	comp := Components{
		VectorScore:     NormalizeVectorScore(vectorScore),
		KeywordScore:    overlapRatio(queryTerms, c.Keywords),
		SymbolScore:     overlapRatio(queryTerms, c.SymbolTerms),
		IntentScore:     intentScore(q, c),
		StructuralScore: overlapRatio(structuralQueryTerms(q), structuralCandidates(c)),
	}
	comp.Combined = WeightVector*comp.VectorScore +
		WeightKeyword*comp.KeywordScore +
		WeightSymbol*comp.SymbolScore +
		WeightIntent*comp.IntentScore +
		WeightStructural*comp.StructuralScore
	return comp
}

func structuralQueryTerms(q *intent.QuerySignal) []string {
	if q == nil {
		return nil
	}
	return q.StructuralTerms
}
