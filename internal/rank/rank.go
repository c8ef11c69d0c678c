// Package rank implements the ranking heuristics (spec §4.11): small
// multiplicative adjustments to a chunk's hybrid score based on intent
// match, route-ish-ness, and noise tags.
package rank

import (
	"github.com/ainav/ainav/internal/chunk"
	"github.com/ainav/ainav/internal/intent"
	"github.com/ainav/ainav/internal/normalize"
)

// Default heuristic factors (spec §4.11).
const (
	DefaultIntentBoost  = 1.3
	DefaultRouteBoost   = 0.7
	DefaultNoisePenalty = 1.2
	maxMatched          = 8
)

var routeBoostTriggers = map[string]struct{}{
	"create": {}, "post": {}, "api": {}, "endpoint": {}, "route": {},
}

var noiseTags = map[string]struct{}{
	"seed_data":        {},
	"migration_script": {},
	"test_script":      {},
	"script":           {},
}

// Config holds the heuristic factors, overridable for experimentation.
type Config struct {
	IntentBoost  float64
	RouteBoost   float64
	NoisePenalty float64
}

func DefaultConfig() Config {
	return Config{IntentBoost: DefaultIntentBoost, RouteBoost: DefaultRouteBoost, NoisePenalty: DefaultNoisePenalty}
}

// Result is the adjusted score plus the evidence used to explain it.
type Result struct {
	Multiplier      float64
	Adjusted        float64
	MatchedIntents  []string
	MatchedKeywords []string
	Reasons         []string
}

// Adjust applies the intent boost, route boost, and noise penalty to
// combined (the hybrid scorer's output), and records which intents and
// keywords of the query matched the chunk, capped at 8 each.
func Adjust(cfg Config, combined float64, queryTerms []string, q *intent.QuerySignal, c *chunk.CodeChunk) Result {
	multiplier := 1.0
	var reasons []string

	matchedIntents := matchedResourceIntents(q, c)
	if len(matchedIntents) > 0 {
		multiplier *= cfg.IntentBoost
		reasons = append(reasons, "intent_boost")
	}

	if routeBoostApplies(queryTerms, c) {
		multiplier *= cfg.RouteBoost
		reasons = append(reasons, "route_boost")
	}

	if hasNoiseTag(c) {
		multiplier /= cfg.NoisePenalty
		reasons = append(reasons, "noise_penalty")
	}

	return Result{
		Multiplier:      multiplier,
		Adjusted:        combined * multiplier,
		MatchedIntents:  capAt(matchedIntents, maxMatched),
		MatchedKeywords: capAt(matchedKeywords(queryTerms, c), maxMatched),
		Reasons:         reasons,
	}
}

// matchedResourceIntents returns the query's inferred intents that have a
// matching "{intent}_resource" tag on the chunk.
func matchedResourceIntents(q *intent.QuerySignal, c *chunk.CodeChunk) []string {
	if q == nil {
		return nil
	}
	var matched []string
	for _, in := range q.Intents {
		if normalize.Contains(c.IntentTags, in+"_resource") {
			matched = append(matched, in)
		}
	}
	return matched
}

// routeBoostApplies reports whether the query mentions a route-ish trigger
// term and the chunk itself looks route-ish.
func routeBoostApplies(queryTerms []string, c *chunk.CodeChunk) bool {
	triggered := false
	for _, t := range queryTerms {
		if _, ok := routeBoostTriggers[t]; ok {
			triggered = true
			break
		}
	}
	if !triggered {
		return false
	}
	if c.RouteMethod != "" {
		return true
	}
	if normalize.Contains(c.IntentTags, "route_handler") {
		return true
	}
	return c.SymbolKind == "route"
}

func hasNoiseTag(c *chunk.CodeChunk) bool {
	for _, tag := range c.IntentTags {
		if _, ok := noiseTags[tag]; ok {
			return true
		}
	}
	return false
}

// matchedKeywords is the sorted overlap of queryTerms with the chunk's
// keywords, symbol terms, structural terms, and HTTP method/resource
// tokens.
func matchedKeywords(queryTerms []string, c *chunk.CodeChunk) []string {
	candidates := normalize.Set(c.Keywords, c.SymbolTerms, c.StructuralTerms, routeTokens(c))
	var matched []string
	for _, t := range queryTerms {
		if normalize.Contains(candidates, t) && !normalize.Contains(matched, t) {
			matched = append(matched, t)
		}
	}
	return normalize.DedupSorted(matched)
}

func routeTokens(c *chunk.CodeChunk) []string {
	var out []string
	if c.RouteMethod != "" {
		out = append(out, normalize.NormalizeTerms(c.RouteMethod)...)
	}
	if c.RouteResource != "" {
		out = append(out, normalize.NormalizeTerms(c.RouteResource)...)
	}
	return out
}

func capAt(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
