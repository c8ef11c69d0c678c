package intent

import (
	"strings"

	"github.com/ainav/ainav/internal/normalize"
)

// QuerySignal is the intent/structural decomposition of a user query,
// computed by InferQuerySignal.
type QuerySignal struct {
	Methods         []string
	Intents         []string
	StructuralTerms []string
}

var intentAliases = map[string][]string{
	"create": {"create", "add", "new", "insert", "post", "register", "submit"},
	"update": {"update", "edit", "modify", "put", "patch", "change"},
	"delete": {"delete", "remove", "destroy", "drop"},
	"read":   {"read", "get", "fetch", "find", "list", "show", "retrieve"},
}

var aliasToIntent = buildAliasToIntent()

func buildAliasToIntent() map[string]string {
	m := make(map[string]string)
	for intent, aliases := range intentAliases {
		for _, a := range aliases {
			m[a] = intent
		}
	}
	return m
}

var queryStopWords = map[string]struct{}{
	"the": {}, "this": {}, "that": {}, "with": {}, "from": {}, "into": {},
	"where": {}, "when": {}, "which": {}, "what": {}, "does": {}, "should": {},
	"route": {}, "endpoint": {}, "http": {}, "api": {}, "resource": {},
}

// InferQuerySignal normalizes query and derives its HTTP verbs, CRUD
// intents, and structural terms.
func InferQuerySignal(query string) *QuerySignal {
	terms := normalize.NormalizeTerms(query)

	var methods []string
	intentSet := map[string]struct{}{}
	for _, t := range terms {
		if _, isMethod := httpMethods[t]; isMethod {
			methods = append(methods, t)
		}
		if in, ok := aliasToIntent[t]; ok {
			intentSet[in] = struct{}{}
		}
		if in, ok := methodToIntent[t]; ok {
			intentSet[in] = struct{}{}
		}
	}

	var structural []string
	for _, t := range terms {
		if _, stop := queryStopWords[t]; stop {
			continue
		}
		structural = append(structural, t)
	}
	structural = append(structural, methods...)
	for in := range intentSet {
		structural = append(structural, in)
	}

	var intents []string
	for in := range intentSet {
		intents = append(intents, in)
	}

	return &QuerySignal{
		Methods:         normalize.DedupSorted(methods),
		Intents:         normalize.DedupSorted(intents),
		StructuralTerms: normalize.DedupSorted(structural),
	}
}

// NormalizedIntents lowercases a list for membership checks against tags.
func NormalizedIntents(s []string) []string {
	out := make([]string, len(s))
	for i, v := range s {
		out[i] = strings.ToLower(v)
	}
	return out
}
