package intent

import (
	"path/filepath"
	"strings"

	"github.com/ainav/ainav/internal/normalize"
)

const intentTextSampleBytes = 8000

var pathNoiseTags = map[string]string{
	"seed":      "seed_data",
	"seeds":     "seed_data",
	"migration": "migration_script",
	"migrations": "migration_script",
	"test":      "test_script",
	"tests":     "test_script",
	"__tests__": "test_script",
	"spec":      "test_script",
	"scripts":   "script",
	"script":    "script",
}

var loggingHints = map[string]struct{}{
	"log": {}, "logger": {}, "logging": {}, "audit": {}, "trace": {},
}

var analyticsHints = map[string]struct{}{
	"analytics": {}, "metric": {}, "metrics": {}, "telemetry": {}, "tracking": {}, "event": {},
}

var crudHints = map[string][]string{
	"create_resource": {"create", "add", "insert", "new"},
	"update_resource": {"update", "edit", "modify", "change"},
	"delete_resource": {"delete", "remove", "destroy", "drop"},
	"read_resource":   {"read", "get", "fetch", "find", "list", "show", "retrieve"},
}

// ExtractIntentMetadata derives the per-chunk intent tag set from a file
// path, symbol kind/name, and chunk text, folding in the route signal when
// one is present in text.
func ExtractIntentMetadata(filePath, symbolKind, symbolName, text string) []string {
	sample := text
	if len(sample) > intentTextSampleBytes {
		sample = sample[:intentTextSampleBytes]
	}

	terms := normalize.Set(
		normalize.NormalizeTerms(filePath),
		normalize.NormalizeTerms(symbolName),
		normalize.NormalizeTerms(sample),
	)

	var tags []string

	if sig := ExtractRouteSignal(text, symbolName); sig != nil && sig.Intent != "" {
		tags = append(tags, sig.Intent+"_resource")
	}

	for _, part := range pathComponents(filePath) {
		if tag, ok := pathNoiseTags[strings.ToLower(part)]; ok {
			tags = append(tags, tag)
		}
	}

	for _, t := range terms {
		if _, ok := loggingHints[t]; ok {
			tags = append(tags, "logging")
			break
		}
	}
	for _, t := range terms {
		if _, ok := analyticsHints[t]; ok {
			tags = append(tags, "analytics")
			break
		}
	}

	for tag, verbs := range crudHints {
		for _, v := range verbs {
			if normalize.Contains(terms, v) {
				tags = append(tags, tag)
				break
			}
		}
	}

	if hasRouteHandlerSignal(text, symbolName, symbolKind) {
		tags = append(tags, "route_handler")
	}

	return normalize.DedupSorted(tags)
}

func hasRouteHandlerSignal(text, symbolName, symbolKind string) bool {
	if symbolKind == "route" {
		return true
	}
	return ExtractRouteSignal(text, symbolName) != nil
}

func pathComponents(p string) []string {
	p = filepath.ToSlash(p)
	return strings.Split(p, "/")
}
