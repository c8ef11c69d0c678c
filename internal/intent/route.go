// Package intent implements the route & intent extractor: regex and
// symbol-kind heuristics that turn source text (or a user query) into HTTP
// method/path/resource/intent signals and CRUD/noise tags.
package intent

import (
	"regexp"
	"strings"

	"github.com/ainav/ainav/internal/normalize"
)

// Signal is a structured route tuple extracted from source text.
type Signal struct {
	Method          string
	Path            string
	Intent          string
	Resource        string
	StructuralTerms []string
}

var httpMethods = map[string]struct{}{
	"get": {}, "post": {}, "put": {}, "delete": {}, "patch": {},
}

// methodCallPattern matches JavaScript-style `.METHOD('/path'` calls.
var methodCallPattern = regexp.MustCompile(`(?i)\.(get|post|put|delete|patch)\(\s*['"]` + `([^'"]*)['"]`)

// decoratorPattern matches a decorator route on the line above a function:
// `@…(router|app)?.METHOD('/path')`.
var decoratorPattern = regexp.MustCompile(`(?i)^\s*@(?:\w+\.)?(?:router|app)?\.?(get|post|put|delete|patch)\(\s*['"]([^'"]*)['"]`)

// barePattern matches a bare METHOD token on a word boundary.
var barePattern = regexp.MustCompile(`(?i)\b(get|post|put|delete|patch)\b`)

var methodToIntent = map[string]string{
	"post":   "create",
	"put":    "update",
	"patch":  "update",
	"delete": "delete",
	"get":    "read",
}

// HTTPIntentMap mirrors methodToIntent but is exported for the hybrid
// scorer's intent_score candidate set (§4.10).
var HTTPIntentMap = methodToIntent

// ExtractRouteSignal searches text, in order, for a JS-style method call, a
// decorator route on the preceding line, then a bare method token. Returns
// nil if no method is found.
func ExtractRouteSignal(text string, symbolName string) *Signal {
	method, path, found := findMethodCall(text)
	if !found {
		method, path, found = findDecoratorRoute(text)
	}
	if !found {
		if m := barePattern.FindStringSubmatch(text); m != nil {
			method, path, found = strings.ToLower(m[1]), "", true
		}
	}
	if !found {
		return nil
	}

	sig := &Signal{
		Method: strings.ToUpper(method),
		Path:   path,
		Intent: methodToIntent[method],
	}
	sig.Resource = resolveResource(path, symbolName)

	var terms []string
	terms = append(terms, method, sig.Intent, sig.Resource)
	for _, seg := range pathSegments(path) {
		terms = append(terms, normalize.NormalizeTerms(seg)...)
	}
	terms = append(terms, normalize.NormalizeTerms(symbolName)...)
	sig.StructuralTerms = normalize.Set(terms)

	return sig
}

func findMethodCall(text string) (method, path string, ok bool) {
	m := methodCallPattern.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return strings.ToLower(m[1]), m[2], true
}

func findDecoratorRoute(text string) (method, path string, ok bool) {
	for _, line := range strings.Split(text, "\n") {
		if m := decoratorPattern.FindStringSubmatch(line); m != nil {
			return strings.ToLower(m[1]), m[2], true
		}
	}
	return "", "", false
}

func pathSegments(path string) []string {
	var segs []string
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		if strings.HasPrefix(seg, ":") || (strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}")) {
			continue
		}
		segs = append(segs, seg)
	}
	return segs
}

// resolveResource derives the singularized first non-parametric path
// segment, falling back to the first non-verb token of symbolName.
func resolveResource(path, symbolName string) string {
	segs := pathSegments(path)
	if len(segs) > 0 {
		return singularize(segs[0])
	}
	for _, tok := range normalize.NormalizeTerms(symbolName) {
		if _, isVerb := httpMethods[tok]; isVerb {
			continue
		}
		if _, isVerb := methodToIntent[tok]; isVerb {
			continue
		}
		return singularize(tok)
	}
	return ""
}

// singularize applies the spec's small singularization rule: "ies" (len>4)
// -> "y"; trailing "s" (len>3, not "ss") is stripped; else unchanged.
func singularize(word string) string {
	lower := strings.ToLower(word)
	if strings.HasSuffix(lower, "ies") && len(lower) > 4 {
		return lower[:len(lower)-3] + "y"
	}
	if strings.HasSuffix(lower, "s") && !strings.HasSuffix(lower, "ss") && len(lower) > 3 {
		return lower[:len(lower)-1]
	}
	return lower
}
