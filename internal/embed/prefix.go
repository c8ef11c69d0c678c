package embed

import "strings"

// family is a model family whose embeddings are sensitive to an input
// prefix (spec §4.6).
type family struct {
	match       func(modelName string) bool
	queryPrefix string
	docPrefix   string
}

var families = []family{
	{
		match:       func(m string) bool { return strings.Contains(strings.ToLower(m), "bge") },
		queryPrefix: "Represent this sentence for searching relevant passages: ",
	},
	{
		match:       func(m string) bool { return strings.Contains(strings.ToLower(m), "e5") },
		queryPrefix: "query: ",
		docPrefix:   "passage: ",
	},
}

// applyQueryPrefix prepends the query-side prefix for modelName's family,
// if it has one. Models outside a known family are passed through
// unmodified.
func applyQueryPrefix(modelName, text string) string {
	for _, f := range families {
		if f.match(modelName) && f.queryPrefix != "" {
			return f.queryPrefix + text
		}
	}
	return text
}

// applyDocPrefix prepends the document-side prefix for modelName's family.
func applyDocPrefix(modelName, text string) string {
	for _, f := range families {
		if f.match(modelName) && f.docPrefix != "" {
			return f.docPrefix + text
		}
	}
	return text
}
