// Package rerank implements the two optional post-ranking stages (spec
// §4.12, §4.13): a local cross-encoder pass over the top window of a
// ranked list, and an LLM-driven selection among low-confidence
// candidates.
package rerank

// Candidate is one scored match as seen by the rerank stages: enough of
// the chunk's metadata to build a cross-encoder/LLM prompt, plus the
// score this stage may revise.
type Candidate struct {
	ChunkID     string
	FilePath    string
	Symbol      string
	SymbolKind  string
	IntentTags  []string
	Summary     string
	Description string
	RouteMethod string
	RoutePath   string
	StartLine   int
	EndLine     int
	Text        string
	Tokens      int

	VectorScore     float64
	KeywordScore    float64
	SymbolScore     float64
	IntentScore     float64
	StructuralScore float64

	Score float64 // current best-known relevance score, used for sorting
}

const maxSnippetChars = 1800

func (c Candidate) snippet() string {
	if len(c.Text) <= maxSnippetChars {
		return c.Text
	}
	return c.Text[:maxSnippetChars]
}

// httpLine renders the HTTP method/path line included in candidate text
// when the chunk is a route handler; empty if the chunk has no route.
func (c Candidate) httpLine() string {
	if c.RouteMethod == "" {
		return ""
	}
	return c.RouteMethod + " " + c.RoutePath
}
