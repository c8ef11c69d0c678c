// Package httpapi implements the three HTTP RPC endpoints (spec §6):
// POST /index, POST /query, and GET /status, all JSON over HTTP with a
// uniform error envelope on failure.
package httpapi

// IndexRequest is the POST /index request body.
type IndexRequest struct {
	RepoPath string `json:"repo_path"`
	Rebuild  bool   `json:"rebuild"`
}

// IndexResponse is the POST /index success body.
type IndexResponse struct {
	RepoPath      string `json:"repo_path"`
	FilesScanned  int    `json:"files_scanned"`
	FilesIndexed  int    `json:"files_indexed"`
	FilesDeleted  int    `json:"files_deleted"`
	ChunksIndexed int    `json:"chunks_indexed"`
	DurationMS    int64  `json:"duration_ms"`
}

// QueryRequest is the POST /query request body.
type QueryRequest struct {
	RepoPath string `json:"repo_path"`
	Query    string `json:"query"`
	TopK     int    `json:"top_k"`
}

// DefaultTopK and MaxTopK bound QueryRequest.TopK (spec §6).
const (
	DefaultTopK = 8
	MaxTopK     = 50
	MinTopK     = 1
)

// QueryResult is one ranked match in a QueryResponse (spec §6).
type QueryResult struct {
	FilePath        string   `json:"file_path"`
	StartLine       int      `json:"start_line"`
	EndLine         int      `json:"end_line"`
	Symbol          string   `json:"symbol,omitempty"`
	Description     string   `json:"description,omitempty"`
	Score           float64  `json:"score"`
	VectorScore     float64  `json:"vector_score"`
	KeywordScore    float64  `json:"keyword_score"`
	SymbolScore     float64  `json:"symbol_score"`
	IntentScore     float64  `json:"intent_score"`
	StructuralScore float64  `json:"structural_score"`
	MatchedIntents  []string `json:"matched_intents,omitempty"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
	Explanation     string   `json:"explanation,omitempty"`
}

// QueryResponse is the POST /query success body (spec §6).
type QueryResponse struct {
	RepoPath       string        `json:"repo_path"`
	Query          string        `json:"query"`
	Results        []QueryResult `json:"results"`
	DurationMS     int64         `json:"duration_ms"`
	Selection      string        `json:"selection,omitempty"`
	SelectionSrc   string        `json:"selection_source,omitempty"`
	UsedLLM        bool          `json:"used_llm"`
	LLMModel       string        `json:"llm_model,omitempty"`
	LLMLatencyMS   int64         `json:"llm_latency_ms,omitempty"`
	RewrittenQuery string        `json:"rewritten_query,omitempty"`
}

// StatusResponse is the GET /status success body (spec §6).
type StatusResponse struct {
	RepoPath      string `json:"repo_path"`
	IndexedFiles  int    `json:"indexed_files"`
	IndexedChunks int    `json:"indexed_chunks"`
	Model         string `json:"model"`
	Healthy       bool   `json:"healthy"`
	LastIndexedAt string `json:"last_indexed_at,omitempty"`
}
