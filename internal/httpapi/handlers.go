package httpapi

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"os"
	"time"

	aerrors "github.com/ainav/ainav/internal/errors"
	"github.com/ainav/ainav/internal/index"
	"github.com/ainav/ainav/internal/metastore"
	"github.com/ainav/ainav/internal/search"
	"github.com/ainav/ainav/internal/vectorstore"
)

// Dispatcher is the subset of internal/daemon.Daemon the HTTP handlers
// need: a serialized indexing call, a query call, and a status lookup.
type Dispatcher interface {
	Index(ctx context.Context, repoPath string, rebuild bool) (*index.Result, error)
	Query(ctx context.Context, repoPath, queryText string, topK int) (*search.Result, error)
	Status(ctx context.Context, repoPath string) (*metastore.Status, error)
}

// Server implements http.Handler for the three RPC endpoints (spec §6).
type Server struct {
	mux        *http.ServeMux
	dispatcher Dispatcher
	modelName  string
}

// NewServer builds a Server dispatching to d. modelName is reported
// verbatim in GET /status responses.
func NewServer(d Dispatcher, modelName string) *Server {
	s := &Server{mux: http.NewServeMux(), dispatcher: d, modelName: modelName}
	s.mux.HandleFunc("POST /index", s.handleIndex)
	s.mux.HandleFunc("POST /query", s.handleQuery)
	s.mux.HandleFunc("GET /status", s.handleStatus)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var req IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, aerrors.InvalidRepo("malformed request body", err))
		return
	}
	if err := validateRepoPath(req.RepoPath); err != nil {
		writeError(w, err)
		return
	}

	result, err := s.dispatcher.Index(r.Context(), req.RepoPath, req.Rebuild)
	if err != nil {
		writeError(w, classifyIndexError(err))
		return
	}

	writeJSON(w, http.StatusOK, IndexResponse{
		RepoPath:      req.RepoPath,
		FilesScanned:  result.FilesScanned,
		FilesIndexed:  result.FilesIndexed,
		FilesDeleted:  result.FilesDeleted,
		ChunksIndexed: result.ChunksIndexed,
		DurationMS:    result.Duration.Milliseconds(),
	})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, aerrors.InvalidRepo("malformed request body", err))
		return
	}
	if err := validateRepoPath(req.RepoPath); err != nil {
		writeError(w, err)
		return
	}
	if req.Query == "" {
		writeError(w, aerrors.New(aerrors.CodeInvalidRepo, "query is required", nil))
		return
	}

	topK := req.TopK
	if topK == 0 {
		topK = DefaultTopK
	}
	if topK < MinTopK {
		topK = MinTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}

	result, err := s.dispatcher.Query(r.Context(), req.RepoPath, req.Query, topK)
	if err != nil {
		writeError(w, classifyIndexError(err))
		return
	}

	resp := QueryResponse{
		RepoPath:   req.RepoPath,
		Query:      req.Query,
		Results:    make([]QueryResult, len(result.Matches)),
		DurationMS: result.Duration.Milliseconds(),
		UsedLLM:    result.Telemetry.LLMUsed,
		LLMModel:   result.Telemetry.LLMModel,
	}
	if result.Telemetry.LLMUsed {
		resp.LLMLatencyMS = result.Telemetry.LLMLatency.Milliseconds()
	}
	if result.Telemetry.RewriteUsed {
		resp.RewrittenQuery = result.Telemetry.RewrittenQuery
	}
	if result.Selection.FilePath != "" {
		resp.Selection = result.Selection.FilePath
		resp.SelectionSrc = result.Selection.Source
	}

	for i, m := range result.Matches {
		resp.Results[i] = QueryResult{
			FilePath:        m.FilePath,
			StartLine:       m.StartLine,
			EndLine:         m.EndLine,
			Symbol:          m.Symbol,
			Description:     m.Description,
			Score:           round6(m.Adjusted),
			VectorScore:     round6(m.VectorScore),
			KeywordScore:    round6(m.KeywordScore),
			SymbolScore:     round6(m.SymbolScore),
			IntentScore:     round6(m.IntentScore),
			StructuralScore: round6(m.StructuralScore),
			MatchedIntents:  m.MatchedIntents,
			MatchedKeywords: m.MatchedKeywords,
			Explanation:     m.Explanation,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	repoPath := r.URL.Query().Get("repo_path")
	if err := validateRepoPath(repoPath); err != nil {
		writeError(w, err)
		return
	}

	status, err := s.dispatcher.Status(r.Context(), repoPath)
	if err != nil {
		writeError(w, classifyIndexError(err))
		return
	}

	resp := StatusResponse{
		RepoPath:      repoPath,
		IndexedFiles:  status.IndexedFiles,
		IndexedChunks: status.IndexedChunks,
		Model:         s.modelName,
		Healthy:       true,
	}
	if status.LastIndexedAt != nil {
		resp.LastIndexedAt = status.LastIndexedAt.UTC().Format(time.RFC3339)
	}

	writeJSON(w, http.StatusOK, resp)
}

func validateRepoPath(repoPath string) *aerrors.Error {
	if repoPath == "" {
		return aerrors.InvalidRepo("repo_path is required", nil)
	}
	info, err := os.Stat(repoPath)
	if err != nil {
		return aerrors.InvalidRepo("repo_path does not exist: "+repoPath, err)
	}
	if !info.IsDir() {
		return aerrors.InvalidRepo("repo_path is not a directory: "+repoPath, nil)
	}
	return nil
}

// classifyIndexError maps collaborator errors that arrive as plain
// errors (not already *errors.Error) onto the canonical taxonomy
// (spec §7), so a dimension mismatch from the vector store surfaces
// as INDEX_DIMENSION_MISMATCH rather than a bare 500.
func classifyIndexError(err error) error {
	if _, ok := err.(*aerrors.Error); ok {
		return err
	}
	var mismatch *vectorstore.DimensionMismatchError
	if asDimensionMismatch(err, &mismatch) {
		return aerrors.DimensionMismatch(mismatch.Error(), err)
	}
	return aerrors.Internal(err.Error(), err)
}

func asDimensionMismatch(err error, target **vectorstore.DimensionMismatchError) bool {
	for err != nil {
		if m, ok := err.(*vectorstore.DimensionMismatchError); ok {
			*target = m
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	envelope, status := aerrors.ToEnvelope(err)
	writeJSON(w, status, envelope)
}
