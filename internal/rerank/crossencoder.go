package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"
)

// Cross-encoder defaults (spec §4.12).
const (
	DefaultCrossEncoderEndpoint = "http://localhost:9659"
	DefaultCrossEncoderModel    = "reranker-small"
	DefaultCrossEncoderTimeout  = 10 * time.Second
	DefaultMaxCandidates        = 10
	crossEncoderBlendWeight     = 0.7
	crossEncoderSigmoidWeight   = 0.3
)

// CrossEncoder predicts a relevance score per (query, candidate text)
// pair. Implementations may call out to an external model server.
type CrossEncoder interface {
	Predict(ctx context.Context, query string, texts []string) ([]float64, error)
	Available(ctx context.Context) bool
	Close() error
}

// CrossEncoderConfig configures the HTTP-backed cross-encoder client.
type CrossEncoderConfig struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
}

func DefaultCrossEncoderConfig() CrossEncoderConfig {
	return CrossEncoderConfig{
		Endpoint: DefaultCrossEncoderEndpoint,
		Model:    DefaultCrossEncoderModel,
		Timeout:  DefaultCrossEncoderTimeout,
	}
}

// HTTPCrossEncoder calls an external /rerank endpoint that accepts a
// query and a batch of documents and returns one score per document.
type HTTPCrossEncoder struct {
	client *http.Client
	cfg    CrossEncoderConfig
}

func NewHTTPCrossEncoder(cfg CrossEncoderConfig) *HTTPCrossEncoder {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultCrossEncoderEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultCrossEncoderModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultCrossEncoderTimeout
	}
	return &HTTPCrossEncoder{client: &http.Client{Timeout: cfg.Timeout}, cfg: cfg}
}

type crossEncoderRequest struct {
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	Model     string   `json:"model,omitempty"`
}

type crossEncoderResponse struct {
	Scores []float64 `json:"scores"`
}

func (e *HTTPCrossEncoder) Predict(ctx context.Context, query string, texts []string) ([]float64, error) {
	body, err := json.Marshal(crossEncoderRequest{Query: query, Documents: texts, Model: e.cfg.Model})
	if err != nil {
		return nil, fmt.Errorf("encode rerank request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.Endpoint+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank server returned %d: %s", resp.StatusCode, string(b))
	}

	var out crossEncoderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode rerank response: %w", err)
	}
	if len(out.Scores) != len(texts) {
		return nil, fmt.Errorf("rerank response length %d does not match request %d", len(out.Scores), len(texts))
	}
	return out.Scores, nil
}

func (e *HTTPCrossEncoder) Available(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.Endpoint+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (e *HTTPCrossEncoder) Close() error { return nil }

// CrossEncoderRerank implements §4.12: it scores the top maxCandidates
// of matches against query, blends the cross-encoder score with the
// existing hybrid score, re-sorts that window, and appends the
// untouched tail. On timeout or any predict failure it logs nothing
// itself (the caller decides) and returns matches unchanged.
func CrossEncoderRerank(ctx context.Context, enc CrossEncoder, query string, matches []Candidate, maxCandidates int) []Candidate {
	if maxCandidates <= 0 {
		maxCandidates = DefaultMaxCandidates
	}
	if len(matches) == 0 {
		return matches
	}
	window := matches
	tail := []Candidate(nil)
	if len(matches) > maxCandidates {
		window = matches[:maxCandidates]
		tail = matches[maxCandidates:]
	}

	texts := make([]string, len(window))
	for i, m := range window {
		texts[i] = candidateText(m)
	}

	scores, err := enc.Predict(ctx, query, texts)
	if err != nil {
		return matches
	}

	reranked := make([]Candidate, len(window))
	for i, m := range window {
		m.Score = crossEncoderBlendWeight*m.Score + crossEncoderSigmoidWeight*sigmoid(scores[i])
		reranked[i] = m
	}
	sort.SliceStable(reranked, func(i, j int) bool { return reranked[i].Score > reranked[j].Score })

	return append(reranked, tail...)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// candidateText builds the cross-encoder/LLM candidate text: file,
// symbol, type, intent, summary/description, and HTTP line if present.
func candidateText(c Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "File: %s\n", c.FilePath)
	fmt.Fprintf(&b, "Symbol: %s\n", c.Symbol)
	kind := c.SymbolKind
	if kind == "" {
		kind = "major_block"
	}
	fmt.Fprintf(&b, "Type: %s\n", kind)
	intentStr := "unknown"
	if len(c.IntentTags) > 0 {
		intentStr = strings.Join(c.IntentTags, ", ")
	}
	fmt.Fprintf(&b, "Intent: %s\n", intentStr)
	summary := c.Summary
	if summary == "" {
		summary = c.Description
	}
	fmt.Fprintf(&b, "Summary: %s\n", summary)
	if line := c.httpLine(); line != "" {
		fmt.Fprintf(&b, "HTTP: %s\n", line)
	}
	return b.String()
}
