package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	aerrors "github.com/ainav/ainav/internal/errors"
)

const clientTimeout = 2 * time.Minute

// apiClient is a thin HTTP client over the ainav serve RPC surface
// (spec §6). CLI subcommands never talk to the indexer/search engine
// directly, so every invocation benefits from the daemon's per-repo
// indexing lock and bounded model worker pools.
type apiClient struct {
	baseURL string
	http    *http.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{baseURL: baseURL, http: &http.Client{Timeout: clientTimeout}}
}

func (c *apiClient) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return aerrors.Internal("encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return aerrors.Internal("build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *apiClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return aerrors.Internal("build request", err)
	}
	return c.do(req, out)
}

func (c *apiClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return aerrors.ServerUnreachable(fmt.Sprintf("ainav serve unreachable at %s (run \"ainav serve\"?)", c.baseURL), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return aerrors.InvalidModelResponse("read response body", err)
	}

	if resp.StatusCode >= 400 {
		var env aerrors.Envelope
		if jsonErr := json.Unmarshal(body, &env); jsonErr != nil || env.Error.Code == "" {
			return aerrors.New(aerrors.CodeServerError, fmt.Sprintf("server returned %d: %s", resp.StatusCode, string(body)), nil)
		}
		return aerrors.New(env.Error.Code, env.Error.Message, nil)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return aerrors.InvalidModelResponse("decode response body", err)
	}
	return nil
}
