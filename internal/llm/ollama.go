package llm

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

const (
	DefaultHost    = "http://localhost:11434"
	DefaultModel   = "qwen3:0.6b"
	DefaultTimeout = 30 * time.Second
)

// OllamaConfig configures the Ollama-backed LLM client.
type OllamaConfig struct {
	Host    string
	Model   string
	Timeout time.Duration
}

func DefaultOllamaConfig() OllamaConfig {
	return OllamaConfig{Host: DefaultHost, Model: DefaultModel, Timeout: DefaultTimeout}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// OllamaClient generates text via Ollama's /api/generate endpoint.
type OllamaClient struct {
	client *http.Client
	config OllamaConfig
}

var _ Client = (*OllamaClient)(nil)

func NewOllamaClient(cfg OllamaConfig) *OllamaClient {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &OllamaClient{client: &http.Client{}, config: cfg}
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.config.Model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("llm: marshal request: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.config.Host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", aerrors.ServerUnreachable(fmt.Sprintf("llm %s unreachable", c.config.Host), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", aerrors.InvalidModelResponse(
			fmt.Sprintf("llm returned status %d", resp.StatusCode), fmt.Errorf("%s", string(data)))
	}

	var parsed generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", aerrors.InvalidModelResponse("llm response was not valid json", err)
	}
	return parsed.Response, nil
}

func (c *OllamaClient) Available(ctx context.Context) bool {
	reqCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.config.Host+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (c *OllamaClient) ModelName() string { return c.config.Model }
func (c *OllamaClient) Close() error      { return nil }
