package llm

import (
	"os"
	"strings"
)

// NewClient constructs the Client named by the AINAV_LLM environment
// variable ("ollama" or "none"; default "ollama"). An unreachable Ollama
// backend still returns a usable client whose Available() reports false,
// so callers degrade gracefully rather than failing to start.
func NewClient(model string) Client {
	provider := strings.ToLower(os.Getenv("AINAV_LLM"))
	if provider == "none" {
		return NullClient{}
	}

	cfg := DefaultOllamaConfig()
	if model != "" {
		cfg.Model = model
	}
	if host := os.Getenv("AINAV_LLM_HOST"); host != "" {
		cfg.Host = host
	}
	return NewOllamaClient(cfg)
}
