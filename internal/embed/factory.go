package embed

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// ProviderType names an embedding backend.
type ProviderType string

const (
	ProviderOllama ProviderType = "ollama"
	ProviderStatic ProviderType = "static"
)

// NewBackend constructs the Embedder backend named by the AINAV_EMBEDDER
// environment variable (default "ollama"), falling back to the static
// hash-based embedder if the requested backend is unavailable and no
// provider was explicitly requested.
func NewBackend(ctx context.Context, model string) (Embedder, error) {
	explicit := os.Getenv("AINAV_EMBEDDER")
	provider := ProviderType(strings.ToLower(explicit))
	if provider == "" {
		provider = ProviderOllama
	}

	switch provider {
	case ProviderStatic:
		return NewStaticEmbedder(), nil
	case ProviderOllama:
		cfg := DefaultOllamaConfig()
		if model != "" {
			cfg.Model = model
		}
		backend, err := NewOllamaEmbedder(ctx, cfg)
		if err != nil {
			if explicit != "" {
				return nil, fmt.Errorf("embed: requested backend %q unavailable: %w", provider, err)
			}
			return NewStaticEmbedder(), nil
		}
		return backend, nil
	default:
		return nil, fmt.Errorf("embed: unknown backend %q", provider)
	}
}
