// Package llm implements the LLM client collaborator used by the query
// rewriter, the LLM reranker (spec §4.13), and the chunk summarizer
// (spec §4.8).
package llm

import "context"

// Client generates free-form text completions from a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Available(ctx context.Context) bool
	ModelName() string
	Close() error
}
