package llm

import "context"

// NullClient is a no-op Client used when no LLM backend is configured.
// Every optional stage that depends on an LLM (query rewrite, LLM
// reranking, chunk summarization) must treat NullClient as "unavailable"
// and fall back to its non-LLM behavior.
type NullClient struct{}

var _ Client = NullClient{}

func (NullClient) Generate(_ context.Context, _ string) (string, error) { return "", nil }
func (NullClient) Available(_ context.Context) bool                    { return false }
func (NullClient) ModelName() string                                   { return "none" }
func (NullClient) Close() error                                        { return nil }
