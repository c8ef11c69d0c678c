package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	available bool
	calls     int
	response  string
	err       error
}

func (f *fakeClient) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}
func (f *fakeClient) Available(_ context.Context) bool { return f.available }
func (f *fakeClient) ModelName() string                { return "fake" }
func (f *fakeClient) Close() error                      { return nil }

func TestRewriteUnavailableClientPassesThrough(t *testing.T) {
	client := &fakeClient{available: false}
	r := NewRewriter(client)

	out, err := r.Rewrite(context.Background(), "find post creation logic")
	require.NoError(t, err)
	assert.Equal(t, "find post creation logic", out)
	assert.Zero(t, client.calls)
}

func TestRewriteCachesByQueryAndModel(t *testing.T) {
	client := &fakeClient{available: true, response: "create post route handler"}
	r := NewRewriter(client)
	ctx := context.Background()

	out1, err := r.Rewrite(ctx, "how do I make a post")
	require.NoError(t, err)
	assert.Equal(t, "create post route handler", out1)
	assert.Equal(t, 1, client.calls)

	out2, err := r.Rewrite(ctx, "how do I make a post")
	require.NoError(t, err)
	assert.Equal(t, out1, out2)
	assert.Equal(t, 1, client.calls, "second identical query must hit the cache, not the client")
}

func TestRewriteEmptyResponseFallsBackToOriginal(t *testing.T) {
	client := &fakeClient{available: true, response: "   "}
	r := NewRewriter(client)

	out, err := r.Rewrite(context.Background(), "original query")
	require.NoError(t, err)
	assert.Equal(t, "original query", out)
}
