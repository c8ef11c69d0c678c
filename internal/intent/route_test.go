package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRouteSignalMethodCall(t *testing.T) {
	sig := ExtractRouteSignal("router.post('/posts', createPostHandler)", "POST /posts")
	require.NotNil(t, sig)
	assert.Equal(t, "POST", sig.Method)
	assert.Equal(t, "/posts", sig.Path)
	assert.Equal(t, "create", sig.Intent)
	assert.Equal(t, "post", sig.Resource)
}

func TestExtractRouteSignalParametricSegment(t *testing.T) {
	sig := ExtractRouteSignal("app.get('/posts/:id', getPost)", "")
	require.NotNil(t, sig)
	assert.Equal(t, "post", sig.Resource)
}

func TestExtractRouteSignalBraceSegment(t *testing.T) {
	sig := ExtractRouteSignal("app.delete('/{id}/comments', removeComment)", "")
	require.NotNil(t, sig)
	assert.Equal(t, "comment", sig.Resource)
}

func TestExtractRouteSignalDecorator(t *testing.T) {
	sig := ExtractRouteSignal("@app.put('/users')\ndef update_user():", "update_user")
	require.NotNil(t, sig)
	assert.Equal(t, "PUT", sig.Method)
	assert.Equal(t, "update", sig.Intent)
}

func TestExtractRouteSignalBareToken(t *testing.T) {
	sig := ExtractRouteSignal("handles GET requests for health", "")
	require.NotNil(t, sig)
	assert.Equal(t, "GET", sig.Method)
	assert.Equal(t, "read", sig.Intent)
}

func TestExtractRouteSignalNone(t *testing.T) {
	assert.Nil(t, ExtractRouteSignal("just some plain code", "helper"))
}

func TestSingularize(t *testing.T) {
	assert.Equal(t, "category", singularize("categories"))
	assert.Equal(t, "post", singularize("posts"))
	assert.Equal(t, "class", singularize("class"))
	assert.Equal(t, "ss", singularize("ss"))
}
