package embed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyQueryPrefixBGE(t *testing.T) {
	got := applyQueryPrefix("bge-small-en", "find the login handler")
	assert.Contains(t, got, "Represent this sentence for searching relevant passages:")
	assert.Contains(t, got, "find the login handler")
}

func TestApplyPrefixesE5(t *testing.T) {
	assert.Equal(t, "query: hello", applyQueryPrefix("intfloat/e5-base", "hello"))
	assert.Equal(t, "passage: hello", applyDocPrefix("intfloat/e5-base", "hello"))
}

func TestApplyPrefixUnknownFamilyPassesThrough(t *testing.T) {
	assert.Equal(t, "hello", applyQueryPrefix("nomic-embed-text", "hello"))
	assert.Equal(t, "hello", applyDocPrefix("nomic-embed-text", "hello"))
}
