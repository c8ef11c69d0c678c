package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInferQuerySignal(t *testing.T) {
	sig := InferQuerySignal("where is the POST route that creates a post?")
	assert.Contains(t, sig.Methods, "post")
	assert.Contains(t, sig.Intents, "create")
	assert.NotContains(t, sig.StructuralTerms, "where")
	assert.NotContains(t, sig.StructuralTerms, "route")
}

func TestInferQuerySignalAliases(t *testing.T) {
	sig := InferQuerySignal("find the handler to remove a user")
	assert.Contains(t, sig.Intents, "read")
	assert.Contains(t, sig.Intents, "delete")
}
