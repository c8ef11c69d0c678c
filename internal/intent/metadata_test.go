package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIntentMetadataRouteScenario(t *testing.T) {
	tags := ExtractIntentMetadata(
		"routes/posts.js",
		"route",
		"POST /posts",
		"router.post('/posts', createPostHandler)",
	)
	assert.Contains(t, tags, "create_resource")
	assert.Contains(t, tags, "route_handler")
}

func TestExtractIntentMetadataNoiseTags(t *testing.T) {
	tags := ExtractIntentMetadata("db/seeds/users.py", "function", "seed_users", "insert sample rows")
	assert.Contains(t, tags, "seed_data")
}

func TestExtractIntentMetadataTestScript(t *testing.T) {
	tags := ExtractIntentMetadata("src/__tests__/handler.test.js", "function", "testHandler", "expect(1).toBe(1)")
	assert.Contains(t, tags, "test_script")
}

func TestExtractIntentMetadataLogging(t *testing.T) {
	tags := ExtractIntentMetadata("src/logger.js", "function", "log", "logger.info('hi')")
	assert.Contains(t, tags, "logging")
}
