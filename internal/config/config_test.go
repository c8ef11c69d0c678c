package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
}

func TestLoadUsesDefaultsWhenUnset(t *testing.T) {
	cfg := Load()
	assert.Equal(t, DefaultHost, cfg.Host)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultEmbeddingModel, cfg.Embedding.Model)
	assert.Equal(t, 0.85, cfg.LLM.ConfidenceThreshold)
	assert.Equal(t, DefaultLLMTimeout, cfg.LLM.Timeout)
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	withEnv(t, "AINAV_HOST", "127.0.0.1")
	withEnv(t, "AINAV_PORT", "9100")
	withEnv(t, "AINAV_EMBEDDING_MODEL", "bge-small")

	cfg := Load()
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "bge-small", cfg.Embedding.Model)
}

func TestLoadFallsBackSilentlyOnUnparsableNumber(t *testing.T) {
	withEnv(t, "AINAV_PORT", "not-a-number")
	cfg := Load()
	assert.Equal(t, DefaultPort, cfg.Port)
}

func TestLoadClampsConfidenceThresholdToUnitRange(t *testing.T) {
	withEnv(t, "AINAV_LLM_CONFIDENCE_THRESHOLD", "1.5")
	cfg := Load()
	assert.Equal(t, 1.0, cfg.LLM.ConfidenceThreshold)

	withEnv(t, "AINAV_LLM_CONFIDENCE_THRESHOLD", "-0.5")
	cfg = Load()
	assert.Equal(t, 0.0, cfg.LLM.ConfidenceThreshold)
}

func TestLoadClampsTimeoutToMinimum(t *testing.T) {
	withEnv(t, "AINAV_LLM_TIMEOUT", "1ms")
	cfg := Load()
	assert.Equal(t, MinTimeout, cfg.LLM.Timeout)
}

func TestLoadClampsCacheSizeToMinimum(t *testing.T) {
	withEnv(t, "AINAV_LLM_CACHE_SIZE", "0")
	cfg := Load()
	assert.Equal(t, MinCacheSize, cfg.LLM.CacheSize)
}

func TestLoadClampsSummaryMaxCharsToMinimum(t *testing.T) {
	withEnv(t, "AINAV_SUMMARIZER_MAX_CHARS", "10")
	cfg := Load()
	assert.Equal(t, MinSummaryChars, cfg.Summarize.MaxChars)
}

func TestDataRootDefaultsToDotXtrc(t *testing.T) {
	assert.Equal(t, "/repo/.xtrc", DataRoot("/repo"))
}

func TestDataRootHonorsOverrideEnv(t *testing.T) {
	withEnv(t, "AINAV_DATA_ROOT", "/custom/data")
	assert.Equal(t, "/custom/data", DataRoot("/repo"))
}

func TestLoadParsesBooleanFlags(t *testing.T) {
	withEnv(t, "AINAV_RERANKER_ENABLED", "true")
	cfg := Load()
	assert.True(t, cfg.Rerank.Enabled)
}

func TestLoadDurationParsing(t *testing.T) {
	withEnv(t, "AINAV_LLM_TIMEOUT", "45s")
	cfg := Load()
	assert.Equal(t, 45*time.Second, cfg.LLM.Timeout)
}

func TestFindProjectRootLocatesGitDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	found, err := FindProjectRoot(sub)
	require.NoError(t, err)
	assert.Equal(t, root, found)
}

func TestFindProjectRootFallsBackToStartDir(t *testing.T) {
	dir := t.TempDir()
	found, err := FindProjectRoot(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, found)
}
