package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewUsesPlainStylesForNonTerminal(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Success("indexed 3 files")
	assert.Equal(t, "✓ indexed 3 files\n", buf.String())
}

func TestWarningAndErrorPrefixes(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)

	w.Warning("no results")
	w.Error("connection refused")

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "! no results\n"))
	assert.Contains(t, out, "✗ connection refused")
}

func TestScoreFormatsFourDecimals(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	assert.Equal(t, "0.8234", w.Score(0.82341234))
}

func TestSupportsColorRespectsNoColorEnv(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	var buf bytes.Buffer
	assert.False(t, supportsColor(&buf))
}

func TestSupportsColorFalseForNonFileWriter(t *testing.T) {
	var buf bytes.Buffer
	assert.False(t, supportsColor(&buf))
}
