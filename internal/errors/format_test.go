package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToEnvelopeCarriesCodeAndStatus(t *testing.T) {
	env, status := ToEnvelope(InvalidRepo("not a directory", nil))
	assert.Equal(t, "error", env.Status)
	assert.Equal(t, CodeInvalidRepo, env.Error.Code)
	assert.Equal(t, 400, status)
}

func TestToEnvelopeWrapsStandardError(t *testing.T) {
	env, status := ToEnvelope(errors.New("boom"))
	assert.Equal(t, CodeInternalError, env.Error.Code)
	assert.Equal(t, 500, status)
}

func TestToEnvelopeIncludesDetails(t *testing.T) {
	err := InvalidRepo("bad repo", nil).WithDetail("repo_path", "/tmp/x")
	env, _ := ToEnvelope(err)
	assert.Equal(t, "/tmp/x", env.Error.Details["repo_path"])
}

func TestFormatForCLIRendersCodeBracket(t *testing.T) {
	assert.Equal(t, "error[INVALID_REPO] bad path", FormatForCLI(InvalidRepo("bad path", nil)))
}

func TestFormatForCLINilReturnsEmpty(t *testing.T) {
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatForLogIncludesRetryableAndCause(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := ServerUnreachable("llm unreachable", cause)
	attrs := FormatForLog(err)
	assert.Equal(t, CodeServerUnreachable, attrs["error_code"])
	assert.Equal(t, true, attrs["retryable"])
	assert.Equal(t, cause.Error(), attrs["cause"])
}
