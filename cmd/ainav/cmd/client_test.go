package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aerrors "github.com/ainav/ainav/internal/errors"
)

func TestAPIClientPostDecodesSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL)
	var out map[string]bool
	require.NoError(t, client.post(context.Background(), "/x", map[string]string{}, &out))
	assert.True(t, out["ok"])
}

func TestAPIClientPostSurfacesErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(aerrors.Envelope{
			Status: "error",
			Error:  aerrors.EnvelopeError{Code: aerrors.CodeInvalidRepo, Message: "bad repo"},
		})
	}))
	defer srv.Close()

	client := newAPIClient(srv.URL)
	err := client.post(context.Background(), "/x", map[string]string{}, nil)
	require.Error(t, err)
	assert.Equal(t, aerrors.CodeInvalidRepo, aerrors.Code(err))
}

func TestAPIClientUnreachableServerReturnsServerUnreachable(t *testing.T) {
	client := newAPIClient("http://127.0.0.1:1")
	err := client.get(context.Background(), "/status", nil)
	require.Error(t, err)
	assert.Equal(t, aerrors.CodeServerUnreachable, aerrors.Code(err))
}
