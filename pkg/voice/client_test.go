package voice

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-status-bot/pkg/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/channels/123/voice-status", r.URL.Path)
		assert.Equal(t, "Bot token", r.Header.Get("Authorization"))
		assert.Equal(t, "props", r.Header.Get("x-super-properties"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"🎮 Minecraft"}`, string(body))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New("token", "props").WithBaseURL(srv.URL)
	require.NoError(t, c.SetStatus(context.Background(), 123, "🎮 Minecraft"))
}

func TestSetStatusRequiresNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"Missing Permissions","code":50013}`))
	}))
	defer srv.Close()

	err := New("token", "").WithBaseURL(srv.URL).SetStatus(context.Background(), 1, "")
	var statusErr *util.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "Missing Permissions")
}
