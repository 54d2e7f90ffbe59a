package roblox

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

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, presencePath, r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"userIds":[1,2,3]}`, string(body))
		_, _ = w.Write([]byte(`{"userPresences":[
			{"userId":1,"userPresenceType":2,"lastLocation":"Adopt Me!"},
			{"userId":2,"userPresenceType":1},
			{"userId":3,"userPresenceType":3}
		]}`))
	}))
	defer srv.Close()

	result, err := New(srv.Client()).WithBaseURL(srv.URL).Fetch(context.Background(), []string{"1", "2", "nope", "3"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"1": {"Roblox"},
		"2": {},
		"3": {},
	}, result)
}

func TestFetchWithoutValidIDs(t *testing.T) {
	result, err := New(http.DefaultClient).WithBaseURL("http://127.0.0.1:0").Fetch(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.Client()).WithBaseURL(srv.URL).Fetch(context.Background(), []string{"1"})
	var statusErr *util.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
}
