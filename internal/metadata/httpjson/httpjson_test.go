package httpjson

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/shelfmark/internal/apperr"
)

func TestGet_DecodesBodyAndSendsParams(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dune", r.URL.Query().Get("q"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"name":"ok"}`))
	}))
	t.Cleanup(server.Close)

	c := New("test", WithMinInterval(0))
	var out struct {
		Name string `json:"name"`
	}
	err := c.Get(context.Background(), "search", server.URL+"/search", url.Values{"q": {"dune"}}, &out)
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Name)
}

func TestGet_StatusErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`quota`))
	}))
	t.Cleanup(server.Close)

	c := New("test", WithMinInterval(0))
	var out map[string]any
	err := c.Get(context.Background(), "search", server.URL, nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
	assert.Equal(t, "quota", se.Body)
}

func TestGet_MalformedJSONIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))
	t.Cleanup(server.Close)

	c := New("test", WithMinInterval(0))
	var out map[string]any
	err := c.Get(context.Background(), "details", server.URL, nil, &out)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestGet_TransportErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	c := New("test", WithMinInterval(0), WithHTTPClient(&http.Client{Timeout: time.Second}))
	var out map[string]any
	err := c.Get(context.Background(), "search", addr, nil, &out)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestGet_TransportErrorHidesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	c := New("tmdb", WithMinInterval(0), WithHTTPClient(&http.Client{Timeout: time.Second}))
	var out map[string]any
	params := url.Values{"api_key": {"SUPERSECRETKEY"}, "query": {"Dune"}}
	err := c.Get(context.Background(), "search", addr+"/search/movie", params, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
	assert.False(t, strings.Contains(err.Error(), "SUPERSECRETKEY"), "api key in error: %v", err)
	assert.False(t, strings.Contains(err.Error(), "/search/movie"), "url in error: %v", err)
	assert.Contains(t, err.Error(), "tmdb search")
}

func TestGet_CancelledContext(t *testing.T) {
	c := New("test")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out map[string]any
	err := c.Get(ctx, "search", "http://127.0.0.1:1", nil, &out)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
