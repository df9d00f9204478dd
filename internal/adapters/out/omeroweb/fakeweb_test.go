package omeroweb

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func withFastRetry(t *testing.T) {
	t.Helper()
	prevAttempts := retryMaxAttempts
	prevDelay := retryBaseDelay
	retryMaxAttempts = 3
	retryBaseDelay = 10 * time.Millisecond
	t.Cleanup(func() {
		retryMaxAttempts = prevAttempts
		retryBaseDelay = prevDelay
	})
}

func withPageSize(t *testing.T, n int) {
	t.Helper()
	prev := pageSize
	pageSize = n
	t.Cleanup(func() { pageSize = prev })
}

type recorded struct {
	header http.Header
	query  url.Values
	body   []byte
}

func (r recorded) form() url.Values {
	v, _ := url.ParseQuery(string(r.body))
	return v
}

// fakeWeb is a minimal OMERO.web that records every request.
type fakeWeb struct {
	*httptest.Server
	mux *http.ServeMux

	mu       sync.Mutex
	token    string
	versions []map[string]any
	requests map[string][]recorded
}

func newFakeWeb(t *testing.T) *fakeWeb {
	t.Helper()
	f := &fakeWeb{
		mux:      http.NewServeMux(),
		token:    "csrf-token",
		requests: make(map[string][]recorded),
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)

	f.mux.HandleFunc("GET /api/{$}", func(w http.ResponseWriter, _ *http.Request) {
		versions := f.versions
		if versions == nil {
			versions = []map[string]any{{"version": "0", "url:base": f.URL + "/api/v0/"}}
		}
		writeJSON(w, map[string]any{"data": versions})
	})
	f.mux.HandleFunc("GET /api/v0/token/", func(w http.ResponseWriter, _ *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "csrftoken", Value: f.token, Path: "/"})
		writeJSON(w, map[string]any{"data": f.token})
	})
	return f
}

func (f *fakeWeb) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	f.mu.Lock()
	key := r.Method + " " + r.URL.Path
	f.requests[key] = append(f.requests[key], recorded{header: r.Header.Clone(), query: r.URL.Query(), body: body})
	f.mu.Unlock()

	f.mux.ServeHTTP(w, r)
}

func (f *fakeWeb) calls(key string) []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[key]
}

func (f *fakeWeb) handle(pattern string, body string) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func connectedClient(t *testing.T, f *fakeWeb, opts ...ClientOption) *Client {
	t.Helper()
	c := NewClient(f.URL, opts...)
	require.NoError(t, c.Connect(t.Context()))
	return c
}
