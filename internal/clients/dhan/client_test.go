package dhan

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBroker serves canned responses keyed by URL path and records every hit.
type fakeBroker struct {
	mu       sync.Mutex
	routes   map[string]http.HandlerFunc
	calls    []string
	requests []*http.Request
}

func newFakeBroker(t *testing.T) (*fakeBroker, *httptest.Server) {
	t.Helper()
	fb := &fakeBroker{routes: make(map[string]http.HandlerFunc)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.calls = append(fb.calls, r.URL.Path)
		fb.requests = append(fb.requests, r.Clone(context.Background()))
		h, ok := fb.routes[r.URL.Path]
		fb.mu.Unlock()
		if !ok {
			http.Error(w, `{"errorMessage":"not found"}`, http.StatusNotFound)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBroker) json(path, body string) {
	fb.routes[path] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func (fb *fakeBroker) status(path string, code int) {
	fb.routes[path] = func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", code)
	}
}

func (fb *fakeBroker) called() []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.calls...)
}

func (fb *fakeBroker) request(path string) *http.Request {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, r := range fb.requests {
		if r.URL.Path == path {
			return r
		}
	}
	return nil
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient("test-token", WithBaseURL(srv.URL+"/"), WithRateLimit(1000))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("  tok  ")
	assert.True(t, c.Configured())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c = NewClient("", WithTimeout(0))
	assert.False(t, c.Configured())
	assert.Zero(t, c.httpClient.Timeout)
}

func TestGet_SetsAuthHeaders(t *testing.T) {
	fb, srv := newFakeBroker(t)
	fb.json("/v2/portfolio", `[]`)
	fb.json("/holdings", `[]`)

	c := newTestClient(srv)
	_, err := c.get(context.Background(), kindHoldings, endpoint{path: "/v2/portfolio", auth: authAccessToken})
	require.NoError(t, err)
	_, err = c.get(context.Background(), kindHoldings, endpoint{path: "/holdings", auth: authBearer})
	require.NoError(t, err)

	r := fb.request("/v2/portfolio")
	require.NotNil(t, r)
	assert.Equal(t, "test-token", r.Header.Get("Access-Token"))
	assert.Empty(t, r.Header.Get("Authorization"))
	assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

	r = fb.request("/holdings")
	require.NotNil(t, r)
	assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
	assert.Empty(t, r.Header.Get("Access-Token"))
}

func TestGet_ErrorKinds(t *testing.T) {
	fb, srv := newFakeBroker(t)
	fb.status("/bad", http.StatusUnauthorized)
	fb.json("/garbage", `<html>not json</html>`)

	c := newTestClient(srv)

	_, err := c.get(context.Background(), kindCash, endpoint{path: "/bad"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "/bad", apiErr.Endpoint)

	_, err = c.get(context.Background(), kindCash, endpoint{path: "/garbage"})
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "/garbage", parseErr.Endpoint)
}

func TestFirstSuccess_StopsAtFirstAccepted(t *testing.T) {
	fb, srv := newFakeBroker(t)
	fb.status("/a", http.StatusInternalServerError)
	fb.json("/b", `{"ok": false}`)
	fb.json("/c", `{"ok": true}`)
	fb.json("/d", `{"ok": true}`)

	c := newTestClient(srv)
	eps := []endpoint{{path: "/a"}, {path: "/b"}, {path: "/c"}, {path: "/d"}}
	v, answered, err := firstSuccess(context.Background(), c, "test", eps, func(p any) (bool, bool) {
		ok, _ := p.(map[string]any)["ok"].(bool)
		return ok, ok
	})

	require.NoError(t, err)
	assert.True(t, v)
	assert.True(t, answered)
	assert.Equal(t, []string{"/a", "/b", "/c"}, fb.called())
}

func TestFirstSuccess_CancelledContext(t *testing.T) {
	fb, srv := newFakeBroker(t)
	fb.json("/a", `{}`)

	c := newTestClient(srv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, answered, err := firstSuccess(ctx, c, "test", []endpoint{{path: "/a"}}, func(p any) (int, bool) { return 1, true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, answered)
	assert.Empty(t, fb.called())
}
