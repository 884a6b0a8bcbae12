package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/adminpulse/internal/credstore"
)

// testBackend is a fake backend that counts dispatches and renewal calls.
type testBackend struct {
	server       *httptest.Server
	dispatches   atomic.Int64
	refreshCalls atomic.Int64

	// handle serves everything except /auth/refresh.
	handle http.HandlerFunc
	// refresh serves /auth/refresh. Defaults to issuing "A2".
	refresh http.HandlerFunc
}

func newTestBackend(t *testing.T, handle http.HandlerFunc) *testBackend {
	t.Helper()

	b := &testBackend{handle: handle}
	b.refresh = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "A2"})
	}
	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			b.refreshCalls.Add(1)
			b.refresh(w, r)
			return
		}
		b.dispatches.Add(1)
		b.handle(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func newTestGateway(b *testBackend, store credstore.Store) *Gateway {
	renewer := NewRenewer(b.server.URL, b.server.Client(), store, nil)
	return NewGateway(b.server.URL, b.server.Client(), store, renewer, nil)
}

func seededStore(t *testing.T, access, refresh string) credstore.Store {
	t.Helper()

	store := credstore.NewMemoryStore()
	require.NoError(t, store.SetAccess(context.Background(), access))
	require.NoError(t, store.SetRefresh(context.Background(), refresh))
	return store
}

func TestGateway_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	gw := newTestGateway(backend, seededStore(t, "A1", "R1"))

	resp, err := gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users"})

	require.NoError(t, err)
	assert.True(t, resp.OK())
	assert.Equal(t, "Bearer A1", gotAuth)
	assert.Equal(t, int64(1), backend.dispatches.Load())
}

func TestGateway_OmitsAuthorizationWithoutToken(t *testing.T) {
	var gotAuth string
	var hasAuth bool
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth, hasAuth = r.Header.Get("Authorization"), r.Header.Get("Authorization") != ""
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	gw := newTestGateway(backend, credstore.NewMemoryStore())

	_, err := gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/stats"})

	require.NoError(t, err)
	assert.False(t, hasAuth, "expected no Authorization header, got %q", gotAuth)
}

func TestGateway_EncodesQueryAndBody(t *testing.T) {
	var gotQuery url.Values
	var gotBody map[string]string
	var gotContentType string
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	gw := newTestGateway(backend, seededStore(t, "A1", "R1"))

	query := url.Values{}
	query.Set("skip", "20")
	query.Set("limit", "10")
	_, err := gw.Do(context.Background(), Request{
		Method: http.MethodPost,
		Path:   "/users",
		Query:  query,
		Body:   map[string]string{"name": "Ada"},
	})

	require.NoError(t, err)
	assert.Equal(t, "20", gotQuery.Get("skip"))
	assert.Equal(t, "10", gotQuery.Get("limit"))
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "Ada", gotBody["name"])
}

func TestGateway_RenewsAndReplaysOnceOn401(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer A2" {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return
		}
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "token expired"})
	})
	store := seededStore(t, "A1", "R1")
	gw := newTestGateway(backend, store)

	resp, err := gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(2), backend.dispatches.Load(), "expected exactly one replay")
	assert.Equal(t, int64(1), backend.refreshCalls.Load())

	access, err := store.GetAccess(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "A2", access)
}

func TestGateway_ReturnsSecond401WithoutThirdDispatch(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "nope"})
	})
	gw := newTestGateway(backend, seededStore(t, "A1", "R1"))

	resp, err := gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(2), backend.dispatches.Load(), "second 401 must not trigger another replay")
	assert.Equal(t, int64(1), backend.refreshCalls.Load(), "second 401 must not trigger another renewal")
}

func TestGateway_RenewalFailureReturnsOriginal401(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "token expired"})
	})
	backend.refresh = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "refresh token revoked"})
	}
	store := seededStore(t, "A1", "R1")

	invalidated := false
	renewer := NewRenewer(backend.server.URL, backend.server.Client(), store, nil)
	renewer.OnInvalidated(func() { invalidated = true })
	gw := NewGateway(backend.server.URL, backend.server.Client(), store, renewer, nil)

	resp, err := gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "token expired", errorFromResponse(resp).Detail, "caller sees the original failure")
	assert.Equal(t, int64(1), backend.dispatches.Load(), "no replay after failed renewal")
	assert.True(t, invalidated)

	access, err := store.GetAccess(context.Background())
	require.NoError(t, err)
	assert.Empty(t, access, "credentials cleared after failed renewal")
	refresh, err := store.GetRefresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, refresh)
}

func TestGateway_Non401ErrorsPassThrough(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]any{"detail": "admin access required"})
	})
	gw := newTestGateway(backend, seededStore(t, "A1", "R1"))

	resp, err := gw.Do(context.Background(), Request{Method: http.MethodDelete, Path: "/users/abc"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int64(0), backend.refreshCalls.Load(), "only 401 triggers renewal")

	apiErr := errorFromResponse(resp)
	assert.Equal(t, "admin access required", apiErr.Detail)
	assert.False(t, apiErr.IsAuth())
}

func TestGateway_TransportFailureIsAnError(t *testing.T) {
	backend := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {})
	backend.server.Close()
	gw := newTestGateway(backend, seededStore(t, "A1", "R1"))

	resp, err := gw.Do(context.Background(), Request{Method: http.MethodGet, Path: "/users"})

	require.Error(t, err)
	assert.Nil(t, resp)
}
