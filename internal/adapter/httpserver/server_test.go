package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pscheid92/adminpulse/internal/api"
	"github.com/pscheid92/adminpulse/internal/credstore"
	"github.com/pscheid92/adminpulse/internal/domain"
	"github.com/pscheid92/adminpulse/internal/platform/config"
	"github.com/pscheid92/adminpulse/internal/session"
)

// fakeBackend is a minimal user-management backend for handler tests.
// Logging in as admin@example.com/secret yields an admin session; any
// other password is rejected.
func fakeBackend(t *testing.T) *httptest.Server {
	t.Helper()

	adminID := uuid.New()
	admin := map[string]any{"id": adminID.String(), "name": "Ada", "email": "admin@example.com", "role": "admin"}
	plain := map[string]any{"id": uuid.NewString(), "name": "Grace", "email": "user@example.com", "role": "user"}

	writeJSON := func(w http.ResponseWriter, status int, body any) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/login":
			var creds map[string]string
			_ = json.NewDecoder(r.Body).Decode(&creds)
			if creds["password"] != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Incorrect email or password"})
				return
			}
			user := admin
			if creds["email"] != "admin@example.com" {
				user = plain
			}
			writeJSON(w, http.StatusOK, map[string]any{"access_token": "A1", "refresh_token": "R1", "user": user})
		case r.URL.Path == "/auth/logout":
			writeJSON(w, http.StatusOK, map[string]any{"message": "Logged out"})
		case r.URL.Path == "/auth/me":
			writeJSON(w, http.StatusOK, admin)
		case r.URL.Path == "/users" && r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, map[string]any{"users": []any{admin, plain}, "total": 2})
		case strings.HasPrefix(r.URL.Path, "/users/") && r.Method == http.MethodGet:
			writeJSON(w, http.StatusOK, plain)
		case r.URL.Path == "/users" && r.Method == http.MethodPost:
			var in map[string]any
			_ = json.NewDecoder(r.Body).Decode(&in)
			in["id"] = uuid.NewString()
			writeJSON(w, http.StatusCreated, in)
		case r.URL.Path == "/stats":
			writeJSON(w, http.StatusOK, map[string]any{
				"total_users": 2, "users_today": 1, "users_this_week": 2, "users_this_month": 2,
				"recent_users": []any{plain},
				"growth_data":  []any{map[string]any{"date": "2026-08-28", "count": 1}},
			})
		default:
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found"})
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()

	backend := fakeBackend(t)
	cfg := &config.Config{
		AppEnv:        "test",
		ListenAddr:    ":0",
		APIBaseURL:    backend.URL,
		SessionSecret: "test-secret",
	}

	store := credstore.NewMemoryStore()
	renewer := api.NewRenewer(backend.URL, backend.Client(), store, nil)
	gateway := api.NewGateway(backend.URL, backend.Client(), store, renewer, nil)
	manager := session.NewManager(store, api.NewAuthClient(gateway), renewer, clockwork.NewFakeClock(), nil)

	srv, err := NewServer(cfg, manager, api.NewUsersClient(gateway), api.NewStatsClient(gateway), nil)
	require.NoError(t, err)
	return srv, manager
}

// browser carries cookies between requests, like a real client would.
type browser struct {
	srv     *Server
	cookies []*http.Cookie
}

func (b *browser) do(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, cookie := range b.cookies {
		req.AddCookie(cookie)
	}

	rec := httptest.NewRecorder()
	b.srv.echo.ServeHTTP(rec, req)
	b.cookies = append(b.cookies, rec.Result().Cookies()...)
	return rec
}

func (b *browser) csrfToken(t *testing.T) string {
	t.Helper()

	rec := b.do(t, http.MethodGet, "/login", nil)
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "csrf_token" {
			return cookie.Value
		}
	}
	for _, cookie := range b.cookies {
		if cookie.Name == "csrf_token" {
			return cookie.Value
		}
	}
	t.Fatal("no csrf token issued")
	return ""
}

func login(t *testing.T, b *browser, email, password string) *httptest.ResponseRecorder {
	t.Helper()

	form := url.Values{}
	form.Set("csrf_token", b.csrfToken(t))
	form.Set("email", email)
	form.Set("password", password)
	return b.do(t, http.MethodPost, "/login", form)
}

func TestLoginPage_RendersForm(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}

	rec := b.do(t, http.MethodGet, "/login", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `name="email"`)
	assert.Contains(t, rec.Body.String(), `name="password"`)
}

func TestLogin_RedirectsToDashboard(t *testing.T) {
	srv, manager := newTestServer(t)
	b := &browser{srv: srv}

	rec := login(t, b, "admin@example.com", "secret")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))
	assert.Equal(t, domain.StatusAuthenticated, manager.Current().Status)
}

func TestLogin_RejectionShowsBackendMessage(t *testing.T) {
	srv, manager := newTestServer(t)
	b := &browser{srv: srv}

	rec := login(t, b, "admin@example.com", "wrong")

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, domain.StatusUnauthenticated, manager.Current().Status)

	rec = b.do(t, http.MethodGet, "/login", nil)
	assert.Contains(t, rec.Body.String(), "Incorrect email or password")
}

func TestGuard_UnknownSessionGetsWaitPage(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}

	rec := b.do(t, http.MethodGet, "/dashboard", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "refresh")
}

func TestGuard_AnonymousRedirectedToLogin(t *testing.T) {
	srv, manager := newTestServer(t)
	manager.Boot(context.Background())
	b := &browser{srv: srv}

	rec := b.do(t, http.MethodGet, "/dashboard", nil)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestDashboard_ShowsStats(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}
	login(t, b, "admin@example.com", "secret")

	rec := b.do(t, http.MethodGet, "/dashboard", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Total users")
	assert.Contains(t, rec.Body.String(), "2026-08-28")
}

func TestUserList_RendersUsersForAdmin(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}
	login(t, b, "admin@example.com", "secret")

	rec := b.do(t, http.MethodGet, "/users", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Ada")
	assert.Contains(t, rec.Body.String(), "Grace")
	assert.Contains(t, rec.Body.String(), "Create user")
}

func TestUserList_HidesAdminActionsFromPlainUser(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}
	login(t, b, "user@example.com", "secret")

	rec := b.do(t, http.MethodGet, "/users", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Create user")
}

func TestUserDetail_ShowsProfile(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}
	login(t, b, "admin@example.com", "secret")

	rec := b.do(t, http.MethodGet, "/users/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grace")
	assert.Contains(t, rec.Body.String(), "user@example.com")
	assert.Contains(t, rec.Body.String(), "/edit", "admins see the edit action")
}

func TestUserDetail_HidesAdminActionsFromPlainUser(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}
	login(t, b, "user@example.com", "secret")

	rec := b.do(t, http.MethodGet, "/users/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Grace")
	assert.NotContains(t, rec.Body.String(), "/edit")
}

func TestUserDetail_RejectsMalformedID(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}
	login(t, b, "admin@example.com", "secret")

	rec := b.do(t, http.MethodGet, "/users/not-a-uuid", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserCreate_PlainUserBouncedHome(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}
	login(t, b, "user@example.com", "secret")

	form := url.Values{}
	form.Set("csrf_token", b.csrfToken(t))
	form.Set("name", "Eve")
	form.Set("email", "eve@example.com")
	form.Set("password", "pw")
	form.Set("role", "user")
	rec := b.do(t, http.MethodPost, "/users", form)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get("Location"))
}

func TestUserCreate_AdminSucceedsWithFlash(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}
	login(t, b, "admin@example.com", "secret")

	form := url.Values{}
	form.Set("csrf_token", b.csrfToken(t))
	form.Set("name", "Eve")
	form.Set("email", "eve@example.com")
	form.Set("password", "pw")
	form.Set("role", "user")
	rec := b.do(t, http.MethodPost, "/users", form)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get("Location"))

	rec = b.do(t, http.MethodGet, "/users", nil)
	assert.Contains(t, rec.Body.String(), "User Eve created")
}

func TestLogout_EndsSession(t *testing.T) {
	srv, manager := newTestServer(t)
	b := &browser{srv: srv}
	login(t, b, "admin@example.com", "secret")

	form := url.Values{}
	form.Set("csrf_token", b.csrfToken(t))
	rec := b.do(t, http.MethodPost, "/logout", form)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, domain.StatusUnauthenticated, manager.Current().Status)
}

func TestHealthAndVersionEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)
	b := &browser{srv: srv}

	rec := b.do(t, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = b.do(t, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = b.do(t, http.MethodGet, "/version", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadiness_FailingCheckReports503(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.healthChecks = []HealthCheck{{
		Name:  "credstore",
		Check: func(ctx context.Context) error { return context.DeadlineExceeded },
	}}
	b := &browser{srv: srv}

	rec := b.do(t, http.MethodGet, "/health/ready", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "credstore")
}
