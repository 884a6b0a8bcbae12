// Package httpserver serves the admin console: the login flow, the
// dashboard, and the user management pages. It renders server-side
// templates and talks to the backend exclusively through the typed API
// clients.
package httpserver

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/pscheid92/adminpulse/internal/api"
	"github.com/pscheid92/adminpulse/internal/platform/config"
	"github.com/pscheid92/adminpulse/internal/session"
	"github.com/pscheid92/adminpulse/web"
)

const (
	cookieName     = "adminpulse-session"
	cookieKeyFlash = "flash"
	cookieMaxAge   = 7 * 24 * time.Hour
)

// HealthCheck is a named readiness check.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	session *session.Manager
	users   *api.UsersClient
	stats   *api.StatsClient

	templates    *template.Template
	cookieStore  *sessions.CookieStore
	healthChecks []HealthCheck
	startTime    time.Time
}

func NewServer(cfg *config.Config, manager *session.Manager, users *api.UsersClient, stats *api.StatsClient, healthChecks []HealthCheck) (*Server, error) {
	templates, err := template.ParseFS(web.TemplateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		session:      manager,
		users:        users,
		stats:        stats,
		templates:    templates,
		cookieStore:  setupCookieStore(cfg),
		healthChecks: healthChecks,
		startTime:    time.Now(),
	}

	srv.registerRoutes()

	return srv, nil
}

func (s *Server) Start() error {
	slog.Info("Starting console", "addr", s.config.ListenAddr)
	if err := s.echo.Start(s.config.ListenAddr); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func (s *Server) renderTemplate(c echo.Context, name string, data map[string]any) error {
	if data == nil {
		data = map[string]any{}
	}
	snap := s.session.Current()
	data["Session"] = snap
	data["User"] = snap.User
	if token, ok := c.Get("csrf").(string); ok {
		data["CSRFToken"] = token
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Template execution failed", "template", name, "path", c.Request().URL.Path, "error", err)
		if err := c.String(http.StatusInternalServerError, "Failed to render page"); err != nil {
			return fmt.Errorf("failed to send error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(http.StatusOK, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to send HTML response: %w", err)
	}
	return nil
}

// addFlash stores a one-shot notice shown on the next rendered page.
func (s *Server) addFlash(c echo.Context, message string) {
	sess, err := s.cookieStore.Get(c.Request(), cookieName)
	if err != nil {
		slog.Error("Failed to get cookie session for flash", "error", err)
	}
	sess.AddFlash(message, cookieKeyFlash)
	if err := sess.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to save flash", "error", err)
	}
}

// popFlashes drains and returns the pending notices.
func (s *Server) popFlashes(c echo.Context) []string {
	sess, err := s.cookieStore.Get(c.Request(), cookieName)
	if err != nil {
		return nil
	}

	raw := sess.Flashes(cookieKeyFlash)
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(c.Request(), c.Response().Writer); err != nil {
		slog.Error("Failed to save session after draining flashes", "error", err)
	}

	flashes := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			flashes = append(flashes, msg)
		}
	}
	return flashes
}

func setupCookieStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return store
}
