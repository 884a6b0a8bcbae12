package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/adminpulse/internal/domain"
	apperrors "github.com/pscheid92/adminpulse/internal/platform/errors"
)

func (s *Server) handleLanding(c echo.Context) error {
	if s.session.Current().Status == domain.StatusAuthenticated {
		if err := c.Redirect(http.StatusFound, "/dashboard"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}
	return c.Redirect(http.StatusFound, "/login")
}

func (s *Server) handleLoginPage(c echo.Context) error {
	snap := s.session.Current()
	if snap.Status == domain.StatusAuthenticated {
		if err := c.Redirect(http.StatusFound, "/dashboard"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}

	return s.renderTemplate(c, "login.html", map[string]any{
		"Error": snap.Err,
	})
}

func (s *Server) handleLogin(c echo.Context) error {
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")
	if email == "" || password == "" {
		return apperrors.ValidationError("email and password are required")
	}

	if err := s.session.Login(c.Request().Context(), email, password); err != nil {
		// The rejection message is already surfaced in the session
		// snapshot; the login page picks it up from there.
		if err := c.Redirect(http.StatusSeeOther, "/login"); err != nil {
			return fmt.Errorf("failed to redirect: %w", err)
		}
		return nil
	}

	s.session.ClearError()
	if err := c.Redirect(http.StatusSeeOther, "/dashboard"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}

func (s *Server) handleLogout(c echo.Context) error {
	s.session.Logout(c.Request().Context())
	if err := c.Redirect(http.StatusSeeOther, "/login"); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}
