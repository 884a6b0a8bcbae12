package httpserver

import (
	"github.com/labstack/echo/v4"

	apperrors "github.com/pscheid92/adminpulse/internal/platform/errors"
)

func (s *Server) handleDashboard(c echo.Context) error {
	stats, err := s.stats.Get(c.Request().Context())
	if err != nil {
		return apperrors.UpstreamError("failed to load dashboard statistics", err)
	}

	return s.renderTemplate(c, "dashboard.html", map[string]any{
		"Stats":   stats,
		"Flashes": s.popFlashes(c),
	})
}
