package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pscheid92/adminpulse/internal/guard"
	"github.com/pscheid92/adminpulse/internal/platform/correlation"
	apperrors "github.com/pscheid92/adminpulse/internal/platform/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ContentSecurityPolicy: "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"frame-ancestors 'none'",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}))

	csrf := s.setupCSRFMiddleware()
	authed := guard.Middleware(s.session, guard.Authenticated)
	adminOnly := guard.Middleware(s.session, guard.AdminOnly)

	s.echo.GET("/", s.handleLanding)
	s.registerHealthRoutes()
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.GET("/login", s.handleLoginPage, csrf)
	s.echo.POST("/login", s.handleLogin, csrf)
	s.echo.POST("/logout", s.handleLogout, authed, csrf)

	s.echo.GET("/dashboard", s.handleDashboard, authed, csrf)

	s.echo.GET("/users", s.handleUserList, authed, csrf)
	s.echo.GET("/users/:id", s.handleUserDetail, authed, csrf)
	s.echo.GET("/users/new", s.handleUserNew, adminOnly, csrf)
	s.echo.POST("/users", s.handleUserCreate, adminOnly, csrf)
	s.echo.GET("/users/:id/edit", s.handleUserEdit, adminOnly, csrf)
	s.echo.POST("/users/:id", s.handleUserUpdate, adminOnly, csrf)
	s.echo.POST("/users/:id/delete", s.handleUserDelete, adminOnly, csrf)
}

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}

func (s *Server) setupCSRFMiddleware() echo.MiddlewareFunc {
	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:csrf_token,header:X-CSRF-Token",
		CookieName:     "csrf_token",
		CookiePath:     "/",
		CookieMaxAge:   int(cookieMaxAge.Seconds()),
		CookieHTTPOnly: true,
		CookieSecure:   s.config.AppEnv == "production",
		CookieSameSite: http.SameSiteStrictMode,
	})
}
