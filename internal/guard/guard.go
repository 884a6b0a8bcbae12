// Package guard decides whether a view may be shown for the current
// session state. The decision logic is pure; the echo middleware only
// translates decisions into HTTP responses.
package guard

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pscheid92/adminpulse/internal/domain"
	"github.com/pscheid92/adminpulse/internal/session"
)

// Requirement is what a route demands from the session.
type Requirement int

const (
	// None lets anyone through.
	None Requirement = iota
	// Authenticated demands a live session.
	Authenticated
	// AdminOnly demands a live session with the admin role.
	AdminOnly
)

// Decision is the guard's verdict for one request.
type Decision int

const (
	// Allow shows the requested view.
	Allow Decision = iota
	// Wait holds the request while the auth check is still in flight. The
	// guard never guesses: an unknown session is neither let in nor
	// bounced to login.
	Wait
	// RedirectLogin sends the visitor to the login view.
	RedirectLogin
	// RedirectHome sends an authenticated but under-privileged visitor to
	// the user overview.
	RedirectHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Wait:
		return "wait"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "invalid"
	}
}

// Decide maps a session snapshot and a route requirement to a verdict.
func Decide(snap session.Snapshot, req Requirement) Decision {
	if req == None {
		return Allow
	}

	switch snap.Status {
	case domain.StatusUnknown, domain.StatusLoading:
		return Wait
	case domain.StatusUnauthenticated:
		return RedirectLogin
	}

	if req == AdminOnly && (snap.User == nil || !snap.User.IsAdmin()) {
		return RedirectHome
	}
	return Allow
}

// SnapshotSource provides the current session snapshot. *session.Manager
// satisfies it.
type SnapshotSource interface {
	Current() session.Snapshot
}

const (
	loginPath = "/login"
	homePath  = "/users"
)

// waitPage is shown while the startup auth check is still running. It
// retries the same URL once the check has had a moment to settle.
const waitPage = `<!DOCTYPE html>
<html><head><meta http-equiv="refresh" content="1"><title>Loading</title></head>
<body><p>Checking your session&hellip;</p></body></html>`

// Middleware enforces a requirement on every route in a group.
func Middleware(source SnapshotSource, req Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			switch Decide(source.Current(), req) {
			case Allow:
				return next(c)
			case Wait:
				return c.HTML(http.StatusOK, waitPage)
			case RedirectLogin:
				return c.Redirect(http.StatusSeeOther, loginPath)
			default:
				return c.Redirect(http.StatusSeeOther, homePath)
			}
		}
	}
}
