package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pscheid92/adminpulse/internal/domain"
)

// Error is a non-2xx answer from the backend. Detail carries the backend's
// own message verbatim; the console never rewrites it.
type Error struct {
	StatusCode int
	Detail     string
}

func (e *Error) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Detail)
}

// IsAuth reports whether the error is an authorization failure.
func (e *Error) IsAuth() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// errorFromResponse turns a non-2xx response into an *Error, extracting the
// conventional {"detail": "..."} body when present.
func errorFromResponse(resp *Response) *Error {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(resp.Body, &body); err != nil || body.Detail == "" {
		body.Detail = http.StatusText(resp.StatusCode)
	}
	return &Error{StatusCode: resp.StatusCode, Detail: body.Detail}
}

// RenewalError means the refresh exchange failed and the credential pair was
// cleared. Revoked marks rejections of the refresh token itself, as opposed
// to transport or server trouble.
type RenewalError struct {
	Revoked bool
	Err     error
}

func (e *RenewalError) Error() string {
	if e.Revoked {
		return fmt.Sprintf("refresh token revoked: %v", e.Err)
	}
	return fmt.Sprintf("token renewal failed: %v", e.Err)
}

func (e *RenewalError) Unwrap() error {
	return e.Err
}

// Is matches every renewal failure against domain.ErrSessionInvalidated, so
// callers can detect invalidation without caring about the concrete cause.
func (e *RenewalError) Is(target error) bool {
	return target == domain.ErrSessionInvalidated
}
