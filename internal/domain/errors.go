package domain

import "errors"

var (
	// ErrNoRefreshToken means renewal was attempted without a refresh token.
	ErrNoRefreshToken = errors.New("no refresh token stored")
	// ErrSessionInvalidated signals that renewal failed terminally and all
	// credentials were cleared. Every *api.RenewalError matches it via
	// errors.Is; networking code never navigates on its own.
	ErrSessionInvalidated = errors.New("session invalidated")
)
