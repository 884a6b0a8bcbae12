// Package credstore holds the durable credential pair for the console.
//
// The store is pure storage with no policy: values are opaque strings, never
// validated, and writes are immediately visible to subsequent reads. An
// absent token is represented by the empty string. Implementations: Bolt
// (durable file, default), Redis (shared deployments), Memory (dev/test).
package credstore

import "context"

// Store is the single owner of the current access and refresh tokens.
// Implementations must support concurrent use from multiple in-flight
// request completions; last-write-wins is acceptable since only one
// credential pair is ever valid at a time.
type Store interface {
	// GetAccess returns the stored access token, or "" when absent.
	GetAccess(ctx context.Context) (string, error)
	// SetAccess overwrites the access token. Empty clears it.
	SetAccess(ctx context.Context, token string) error
	// GetRefresh returns the stored refresh token, or "" when absent.
	GetRefresh(ctx context.Context) (string, error)
	// SetRefresh overwrites the refresh token. Empty clears it.
	SetRefresh(ctx context.Context, token string) error
	// Clear removes both tokens.
	Clear(ctx context.Context) error
}
