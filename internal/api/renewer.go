package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/pscheid92/adminpulse/internal/credstore"
	"github.com/pscheid92/adminpulse/internal/domain"
	"github.com/pscheid92/adminpulse/internal/platform/correlation"
	"golang.org/x/sync/singleflight"
)

// Renewer exchanges the stored refresh token for a fresh access token. It is
// shared by the gateway's 401 recovery and by the session manager's boot
// sequence. Concurrent callers join a single in-flight exchange instead of
// racing independent refresh calls against the backend.
//
// Any failure clears both credentials: a rejected refresh token is not
// recoverable, and a half-valid pair must never linger in the store.
type Renewer struct {
	baseURL string
	client  *http.Client
	store   credstore.Store
	metrics MetricsRecorder

	onInvalidated func()

	group singleflight.Group
}

// NewRenewer builds a renewer for the backend at baseURL.
func NewRenewer(baseURL string, client *http.Client, store credstore.Store, metrics MetricsRecorder) *Renewer {
	if client == nil {
		client = http.DefaultClient
	}
	return &Renewer{
		baseURL: baseURL,
		client:  client,
		store:   store,
		metrics: metrics,
	}
}

// OnInvalidated registers the callback fired after a terminal renewal
// failure. The networking layer never navigates; it raises this signal and
// the session layer reacts.
func (r *Renewer) OnInvalidated(fn func()) {
	r.onInvalidated = fn
}

// Renew performs the renewal procedure, returning the fresh user snapshot
// when the backend includes one. On failure the credential pair is cleared
// and a *RenewalError is returned.
func (r *Renewer) Renew(ctx context.Context) (*domain.User, error) {
	// The singleflight key is constant: there is only ever one logical
	// credential pair. Late joiners share the winner's outcome. The
	// winner's context drives the HTTP call.
	user, err, shared := r.group.Do("renew", func() (any, error) {
		return r.renew(ctx)
	})
	if shared {
		slog.Debug("Joined in-flight token renewal")
	}
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	return user.(*domain.User), nil
}

func (r *Renewer) renew(ctx context.Context) (*domain.User, error) {
	refresh, err := r.store.GetRefresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token: %w", err)
	}
	if refresh == "" {
		r.invalidate(ctx)
		return nil, &RenewalError{Err: domain.ErrNoRefreshToken}
	}

	payload, err := json.Marshal(map[string]string{"refresh_token": refresh})
	if err != nil {
		return nil, fmt.Errorf("failed to encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	correlation.Propagate(ctx, req)

	resp, err := r.client.Do(req)
	if err != nil {
		r.invalidate(ctx)
		return nil, &RenewalError{Err: fmt.Errorf("refresh request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		r.invalidate(ctx)
		return nil, &RenewalError{Err: fmt.Errorf("failed to read refresh response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		revoked := resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized
		r.invalidate(ctx)
		return nil, &RenewalError{
			Revoked: revoked,
			Err:     fmt.Errorf("refresh rejected with status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var result struct {
		AccessToken  string       `json:"access_token"`
		RefreshToken string       `json:"refresh_token"`
		User         *domain.User `json:"user"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		r.invalidate(ctx)
		return nil, &RenewalError{Err: fmt.Errorf("failed to decode refresh response: %w", err)}
	}

	if err := r.store.SetAccess(ctx, result.AccessToken); err != nil {
		r.invalidate(ctx)
		return nil, &RenewalError{Err: fmt.Errorf("failed to store access token: %w", err)}
	}
	// The backend does not rotate refresh tokens today, but honor one if
	// it ever starts to.
	if result.RefreshToken != "" {
		if err := r.store.SetRefresh(ctx, result.RefreshToken); err != nil {
			r.invalidate(ctx)
			return nil, &RenewalError{Err: fmt.Errorf("failed to store refresh token: %w", err)}
		}
	}

	if r.metrics != nil {
		r.metrics.RenewalSucceeded()
	}
	slog.Info("Access token renewed")

	return result.User, nil
}

// invalidate clears the credential pair and raises the session-invalidated
// signal.
func (r *Renewer) invalidate(ctx context.Context) {
	if err := r.store.Clear(ctx); err != nil {
		slog.Error("Failed to clear credentials after renewal failure", "error", err)
	}
	if r.metrics != nil {
		r.metrics.RenewalFailed()
	}
	if r.onInvalidated != nil {
		r.onInvalidated()
	}
}
