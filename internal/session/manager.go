package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/pscheid92/adminpulse/internal/api"
	"github.com/pscheid92/adminpulse/internal/credstore"
	"github.com/pscheid92/adminpulse/internal/domain"
)

// Snapshot is an immutable view of the session at one point in time.
type Snapshot struct {
	Status domain.Status
	// User is set only while authenticated.
	User *domain.User
	// Err is a surfaced failure message, typically from a rejected login.
	Err string
	// ChangedAt is when this state was entered.
	ChangedAt time.Time
}

// MetricsRecorder receives state transitions. A nil recorder disables
// instrumentation.
type MetricsRecorder interface {
	SessionTransition(from, to domain.Status)
}

// Manager is the session state machine. All state writes go through it;
// reads happen via Current or a subscription.
type Manager struct {
	store   credstore.Store
	auth    *api.AuthClient
	renewer *api.Renewer
	clock   clockwork.Clock
	metrics MetricsRecorder

	mu          sync.Mutex
	current     Snapshot
	subscribers map[int]chan Snapshot
	nextSubID   int
}

// NewManager builds a manager starting in the unknown state and hooks it
// into the renewer's invalidation signal.
func NewManager(store credstore.Store, auth *api.AuthClient, renewer *api.Renewer, clock clockwork.Clock, metrics MetricsRecorder) *Manager {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	m := &Manager{
		store:       store,
		auth:        auth,
		renewer:     renewer,
		clock:       clock,
		metrics:     metrics,
		current:     Snapshot{Status: domain.StatusUnknown},
		subscribers: make(map[int]chan Snapshot),
	}
	renewer.OnInvalidated(m.handleInvalidated)
	return m
}

// Current returns the latest snapshot.
func (m *Manager) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Subscribe returns a channel that receives the current snapshot
// immediately and every transition after it. Delivery is latest-wins: a
// slow subscriber sees the newest state, not every intermediate one. The
// cancel function releases the subscription.
func (m *Manager) Subscribe() (<-chan Snapshot, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++
	ch := make(chan Snapshot, 1)
	ch <- m.current
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
	return ch, cancel
}

// Boot runs the startup auth check. With no stored credentials it settles
// on unauthenticated without touching the network. Otherwise it asks the
// backend who the credentials belong to; the gateway transparently renews
// an expired access token along the way. Boot failures are silent: the
// outcome is the login view, not an error banner.
func (m *Manager) Boot(ctx context.Context) {
	m.transition(Snapshot{Status: domain.StatusLoading})

	creds, err := m.credentials(ctx)
	if err != nil {
		slog.Error("Failed to read stored credentials", "error", err)
		m.transition(Snapshot{Status: domain.StatusUnauthenticated})
		return
	}
	if creds.Empty() {
		slog.Debug("No stored credentials, skipping auth check")
		m.transition(Snapshot{Status: domain.StatusUnauthenticated})
		return
	}

	user, err := m.auth.Me(ctx)
	if err != nil {
		user, err = m.recoverBoot(ctx, err)
	}
	if err != nil {
		slog.Info("Startup auth check failed", "error", err)
		m.transition(Snapshot{Status: domain.StatusUnauthenticated})
		return
	}

	slog.Info("Session restored", "user_id", user.ID, "role", user.Role)
	m.transition(Snapshot{Status: domain.StatusAuthenticated, User: user})
}

// recoverBoot retries the startup check through an explicit token renewal.
// A 401 means the gateway already ran the renewal procedure on the way out
// and it did not help. Anything else, like a transient backend error, still
// gets one renewal attempt before the session is written off.
func (m *Manager) recoverBoot(ctx context.Context, cause error) (*domain.User, error) {
	var apiErr *api.Error
	if errors.As(cause, &apiErr) && apiErr.IsAuth() {
		return nil, cause
	}
	var renewalErr *api.RenewalError
	if errors.As(cause, &renewalErr) {
		return nil, cause
	}

	slog.Info("Startup auth check failed, attempting token renewal", "error", cause)
	user, err := m.renewer.Renew(ctx)
	if err != nil {
		return nil, cause
	}
	if user != nil {
		return user, nil
	}
	return m.auth.Me(ctx)
}

// Login exchanges the given credentials for a session. On rejection the
// backend's message is surfaced in the snapshot and the error is also
// returned to the caller.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	m.transition(Snapshot{Status: domain.StatusLoading})

	result, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.transition(Snapshot{Status: domain.StatusUnauthenticated, Err: loginErrMessage(err)})
		return err
	}

	if err := m.store.SetAccess(ctx, result.Credentials.AccessToken); err != nil {
		m.transition(Snapshot{Status: domain.StatusUnauthenticated, Err: "Login failed"})
		return err
	}
	if err := m.store.SetRefresh(ctx, result.Credentials.RefreshToken); err != nil {
		m.transition(Snapshot{Status: domain.StatusUnauthenticated, Err: "Login failed"})
		return err
	}

	slog.Info("Login succeeded", "user_id", result.User.ID, "role", result.User.Role)
	m.transition(Snapshot{Status: domain.StatusAuthenticated, User: &result.User})
	return nil
}

// Logout ends the session. The server-side call is best-effort; the local
// credentials are cleared no matter what.
func (m *Manager) Logout(ctx context.Context) {
	m.transition(Snapshot{Status: domain.StatusLoading})

	if err := m.auth.Logout(ctx); err != nil {
		slog.Warn("Server-side logout failed, clearing local session anyway", "error", err)
	}
	if err := m.store.Clear(ctx); err != nil {
		slog.Error("Failed to clear credentials on logout", "error", err)
	}
	m.transition(Snapshot{Status: domain.StatusUnauthenticated})
}

// ClearError drops a surfaced error message without changing the status.
func (m *Manager) ClearError() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Err == "" {
		return
	}
	m.current.Err = ""
	m.fanout(m.current)
}

// handleInvalidated reacts to a terminal renewal failure. The credentials
// are already cleared by the renewer; only the state machine moves.
func (m *Manager) handleInvalidated() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Status == domain.StatusUnauthenticated {
		return
	}
	slog.Info("Session invalidated", "from", m.current.Status)
	m.apply(Snapshot{Status: domain.StatusUnauthenticated})
}

func (m *Manager) credentials(ctx context.Context) (domain.Credentials, error) {
	access, err := m.store.GetAccess(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}
	refresh, err := m.store.GetRefresh(ctx)
	if err != nil {
		return domain.Credentials{}, err
	}
	return domain.Credentials{AccessToken: access, RefreshToken: refresh}, nil
}

func (m *Manager) transition(next Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apply(next)
}

// apply commits a transition. Callers hold the mutex.
func (m *Manager) apply(next Snapshot) {
	from := m.current.Status
	next.ChangedAt = m.clock.Now()
	m.current = next

	if m.metrics != nil && from != next.Status {
		m.metrics.SessionTransition(from, next.Status)
	}
	slog.Debug("Session state changed", "from", from, "to", next.Status)
	m.fanout(next)
}

// fanout delivers a snapshot to every subscriber, latest-wins. Callers
// hold the mutex, so sends on each channel are serialized.
func (m *Manager) fanout(snap Snapshot) {
	for _, ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func loginErrMessage(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return "Login failed"
}
