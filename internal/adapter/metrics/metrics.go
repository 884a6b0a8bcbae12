// Package metrics exposes gateway and session instrumentation on the
// default prometheus registry.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pscheid92/adminpulse/internal/domain"
)

var (
	// RequestsTotal tracks backend dispatches by method, path and status
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminpulse_backend_requests_total",
			Help: "Backend requests dispatched by method, path and status",
		},
		[]string{"method", "path", "status"},
	)

	// RequestReplays tracks requests replayed after a token renewal
	RequestReplays = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "adminpulse_backend_request_replays_total",
			Help: "Requests replayed after a successful token renewal",
		},
	)

	// RenewalsTotal tracks token renewal outcomes
	RenewalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminpulse_token_renewals_total",
			Help: "Token renewal attempts by outcome",
		},
		[]string{"outcome"},
	)

	// SessionTransitions tracks session state machine transitions
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "adminpulse_session_transitions_total",
			Help: "Session state transitions by from and to state",
		},
		[]string{"from", "to"},
	)
)

// Recorder feeds the package metrics. It satisfies the recorder interfaces
// of both the api gateway and the session manager.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (Recorder) RequestDispatched(method, path string, status int) {
	RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

func (Recorder) RequestReplayed() {
	RequestReplays.Inc()
}

func (Recorder) RenewalSucceeded() {
	RenewalsTotal.WithLabelValues("success").Inc()
}

func (Recorder) RenewalFailed() {
	RenewalsTotal.WithLabelValues("failure").Inc()
}

func (Recorder) SessionTransition(from, to domain.Status) {
	SessionTransitions.WithLabelValues(from.String(), to.String()).Inc()
}
