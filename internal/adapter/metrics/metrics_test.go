package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/pscheid92/adminpulse/internal/domain"
)

func TestRecorder(t *testing.T) {
	rec := NewRecorder()

	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/users", "200"))
	rec.RequestDispatched("GET", "/users", 200)
	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("GET", "/users", "200")))

	before = testutil.ToFloat64(RequestReplays)
	rec.RequestReplayed()
	assert.Equal(t, before+1, testutil.ToFloat64(RequestReplays))

	before = testutil.ToFloat64(RenewalsTotal.WithLabelValues("success"))
	rec.RenewalSucceeded()
	assert.Equal(t, before+1, testutil.ToFloat64(RenewalsTotal.WithLabelValues("success")))

	before = testutil.ToFloat64(RenewalsTotal.WithLabelValues("failure"))
	rec.RenewalFailed()
	assert.Equal(t, before+1, testutil.ToFloat64(RenewalsTotal.WithLabelValues("failure")))

	before = testutil.ToFloat64(SessionTransitions.WithLabelValues("loading", "authenticated"))
	rec.SessionTransition(domain.StatusLoading, domain.StatusAuthenticated)
	assert.Equal(t, before+1, testutil.ToFloat64(SessionTransitions.WithLabelValues("loading", "authenticated")))
}
