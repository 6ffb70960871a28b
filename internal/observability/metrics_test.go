package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := NewMetrics("portal")

	m.RecordGuardDecision("render")
	m.RecordGuardDecision("render")
	m.RecordGuardDecision("redirect_sign_in")
	m.RecordSessionTransition("established")
	m.RecordBootstrapOutcome("resolved-authenticated", "refresh")
	m.RecordError("/session/login", http.MethodPost, "UNAUTHORIZED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("render")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("redirect_sign_in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("established")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bootstraps.WithLabelValues("resolved-authenticated", "refresh")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reqErrors.WithLabelValues(http.MethodPost, "/session/login", "UNAUTHORIZED")))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", http.MethodGet, 200, time.Millisecond)
		m.RecordGuardDecision("render")
		m.RecordSessionTransition("cleared")
		m.RecordBootstrapOutcome("resolved-unauthenticated", "none")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics("portal")
	m.RecordRequest("/health/live", http.MethodGet, 200, 3*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "portal_http_request_duration_seconds"))
	assert.True(t, strings.Contains(body, `route="/health/live"`))
}
