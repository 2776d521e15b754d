package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, r *Recorder) string {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestRecorder_Submission(t *testing.T) {
	r := NewRecorder(prometheus.NewRegistry())

	r.Submission("webhook", OutcomeDelivered)
	r.Submission("webhook", OutcomeDelivered)
	r.Submission("webhook", OutcomeFailed)

	body := scrape(t, r)
	assert.Contains(t, body, `address_relay_submissions_total{mode="webhook",outcome="delivered"} 2`)
	assert.Contains(t, body, `address_relay_submissions_total{mode="webhook",outcome="failed"} 1`)
	assert.NotContains(t, body, `mode="sheets"`)
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder(NewRegistry())
	r.Submission("dev-fallback", OutcomeDelivered)
	r.Delivery("dev-fallback", OutcomeDelivered, 500*time.Millisecond)

	body := scrape(t, r)
	assert.Contains(t, body, `address_relay_submissions_total{mode="dev-fallback",outcome="delivered"} 1`)
	assert.Contains(t, body, "address_relay_delivery_duration_seconds_count")
	assert.Contains(t, body, "go_goroutines")
}
