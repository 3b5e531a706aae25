package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("/api/vehicles", http.MethodGet, 200, time.Millisecond)
		m.VehicleEvent("created")
		m.ForumEvent("post_created")
		m.ChatRequest("gemini-1.5-flash", "ok")
		m.IncrementChatFallbacks()
		m.SetFeedSubscribers(3)
		m.IncrementFeedPublishes()
		m.AuthFailure("bad_token")
		m.IncrementRateLimited()
	})
}

func TestCounters(t *testing.T) {
	m := New()

	m.VehicleEvent("created")
	m.VehicleEvent("created")
	m.VehicleEvent("deleted")
	m.SetFeedSubscribers(2)
	m.IncrementChatFallbacks()

	body := scrape(t, m)
	assert.Contains(t, body, `engineeye_vehicle_events_total{event="created"} 2`)
	assert.Contains(t, body, `engineeye_vehicle_events_total{event="deleted"} 1`)
	assert.Contains(t, body, "engineeye_feed_subscribers 2")
	assert.Contains(t, body, "engineeye_chat_fallbacks_total 1")
}

func TestNewTwiceDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		New()
		New()
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("/health", http.MethodGet, 200, 5*time.Millisecond)

	assert.Contains(t, scrape(t, m), `engineeye_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}
