package metrics

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

func TestCounters(t *testing.T) {
	m := New()

	m.OrderCreated("cash_on_delivery")
	m.OrderCreated("cash_on_delivery")
	m.QuoteSubmitted()
	m.TelemetryEvent("page_view")
	m.ObserveRequest(http.MethodGet, "GET /api/products", 200, 15*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersCreated.WithLabelValues("cash_on_delivery")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.quotesSubmitted))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.telemetryEvents.WithLabelValues("page_view")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "GET /api/products", "200")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderCreated("bank_transfer")
		m.QuoteSubmitted()
		m.TelemetryEvent("search")
		m.StockMovement("sale")
		m.ObserveRequest("GET", "/", 200, time.Second)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.QuoteSubmitted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "storefront_quotes_submitted_total 1"))
}
