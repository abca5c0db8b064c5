// Package metrics holds the service's prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	ordersCreated   *prometheus.CounterVec
	quotesSubmitted prometheus.Counter
	telemetryEvents *prometheus.CounterVec
	stockMovements  *prometheus.CounterVec
}

// New registers every collector on a private registry so tests can build
// as many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Orders placed through checkout.",
		}, []string{"payment_method"}),
		quotesSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "storefront_quotes_submitted_total",
			Help: "Quote requests submitted.",
		}),
		telemetryEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_telemetry_events_total",
			Help: "Telemetry events recorded by type.",
		}, []string{"type"}),
		stockMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_stock_movements_total",
			Help: "Inventory movements by type.",
		}, []string{"type"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.ordersCreated,
		m.quotesSubmitted, m.telemetryEvents, m.stockMovements,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) OrderCreated(paymentMethod string) {
	if m == nil {
		return
	}
	m.ordersCreated.WithLabelValues(paymentMethod).Inc()
}

func (m *Metrics) QuoteSubmitted() {
	if m == nil {
		return
	}
	m.quotesSubmitted.Inc()
}

func (m *Metrics) TelemetryEvent(eventType string) {
	if m == nil {
		return
	}
	m.telemetryEvents.WithLabelValues(eventType).Inc()
}

func (m *Metrics) StockMovement(movementType string) {
	if m == nil {
		return
	}
	m.stockMovements.WithLabelValues(movementType).Inc()
}
