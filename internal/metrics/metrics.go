package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters/histograms for the booking service.
type BookingMetrics struct {
	httpLatency *prometheus.HistogramVec
	confirmed   *prometheus.CounterVec
	receipts    *prometheus.CounterVec
	steps       *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP requests by route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		confirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "confirmed_total",
			Help:      "Bookings confirmed through the booking workflow",
		}, []string{"selection_type"}),
		receipts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "receipt_render_total",
			Help:      "Receipt render attempts by renderer and outcome",
		}, []string{"renderer", "outcome"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "booking",
			Name:      "step_total",
			Help:      "Booking workflow step transitions",
		}, []string{"step", "outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.httpLatency, m.confirmed, m.receipts, m.steps)
	return m
}

func (m *BookingMetrics) ObserveHTTP(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}

func (m *BookingMetrics) ObserveConfirmed(selectionType string) {
	if m == nil {
		return
	}
	m.confirmed.WithLabelValues(selectionType).Inc()
}

func (m *BookingMetrics) ObserveReceipt(renderer, outcome string) {
	if m == nil {
		return
	}
	m.receipts.WithLabelValues(renderer, outcome).Inc()
}

func (m *BookingMetrics) ObserveStep(step, outcome string) {
	if m == nil {
		return
	}
	m.steps.WithLabelValues(step, outcome).Inc()
}
