package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestBookingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveHTTP("GET", "/doctors", 200, 0.01)
	m.ObserveConfirmed("AUTO")
	m.ObserveConfirmed("AUTO")
	m.ObserveReceipt("visual", "error")
	m.ObserveReceipt("text", "ok")
	m.ObserveStep("department", "ok")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.confirmed.WithLabelValues("AUTO")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.receipts.WithLabelValues("visual", "error")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.steps.WithLabelValues("department", "ok")))
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveHTTP("GET", "/", 200, 0.1)
	m.ObserveConfirmed("MANUAL")
	m.ObserveReceipt("text", "ok")
	m.ObserveStep("patient", "rejected")
}
