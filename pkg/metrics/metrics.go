package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/asookemart/asooke-backend/pkg/enums"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "asooke"

// Handler exposes the registry for scraping.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// CheckoutMetrics counts checkout attempts by phase and outcome.
type CheckoutMetrics struct {
	initiated *prometheus.CounterVec
	confirmed *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	m := &CheckoutMetrics{
		initiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "checkout", Name: "initiated_total",
			Help: "Hosted payment sessions opened.",
		}, []string{"outcome"}),
		confirmed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "checkout", Name: "confirmed_total",
			Help: "Verified payments turned into orders. outcome=duplicate marks idempotent replays.",
		}, []string{"outcome"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "checkout", Name: "failed_total",
			Help: "Checkout failures by phase and error code.",
		}, []string{"phase", "code"}),
	}
	reg.MustRegister(m.initiated, m.confirmed, m.failed)
	return m
}

func (m *CheckoutMetrics) Initiated() {
	if m == nil || m.initiated == nil {
		return
	}
	m.initiated.WithLabelValues("ok").Inc()
}

// Confirmed records a successful confirm; duplicate is true on the replay path.
func (m *CheckoutMetrics) Confirmed(duplicate bool) {
	if m == nil || m.confirmed == nil {
		return
	}
	outcome := "created"
	if duplicate {
		outcome = "duplicate"
	}
	m.confirmed.WithLabelValues(outcome).Inc()
}

func (m *CheckoutMetrics) Failed(phase, code string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(phase), normalizeLabel(code)).Inc()
}

// LedgerMetrics counts appended and rejected order status events.
type LedgerMetrics struct {
	appended *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	m := &LedgerMetrics{
		appended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "appended_total",
			Help: "Order tracking events appended.",
		}, []string{"status"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "ledger", Name: "rejected_total",
			Help: "Order tracking events rejected as out of sequence.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.appended, m.rejected)
	return m
}

func (m *LedgerMetrics) Appended(status enums.TrackingStatus) {
	if m == nil || m.appended == nil {
		return
	}
	m.appended.WithLabelValues(normalizeLabel(status.String())).Inc()
}

func (m *LedgerMetrics) Rejected(status enums.TrackingStatus) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(status.String())).Inc()
}

// HTTPMetrics records request latency per route pattern.
type HTTPMetrics struct {
	duration *prometheus.HistogramVec
}

func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route pattern.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(duration)
	return &HTTPMetrics{duration: duration}
}

func (m *HTTPMetrics) Observe(method, route string, status int, elapsed time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(method, normalizeLabel(route), strconv.Itoa(status)).Observe(elapsed.Seconds())
}
