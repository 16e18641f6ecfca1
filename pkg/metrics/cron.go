package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HousekeepingMetrics tracks the cron worker: one sample per job run and one
// per cycle, so a skipped cycle (lock held elsewhere) is visible too.
type HousekeepingMetrics struct {
	runs        *prometheus.HistogramVec
	cycles      *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

func NewHousekeepingMetrics(reg prometheus.Registerer) *HousekeepingMetrics {
	if reg == nil {
		return &HousekeepingMetrics{}
	}
	m := &HousekeepingMetrics{
		runs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "housekeeping", Name: "job_seconds",
			Help:    "Housekeeping job duration by outcome.",
			Buckets: []float64{.05, .25, 1, 5, 30, 120, 600},
		}, []string{"job", "outcome"}),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "housekeeping", Name: "cycles_total",
			Help: "Housekeeping cycles, outcome=skipped when another worker held the lock.",
		}, []string{"outcome"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "housekeeping", Name: "last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per job.",
		}, []string{"job"}),
	}
	reg.MustRegister(m.runs, m.cycles, m.lastSuccess)
	return m
}

// JobFinished records one run; err decides the outcome label.
func (m *HousekeepingMetrics) JobFinished(job string, elapsed time.Duration, err error) {
	if m == nil || m.runs == nil {
		return
	}
	job = normalizeLabel(job)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	} else {
		m.lastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
	m.runs.WithLabelValues(job, outcome).Observe(elapsed.Seconds())
}

func (m *HousekeepingMetrics) CycleFinished(skipped bool) {
	if m == nil || m.cycles == nil {
		return
	}
	outcome := "ran"
	if skipped {
		outcome = "skipped"
	}
	m.cycles.WithLabelValues(outcome).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
