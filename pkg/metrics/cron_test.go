package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHousekeepingMetricsSplitOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHousekeepingMetrics(reg)
	m.JobFinished("abandoned-cart-purge", 300*time.Millisecond, nil)
	m.JobFinished("verification-purge", time.Second, errors.New("db gone"))
	m.CycleFinished(false)
	m.CycleFinished(true)
	m.CycleFinished(true)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	ok := findSample(mfs, "asooke_housekeeping_job_seconds", map[string]string{"job": "abandoned-cart-purge", "outcome": "ok"})
	require.NotNil(t, ok)
	assert.EqualValues(t, 1, ok.GetHistogram().GetSampleCount())
	assert.InDelta(t, 0.3, ok.GetHistogram().GetSampleSum(), 0.001)

	failed := findSample(mfs, "asooke_housekeeping_job_seconds", map[string]string{"job": "verification-purge", "outcome": "error"})
	require.NotNil(t, failed)

	assert.NotNil(t, findSample(mfs, "asooke_housekeeping_last_success_timestamp_seconds", map[string]string{"job": "abandoned-cart-purge"}))
	assert.Nil(t, findSample(mfs, "asooke_housekeeping_last_success_timestamp_seconds", map[string]string{"job": "verification-purge"}))

	skipped, err := fetchCounterValue(mfs, "asooke_housekeeping_cycles_total", "outcome", "skipped")
	require.NoError(t, err)
	assert.Equal(t, 2.0, skipped)
}

func TestHousekeepingMetricsNilSafe(t *testing.T) {
	var m *HousekeepingMetrics
	assert.NotPanics(t, func() {
		m.JobFinished("x", time.Second, nil)
		m.CycleFinished(true)
		NewHousekeepingMetrics(nil).JobFinished("", 0, nil)
	})
}

// findSample returns the metric in family name whose labels include want.
func findSample(mfs []*dto.MetricFamily, name string, want map[string]string) *dto.Metric {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			have := make(map[string]string, len(metric.GetLabel()))
			for _, lp := range metric.GetLabel() {
				have[lp.GetName()] = lp.GetValue()
			}
			for k, v := range want {
				if have[k] != v {
					continue next
				}
			}
			return metric
		}
	}
	return nil
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	metric := findSample(mfs, name, map[string]string{label: value})
	if metric == nil {
		return 0, errors.New(name + " has no sample with " + label + "=" + value)
	}
	return metric.GetCounter().GetValue(), nil
}
