package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asookemart/asooke-backend/pkg/enums"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckoutMetricsSplitsDuplicates(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCheckoutMetrics(reg)
	m.Initiated()
	m.Confirmed(false)
	m.Confirmed(true)
	m.Confirmed(true)
	m.Failed("confirm", "INVALID_REFERENCE")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	created, err := fetchCounterValue(mfs, "asooke_checkout_confirmed_total", "outcome", "created")
	require.NoError(t, err)
	assert.Equal(t, 1.0, created)

	dupes, err := fetchCounterValue(mfs, "asooke_checkout_confirmed_total", "outcome", "duplicate")
	require.NoError(t, err)
	assert.Equal(t, 2.0, dupes)

	failed, err := fetchCounterValue(mfs, "asooke_checkout_failed_total", "code", "INVALID_REFERENCE")
	require.NoError(t, err)
	assert.Equal(t, 1.0, failed)
}

func TestLedgerMetricsByStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)
	m.Appended(enums.TrackingStatusPlaced)
	m.Rejected(enums.TrackingStatusShipped)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	v, err := fetchCounterValue(mfs, "asooke_ledger_appended_total", "status", "placed")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	v, err = fetchCounterValue(mfs, "asooke_ledger_rejected_total", "status", "shipped")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
}

func TestNilMetricsAreNoops(t *testing.T) {
	var checkout *CheckoutMetrics
	var ledger *LedgerMetrics
	var httpMetrics *HTTPMetrics
	assert.NotPanics(t, func() {
		checkout.Confirmed(true)
		ledger.Appended(enums.TrackingStatusPlaced)
		httpMetrics.Observe("GET", "/", 200, time.Millisecond)
		NewCheckoutMetrics(nil).Initiated()
	})
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewHTTPMetrics(reg).Observe("GET", "/api/v1/products", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `asooke_http_request_duration_seconds_count{method="GET",route="/api/v1/products",status="200"} 1`)
}
