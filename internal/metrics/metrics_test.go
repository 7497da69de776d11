package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	m := New()
	m.RecordOperation("adjust_stock", "ok")
	m.RecordOperation("adjust_stock", "ok")
	m.RecordOperation("adjust_stock", "INSUFFICIENT_STOCK")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("adjust_stock", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("adjust_stock", "INSUFFICIENT_STOCK")))
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/products/{id}", 200, 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/products/{id}", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.httpDuration))
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RecordOperation("convert_to_po", "ok")
	m.TrackOperation("convert_to_po")(time.Now())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `stock_ledger_operations_total{operation="convert_to_po",outcome="ok"} 1`)
	assert.Contains(t, string(body), "stock_ledger_operation_duration_seconds")
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordOperation("x", "ok")
		m.ObserveHTTP("GET", "/", 200, time.Second)
		m.TrackOperation("x")(time.Now())
		assert.Nil(t, m.Registry())
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
