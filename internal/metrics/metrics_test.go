package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.BillPayment("ok")
	m.ExpenseWritten("create")
	m.EventPublished("bill.paid", nil)
	m.ReminderSent()
	m.ObserveRequest("/api/bills", http.MethodGet, 200, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCounters(t *testing.T) {
	m := New()
	m.BillPayment("ok")
	m.BillPayment("duplicate")
	m.BillPayment("duplicate")
	m.EventPublished("bill.paid", errors.New("down"))
	m.ReminderSent()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.billPayments.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.billPayments.WithLabelValues("duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.eventsPublished.WithLabelValues("bill.paid", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.remindersSent))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.ObserveRequest("/api/expenses", http.MethodPost, 201, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `expenses_http_requests_total{method="POST",route="/api/expenses",status="201"} 1`)
}
