package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expensetracker/internal/auth"
	"expensetracker/internal/core"
	"expensetracker/internal/metrics"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/report"
	"expensetracker/internal/services"
	"expensetracker/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "http-test-secret-0123456789"

type testServer struct {
	srv   *Server
	store *memory.Store
	jwt   *auth.JWTManager
	now   time.Time
	token string
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("db down") }

func newTestServer(t *testing.T, limiter *ratelimit.Limiter) *testServer {
	t.Helper()
	ts := &testServer{
		store: memory.New(),
		jwt:   auth.NewJWTManager(testSecret, time.Hour),
		now:   time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC),
	}
	svc := services.New(services.Deps{
		Store: ts.store,
		Clock: core.ClockFunc(func() time.Time { return ts.now }),
	})
	ts.srv = NewServer(":0", Options{
		Services: svc,
		Store:    ts.store,
		Auth:     ts.jwt,
		Metrics:  metrics.New(),
		Limiter:  limiter,
	})
	token, err := ts.jwt.Generate("owner-1")
	require.NoError(t, err)
	ts.token = token
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[ErrorBody](t, rec).Error.Code
}

func TestHealthAndReady(t *testing.T) {
	ts := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := httptest.NewRecorder()
		ts.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	}

	ts.srv.store = failingPinger{}
	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, ErrCodeUnavailable, errorCode(t, rec))
}

func TestAPIRequiresToken(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/expenses", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, ErrCodeUnauthorized, errorCode(t, rec))

	ts.token = "garbage"
	rec = ts.do(t, http.MethodGet, "/api/bills", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpenseEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/expenses",
		`{"item":"Lunch","amount":"250.50","category":"Food","payment_mode":"upi","date":"2024-03-09"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.Expense](t, rec)
	assert.Equal(t, core.Food, created.Category)
	assert.Equal(t, int64(25050), created.Amount.Cents)

	rec = ts.do(t, http.MethodGet, "/api/expenses/"+created.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Lunch", decode[core.Expense](t, rec).Item)

	rec = ts.do(t, http.MethodGet, "/api/expenses?from=2024-03-09&to=2024-03-09&category=food", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct{ Expenses []core.Expense }](t, rec)
	assert.Len(t, list.Expenses, 1)

	rec = ts.do(t, http.MethodGet, "/api/expenses?from=2024-03-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"expenses":[]}`, rec.Body.String())

	rec = ts.do(t, http.MethodPut, "/api/expenses/"+created.ID,
		`{"item":"Dinner","amount":300,"category":"food","payment_mode":"card"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Dinner", decode[core.Expense](t, rec).Item)

	rec = ts.do(t, http.MethodDelete, "/api/expenses/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/expenses/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrCodeNotFound, errorCode(t, rec))
}

func TestExpenseEndpoints_BadInput(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{"malformed json", http.MethodPost, "/api/expenses", `{"item":`, http.StatusBadRequest, ErrCodeBadRequest},
		{"empty body", http.MethodPost, "/api/expenses", ``, http.StatusBadRequest, ErrCodeBadRequest},
		{"unknown field", http.MethodPost, "/api/expenses", `{"item":"x","colour":"red"}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"two objects", http.MethodPost, "/api/expenses", `{"item":"x"}{"item":"y"}`, http.StatusBadRequest, ErrCodeBadRequest},
		{"zero amount", http.MethodPost, "/api/expenses", `{"item":"x","amount":0,"category":"food","payment_mode":"cash"}`, http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"bad amount", http.MethodPost, "/api/expenses", `{"item":"x","amount":"ten","category":"food","payment_mode":"cash"}`, http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"bad category", http.MethodPost, "/api/expenses", `{"item":"x","amount":1,"category":"rent","payment_mode":"cash"}`, http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"bad date", http.MethodPost, "/api/expenses", `{"item":"x","amount":1,"category":"food","payment_mode":"cash","date":"09/03/2024"}`, http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"bad list date", http.MethodGet, "/api/expenses?from=yesterday", "", http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"reversed range", http.MethodGet, "/api/expenses?from=2024-03-10&to=2024-03-01", "", http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"bad limit", http.MethodGet, "/api/expenses?limit=many", "", http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"bad list category", http.MethodGet, "/api/expenses?category=rent", "", http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"amount above maximum", http.MethodPost, "/api/expenses", `{"item":"x","amount":10000000001,"category":"food","payment_mode":"cash"}`, http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"amount beyond int64", http.MethodPost, "/api/expenses", `{"item":"x","amount":1e20,"category":"food","payment_mode":"cash"}`, http.StatusUnprocessableEntity, ErrCodeInvalidInput},
		{"oversized body", http.MethodPost, "/api/expenses", `{"item":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge},
		{"oversized bill body", http.MethodPost, "/api/bills", `{"name":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge},
		{"bad trend granularity", http.MethodGet, "/api/reports/trend?granularity=yearly", "", http.StatusUnprocessableEntity, ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestBillPaymentEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/bills", `{"name":"WiFi","amount":999,"due_day":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bill := decode[core.Bill](t, rec)
	assert.True(t, bill.Active)

	rec = ts.do(t, http.MethodGet, "/api/bills/status?period=2024-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	before := decode[services.BillOverviewResult](t, rec)
	require.Len(t, before.Bills, 1)
	assert.Equal(t, core.StatusOverdue, before.Bills[0].Status)

	rec = ts.do(t, http.MethodPost, "/api/bills/"+bill.ID+"/pay", `{"payment_mode":"UPI","paid_at":"2024-03-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	receipt := decode[services.PaymentReceipt](t, rec)
	assert.Equal(t, core.Bills, receipt.Expense.Category)
	assert.Equal(t, "Bill Payment: WiFi", receipt.Expense.Item)
	assert.Equal(t, "Recurring bill payment for 2024-03", receipt.Expense.Notes)

	rec = ts.do(t, http.MethodPost, "/api/bills/"+bill.ID+"/pay", `{"payment_mode":"cash"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ErrCodeDuplicatePayment, errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/api/bills/status", "")
	after := decode[services.BillOverviewResult](t, rec)
	assert.Equal(t, core.StatusPaid, after.Bills[0].Status)
	assert.Equal(t, 1, after.Stats.Paid)

	rec = ts.do(t, http.MethodGet, "/api/bills/payments?period=2024-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	payments := decode[struct{ Payments []core.BillPayment }](t, rec)
	require.Len(t, payments.Payments, 1)
	assert.Equal(t, "WiFi", payments.Payments[0].BillName)

	rec = ts.do(t, http.MethodGet, "/api/bills/payments?period=2024-02", "")
	assert.JSONEq(t, `{"payments":[]}`, rec.Body.String())
}

func TestBillEndpoints_Errors(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/bills/missing/pay", `{"payment_mode":"cash"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/bills", `{"name":"Rent","amount":100,"due_day":32}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "due_day", decode[ErrorBody](t, rec).Error.Field)

	rec = ts.do(t, http.MethodPost, "/api/bills", `{"name":"Rent","amount":100,"due_day":1}`)
	bill := decode[core.Bill](t, rec)
	rec = ts.do(t, http.MethodPost, "/api/bills/"+bill.ID+"/pay", `{"payment_mode":"cheque"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/bills/status?period=March", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "period", decode[ErrorBody](t, rec).Error.Field)
}

func TestBillEndpoints_ListAndDelete(t *testing.T) {
	ts := newTestServer(t, nil)

	ts.do(t, http.MethodPost, "/api/bills", `{"name":"Gym","amount":50,"due_day":20,"is_active":false}`)
	rec := ts.do(t, http.MethodPost, "/api/bills", `{"name":"Rent","amount":100,"due_day":1}`)
	rent := decode[core.Bill](t, rec)

	rec = ts.do(t, http.MethodGet, "/api/bills", "")
	assert.Len(t, decode[struct{ Bills []core.Bill }](t, rec).Bills, 1)

	rec = ts.do(t, http.MethodGet, "/api/bills?all=true", "")
	assert.Len(t, decode[struct{ Bills []core.Bill }](t, rec).Bills, 2)

	rec = ts.do(t, http.MethodPut, "/api/bills/"+rent.ID, `{"name":"Rent","amount":120,"due_day":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[core.Bill](t, rec).DueDay)

	rec = ts.do(t, http.MethodDelete, "/api/bills/"+rent.ID, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/bills/"+rent.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[core.UserSettings](t, rec)
	assert.Equal(t, int64(5_000_000), st.MonthlyBudget.Cents)

	rec = ts.do(t, http.MethodPut, "/api/settings", `{"monthly_budget":"1000","start_of_week":0}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	st = decode[core.UserSettings](t, rec)
	assert.Equal(t, int64(100_000), st.MonthlyBudget.Cents)
	assert.Equal(t, time.Sunday, st.StartOfWeek)
	assert.True(t, st.NotificationsEnabled)

	rec = ts.do(t, http.MethodPut, "/api/settings", `{"start_of_week":9}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestReportEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/expenses", `{"item":"Bus","amount":40,"category":"transport","payment_mode":"cash","date":"2024-03-10"}`)
	ts.do(t, http.MethodPost, "/api/expenses", `{"item":"Milk","amount":60,"category":"groceries","payment_mode":"cash","date":"2024-02-20"}`)

	rec := ts.do(t, http.MethodGet, "/api/reports/monthly?period=2024-03", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"2024-03"`)

	rec = ts.do(t, http.MethodGet, "/api/reports/compare?period=2024-03", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cmp := decode[services.ComparisonReport](t, rec)
	assert.Equal(t, "2024-02", cmp.Previous.String())

	rec = ts.do(t, http.MethodGet, "/api/reports/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[map[string]json.RawMessage](t, rec)
	assert.Contains(t, dash, "summary")
	assert.Equal(t, "null", string(dash["month_end_report"]))

	rec = ts.do(t, http.MethodGet, "/api/reports/monthly?period=2024-13", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/reports/trend?granularity=monthly", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	trend := decode[[]report.TrendPoint](t, rec)
	require.Len(t, trend, 2)
	assert.Equal(t, "2024-02", trend[0].Label)
	assert.Equal(t, int64(4000), trend[1].Amount.Cents)

	var summary struct {
		Summary report.Dashboard `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(ts.do(t, http.MethodGet, "/api/reports/dashboard", "").Body.Bytes(), &summary))
	assert.NotEmpty(t, summary.Summary.Suggestions)
}

func TestMonthEndReportFlow(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/reports/month-end", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pending":false}`, rec.Body.String())

	ts.now = time.Date(2024, time.April, 2, 9, 0, 0, 0, time.UTC)

	rec = ts.do(t, http.MethodGet, "/api/reports/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[map[string]json.RawMessage](t, rec)
	assert.NotEqual(t, "null", string(dash["month_end_report"]))

	rec = ts.do(t, http.MethodGet, "/api/reports/month-end", "")
	resp := decode[monthEndResponse](t, rec)
	require.True(t, resp.Pending)
	assert.Equal(t, "2024-03", resp.Report.Period.String())

	rec = ts.do(t, http.MethodDelete, "/api/reports/month-end", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/reports/month-end", "")
	assert.JSONEq(t, `{"pending":false}`, rec.Body.String())
}

func TestOwnersAreIsolated(t *testing.T) {
	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodPost, "/api/bills", `{"name":"Rent","amount":100,"due_day":1}`)
	bill := decode[core.Bill](t, rec)

	other, err := ts.jwt.Generate("owner-2")
	require.NoError(t, err)
	ts.token = other

	rec = ts.do(t, http.MethodGet, "/api/bills/"+bill.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = ts.do(t, http.MethodPost, "/api/bills/"+bill.ID+"/pay", `{"payment_mode":"cash"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitedWrites(t *testing.T) {
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerSecond: 0.001, Burst: 1})
	ts := newTestServer(t, limiter)
	defer ts.srv.Shutdown(context.Background())

	body := `{"item":"x","amount":1,"category":"food","payment_mode":"cash"}`
	rec := ts.do(t, http.MethodPost, "/api/expenses", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/expenses", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, ErrCodeRateLimited, errorCode(t, rec))

	rec = ts.do(t, http.MethodGet, "/api/expenses", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrCodeNotFound, errorCode(t, rec))

	rec = ts.do(t, http.MethodPatch, "/api/settings", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodGet, "/api/bills/some-id", "")

	rec := httptest.NewRecorder()
	ts.srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/bills/{id}"`)
}

func TestRecoverMiddleware(t *testing.T) {
	h := recoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeInternal, errorCode(t, rec))
}
