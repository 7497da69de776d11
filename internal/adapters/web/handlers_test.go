package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"stock-ledger/internal/app"
	"stock-ledger/internal/core"
	"stock-ledger/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService implements only what the tests exercise; any other call panics
// on the nil embedded interface and surfaces through Recoverer as a 500.
type fakeService struct {
	app.ApplicationService

	pingErr    error
	adjustErr  error
	adjustReq  app.AdjustInventoryRequest
	receiveReq app.ReceiveRequest
	receiveErr error
	preferred  *core.VendorLink
}

func (f *fakeService) Ping(context.Context) error { return f.pingErr }

func (f *fakeService) AdjustInventory(_ context.Context, req app.AdjustInventoryRequest) (*core.InventoryRecord, error) {
	f.adjustReq = req
	if f.adjustErr != nil {
		return nil, f.adjustErr
	}
	return &core.InventoryRecord{ID: 1, ProductID: req.ProductID, Location: "MAIN", Quantity: req.Delta}, nil
}

func (f *fakeService) MarkReceived(_ context.Context, id int, req app.ReceiveRequest) (*app.DocumentResult, error) {
	f.receiveReq = req
	if f.receiveErr != nil {
		return nil, f.receiveErr
	}
	return &app.DocumentResult{Document: &core.PurchaseDocument{ID: id, DocumentNumber: "PO-000001", Status: core.StatusReceived}}, nil
}

func (f *fakeService) PreferredVendor(_ context.Context, productID int) (*app.PreferredVendorResult, error) {
	return &app.PreferredVendorResult{ProductID: productID, Link: f.preferred}, nil
}

func newTestHandler(svc app.ApplicationService, m *metrics.Metrics) http.Handler {
	return NewHandler(svc, Options{
		AllowedOrigins: []string{"https://ops.example.com"},
		BodyLimit:      256,
		Metrics:        m,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestHandler(&fakeService{}, nil), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","database":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = do(t, newTestHandler(&fakeService{pingErr: errors.New("down")}, nil), http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdjustInventory_Success(t *testing.T) {
	svc := &fakeService{}
	rec := do(t, newTestHandler(svc, nil), http.MethodPost, "/api/inventory/adjust",
		`{"product_id":7,"delta":"12.5","reference":"count"}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 7, svc.adjustReq.ProductID)
	assert.True(t, svc.adjustReq.Delta.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, "count", svc.adjustReq.Reference)
}

func TestAdjustInventory_ValidationFields(t *testing.T) {
	rec := do(t, newTestHandler(&fakeService{}, nil), http.MethodPost, "/api/inventory/adjust",
		`{"product_id":0,"delta":"1","transaction_type":"ON_ORDER"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, core.CodeValidation, resp.Code)
	assert.Equal(t, "required", resp.Fields["product_id"])
	assert.Equal(t, "oneof", resp.Fields["transaction_type"])
}

func TestAdjustInventory_ErrorKinds(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient", &core.Error{Kind: core.ErrInsufficientStock, Msg: "on hand 20"}, http.StatusUnprocessableEntity, core.CodeInsufficientStock},
		{"not found", &core.Error{Kind: core.ErrNotFound, Msg: "product 9 not found"}, http.StatusNotFound, core.CodeNotFound},
		{"validation", &core.Error{Kind: core.ErrValidation, Msg: "location is required"}, http.StatusBadRequest, core.CodeValidation},
		{"storage", &core.Error{Kind: core.ErrStorage, Msg: "update inventory", Err: errors.New("conn refused")}, http.StatusInternalServerError, core.CodeStorage},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, newTestHandler(&fakeService{adjustErr: tc.err}, nil), http.MethodPost,
				"/api/inventory/adjust", `{"product_id":9,"delta":"-25"}`)
			require.Equal(t, tc.status, rec.Code)
			resp := decodeError(t, rec)
			assert.Equal(t, tc.code, resp.Code)
			assert.NotEmpty(t, resp.RequestID)
			if tc.status == http.StatusInternalServerError {
				assert.NotContains(t, resp.Error, "conn refused")
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	h := newTestHandler(&fakeService{}, nil)

	rec := do(t, h, http.MethodPost, "/api/inventory/adjust", `{"product_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/inventory/adjust", `{"product_id":1,"delta":"1","bogus":true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/inventory/adjust",
		`{"product_id":1,"delta":"1","reference":"`+strings.Repeat("x", 400)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestMarkReceived_OptionalBody(t *testing.T) {
	svc := &fakeService{}
	h := newTestHandler(svc, nil)

	rec := do(t, h, http.MethodPost, "/api/documents/4/receive", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, svc.receiveReq.Location)

	rec = do(t, h, http.MethodPost, "/api/documents/4/receive", `{"location":"dock-2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dock-2", svc.receiveReq.Location)

	var doc core.PurchaseDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, core.StatusReceived, doc.Status)
}

func TestMarkReceived_InvalidTransition(t *testing.T) {
	svc := &fakeService{receiveErr: &core.Error{Kind: core.ErrInvalidTransition, Msg: "cannot move CLOSED to RECEIVED"}}
	rec := do(t, newTestHandler(svc, nil), http.MethodPost, "/api/documents/4/receive", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, core.CodeInvalidTransition, decodeError(t, rec).Code)
}

func TestPathIDRejectsGarbage(t *testing.T) {
	rec := do(t, newTestHandler(&fakeService{}, nil), http.MethodPost, "/api/documents/abc/receive", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPreferredVendor_None(t *testing.T) {
	rec := do(t, newTestHandler(&fakeService{}, nil), http.MethodGet, "/api/products/3/preferred-vendor", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"product_id":3,"link":null}`, rec.Body.String())
}

func TestUnimplementedCallRecovers(t *testing.T) {
	rec := do(t, newTestHandler(&fakeService{}, nil), http.MethodGet, "/api/categories/tree", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "INTERNAL_ERROR", decodeError(t, rec).Code)
}

func TestRequestIDPropagation(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec := httptest.NewRecorder()
	newTestHandler(&fakeService{}, nil).ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "bad id with spaces")
	rec = httptest.NewRecorder()
	newTestHandler(&fakeService{}, nil).ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id with spaces", rec.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	h := newTestHandler(&fakeService{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/inventory/adjust", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	m := metrics.New()
	h := newTestHandler(&fakeService{}, m)

	do(t, h, http.MethodGet, "/api/products/3/preferred-vendor", "")
	do(t, h, http.MethodGet, "/api/products/4/preferred-vendor", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(),
		`stock_ledger_http_requests_total{method="GET",path="/api/products/{id}/preferred-vendor",status="200"} 2`)

	// One series per route pattern: preferred-vendor and the /metrics scrape itself.
	n, err := testutil.GatherAndCount(m.Registry(), "stock_ledger_http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetricsEndpointWithoutCollectors(t *testing.T) {
	rec := do(t, newTestHandler(&fakeService{}, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusForCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusForCode(core.CodeValidation))
	assert.Equal(t, http.StatusNotFound, statusForCode(core.CodeNotFound))
	assert.Equal(t, http.StatusConflict, statusForCode(core.CodeInvalidTransition))
	assert.Equal(t, http.StatusConflict, statusForCode(core.CodeConflict))
	assert.Equal(t, http.StatusUnprocessableEntity, statusForCode(core.CodeInsufficientStock))
	assert.Equal(t, http.StatusInternalServerError, statusForCode(core.CodeStorage))
}
