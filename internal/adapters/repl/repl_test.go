package repl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"stock-ledger/internal/app"
	"stock-ledger/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	app.ApplicationService

	rfq *app.CreateRFQRequest
}

func (f *fakeService) CreateRFQ(_ context.Context, req app.CreateRFQRequest) (*app.DocumentResult, error) {
	f.rfq = &req
	items := make([]core.PurchaseDocumentItem, len(req.Items))
	return &app.DocumentResult{Document: &core.PurchaseDocument{
		ID: 11, DocumentNumber: "RFQ-000011", Status: core.StatusRFQ, Items: items,
	}}, nil
}

func (f *fakeService) CategoryPath(_ context.Context, id int) (*app.CategoryPathResult, error) {
	if id == 99 {
		return nil, &core.Error{Kind: core.ErrNotFound, Msg: "category 99 not found"}
	}
	return &app.CategoryPathResult{CategoryID: id, Path: "Hardware > Fasteners"}, nil
}

func runSession(t *testing.T, svc app.ApplicationService, script string) string {
	t.Helper()
	var out bytes.Buffer
	Run(context.Background(), svc, strings.NewReader(script), &out)
	return out.String()
}

func TestRun_DispatchesCommands(t *testing.T) {
	out := runSession(t, &fakeService{}, "/path 4\npath 99\n/bogus\n/exit\n")
	assert.Contains(t, out, "Hardware > Fasteners")
	assert.Contains(t, out, "NOT_FOUND: category 99 not found")
	assert.Contains(t, out, `unknown command "bogus"`)
	assert.Contains(t, out, "Goodbye!")
}

func TestRun_EndsOnEOF(t *testing.T) {
	out := runSession(t, &fakeService{}, "/path 4")
	assert.Contains(t, out, "Hardware > Fasteners")
	assert.NotContains(t, out, "Goodbye!")
}

func TestNewRFQWizard(t *testing.T) {
	svc := &fakeService{}
	script := strings.Join([]string{
		"/new-rfq 7",
		"12 10",
		"- 5 4.50 M8 hex bolts",
		"- 2",
		"abc 1",
		"- 3 - washers",
		"done",
		"urgent",
		"/q",
	}, "\n") + "\n"
	out := runSession(t, svc, script)

	require.NotNil(t, svc.rfq)
	assert.Equal(t, 7, svc.rfq.VendorID)
	assert.Equal(t, "urgent", svc.rfq.Notes)
	require.Len(t, svc.rfq.Items, 3)

	first := svc.rfq.Items[0]
	require.NotNil(t, first.ProductID)
	assert.Equal(t, 12, *first.ProductID)
	assert.Nil(t, first.UnitPrice)

	second := svc.rfq.Items[1]
	assert.Nil(t, second.ProductID)
	assert.Equal(t, "M8 hex bolts", second.Description)
	require.NotNil(t, second.UnitPrice)
	assert.True(t, second.UnitPrice.Equal(decimal.RequireFromString("4.5")))

	assert.Equal(t, "washers", svc.rfq.Items[2].Description)
	assert.Nil(t, svc.rfq.Items[2].UnitPrice)

	assert.Contains(t, out, "Free-text lines need a description.")
	assert.Contains(t, out, "Invalid product id.")
	assert.Contains(t, out, "RFQ-000011 created (ID: 11, Status: RFQ, 3 item(s))")
}

func TestNewRFQWizard_Cancel(t *testing.T) {
	svc := &fakeService{}
	out := runSession(t, svc, "/new-rfq 7\n12 1\ncancel\n/q\n")
	assert.Nil(t, svc.rfq)
	assert.Contains(t, out, "RFQ creation cancelled.")
}

func TestRun_Help(t *testing.T) {
	out := runSession(t, &fakeService{}, "/help\n/q\n")
	assert.Contains(t, out, "new-rfq")
	assert.NotContains(t, out, "usage error")
}
