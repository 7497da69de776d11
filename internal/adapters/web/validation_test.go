package web

import (
	"encoding/json"
	"net/http"
	"testing"

	"stock-ledger/internal/app"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDecimalTags(t *testing.T) {
	neg := decimal.NewFromInt(-1)
	req := app.AddItemRequest{
		Quantity:  decimal.Zero,
		UnitPrice: &neg,
	}
	fields := validationFields(validate.Struct(req))
	assert.Equal(t, "gt", fields["quantity"])
	assert.Equal(t, "gte", fields["unit_price"])
	assert.Equal(t, "required_without", fields["description"])

	productID := 4
	ok := app.AddItemRequest{ProductID: &productID, Quantity: decimal.RequireFromString("0.5")}
	assert.Nil(t, validationFields(validate.Struct(ok)))
}

func TestValidateTransferDistinctLocations(t *testing.T) {
	req := app.TransferRequest{ProductID: 1, From: "MAIN", To: "MAIN", Quantity: decimal.NewFromInt(3)}
	fields := validationFields(validate.Struct(req))
	assert.Equal(t, "nefield", fields["to"])
}

func TestValidateNestedItems(t *testing.T) {
	req := app.CreateRFQRequest{
		VendorID: 2,
		Items:    []app.AddItemRequest{{Description: "bolts", Quantity: decimal.NewFromInt(-3)}},
	}
	fields := validationFields(validate.Struct(req))
	assert.Equal(t, "gt", fields["items[0].quantity"])
}

func TestSchemaEndpoint(t *testing.T) {
	h := newTestHandler(&fakeService{}, nil)

	rec := do(t, h, http.MethodGet, "/api/schemas/transfer", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var schema struct {
		Type                 string                    `json:"type"`
		Required             []string                  `json:"required"`
		Properties           map[string]map[string]any `json:"properties"`
		AdditionalProperties *bool                     `json:"additionalProperties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Equal(t, "object", schema.Type)
	assert.Contains(t, schema.Required, "from")
	assert.Equal(t, "string", schema.Properties["quantity"]["type"])
	require.NotNil(t, schema.AdditionalProperties)
	assert.False(t, *schema.AdditionalProperties)

	rec = do(t, h, http.MethodGet, "/api/schemas/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/schemas", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"vendor-link-patch"`)
}
