package web

import (
	"net/http"
	"reflect"
	"sort"

	"stock-ledger/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/invopop/jsonschema"
	"github.com/shopspring/decimal"
)

// requestSchemas names every request body the API accepts.
var requestSchemas = map[string]any{
	"account":           app.CreateAccountRequest{},
	"product":           app.CreateProductRequest{},
	"product-category":  app.AssignCategoryRequest{},
	"adjust":            app.AdjustInventoryRequest{},
	"transfer":          app.TransferRequest{},
	"price":             app.UpsertPriceRequest{},
	"category":          app.CategoryRequest{},
	"rfq":               app.CreateRFQRequest{},
	"item":              app.AddItemRequest{},
	"item-update":       app.UpdateItemRequest{},
	"status":            app.StatusRequest{},
	"receive":           app.ReceiveRequest{},
	"vendor-link":       app.VendorLinkRequest{},
	"vendor-link-patch": app.VendorLinkPatch{},
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		// decimal.Decimal travels as a JSON string (or number) holding a base-10 value.
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == decimalType {
				return &jsonschema.Schema{
					Type:    "string",
					Pattern: `^-?[0-9]+(\.[0-9]+)?$`,
				}
			}
			return nil
		},
	}
}

// schemaFor reflects the named request body, or returns nil when unknown.
func schemaFor(name string) *jsonschema.Schema {
	v, ok := requestSchemas[name]
	if !ok {
		return nil
	}
	return newReflector().Reflect(v)
}

// listSchemas handles GET /api/schemas.
func (h *Handler) listSchemas(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(requestSchemas))
	for n := range requestSchemas {
		names = append(names, n)
	}
	sort.Strings(names)
	writeJSON(w, map[string][]string{"schemas": names})
}

// getSchema handles GET /api/schemas/{name}.
func (h *Handler) getSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s := schemaFor(name)
	if s == nil {
		writeError(w, r, "unknown schema "+name, "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, s)
}
