package web

import (
	"net/http"
	"strconv"
	"strings"

	"stock-ledger/internal/app"
	"stock-ledger/internal/core"

	"github.com/go-chi/chi/v5"
)

// productStock handles GET /api/products/{id}/stock.
func (h *Handler) productStock(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetProductStock(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// inventoryAtLocation handles GET /api/products/{id}/inventory/{location}.
func (h *Handler) inventoryAtLocation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	rec, err := h.svc.GetInventoryAtLocation(r.Context(), id, chi.URLParam(r, "location"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rec)
}

// adjustInventory handles POST /api/inventory/adjust.
// Body: { product_id, location?, delta, transaction_type?, reference?, min_stock?, max_stock? }
func (h *Handler) adjustInventory(w http.ResponseWriter, r *http.Request) {
	var req app.AdjustInventoryRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	rec, err := h.svc.AdjustInventory(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rec)
}

// transferInventory handles POST /api/inventory/transfer.
// Body: { product_id, from, to, quantity, reference? }
func (h *Handler) transferInventory(w http.ResponseWriter, r *http.Request) {
	var req app.TransferRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	res, err := h.svc.TransferInventory(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// lowStock handles GET /api/inventory/low-stock?product_id=&location=.
func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := queryInt(w, r, "product_id")
	if !ok {
		return
	}
	result, err := h.svc.CheckLowStock(r.Context(), core.LowStockFilter{
		ProductID: productID,
		Location:  r.URL.Query().Get("location"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listTransactions handles GET /api/inventory/transactions?product_id=&type=&limit=.
func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter := core.TransactionFilter{}
	var ok bool
	if filter.ProductID, ok = queryInt(w, r, "product_id"); !ok {
		return
	}
	if t := strings.TrimSpace(r.URL.Query().Get("type")); t != "" {
		typ := core.TransactionType(strings.ToUpper(t))
		filter.Type = &typ
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, r, "invalid limit: "+raw, "BAD_REQUEST", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}
	result, err := h.svc.ListTransactions(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// ── Pricing ───────────────────────────────────────────────────────────────────

// upsertPrice handles POST /api/prices.
// Body: { product_id, price_type, currency, value, valid_from, valid_to? }
func (h *Handler) upsertPrice(w http.ResponseWriter, r *http.Request) {
	var req app.UpsertPriceRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	rec, err := h.svc.UpsertPrice(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rec)
}

// deletePrice handles DELETE /api/prices/{id}.
func (h *Handler) deletePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeletePrice(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	noContent(w)
}

// listPrices handles GET /api/products/{id}/prices?price_type=&currency=.
func (h *Handler) listPrices(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	filter := core.PriceFilter{Currency: r.URL.Query().Get("currency")}
	if pt := strings.TrimSpace(r.URL.Query().Get("price_type")); pt != "" {
		typ, err := core.ParsePriceType(pt)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		filter.PriceType = &typ
	}
	result, err := h.svc.ListPrices(r.Context(), id, filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// effectivePrice handles GET /api/products/{id}/prices/effective?price_type=SALE&currency=USD&date=.
func (h *Handler) effectivePrice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	req := app.EffectivePriceRequest{
		ProductID: id,
		PriceType: strings.ToUpper(q.Get("price_type")),
		Currency:  strings.ToUpper(q.Get("currency")),
		Date:      q.Get("date"),
	}
	if fields := validationFields(validate.Struct(req)); fields != nil {
		writeValidationError(w, r, fields)
		return
	}
	rec, err := h.svc.GetEffectivePrice(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, rec)
}
