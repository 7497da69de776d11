package web

import (
	"net/http"

	"stock-ledger/internal/app"
)

// linkVendor handles POST /api/vendor-links. An existing (product, vendor)
// link is updated in place.
// Body: { product_id, vendor_id, vendor_sku?, lead_time_days?, last_price? }
func (h *Handler) linkVendor(w http.ResponseWriter, r *http.Request) {
	var req app.VendorLinkRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	link, err := h.svc.LinkVendor(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, link)
}

// updateVendorLink handles PATCH /api/vendor-links/{id}.
func (h *Handler) updateVendorLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.VendorLinkPatch
	if !bindAndValidate(w, r, &req) {
		return
	}
	link, err := h.svc.UpdateVendorLink(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, link)
}

// removeVendorLink handles DELETE /api/vendor-links/{id}.
func (h *Handler) removeVendorLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.RemoveVendorLink(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	noContent(w)
}

// listVendorsForProduct handles GET /api/products/{id}/vendor-links, in
// preference order.
func (h *Handler) listVendorsForProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ListVendorsForProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// listProductsForVendor handles GET /api/accounts/{id}/vendor-links.
func (h *Handler) listProductsForVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.ListProductsForVendor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// preferredVendor handles GET /api/products/{id}/preferred-vendor. A product
// without vendors yields { link: null }.
func (h *Handler) preferredVendor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.PreferredVendor(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
