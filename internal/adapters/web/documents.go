package web

import (
	"net/http"

	"stock-ledger/internal/app"
)

// listDocuments handles GET /api/documents?vendor_id=&status=&visibility=.
func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	vendorID, ok := queryInt(w, r, "vendor_id")
	if !ok {
		return
	}
	q := r.URL.Query()
	result, err := h.svc.ListDocuments(r.Context(), app.DocumentListRequest{
		VendorID:   vendorID,
		Status:     q.Get("status"),
		Visibility: q.Get("visibility"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createRFQ handles POST /api/documents.
// Body: { vendor_id, notes?, items?: [{product_id?, description?, quantity, unit_price?, note?}] }
func (h *Handler) createRFQ(w http.ResponseWriter, r *http.Request) {
	var req app.CreateRFQRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	result, err := h.svc.CreateRFQ(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result.Document)
}

// getDocument handles GET /api/documents/{id}.
func (h *Handler) getDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.GetDocument(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Document)
}

// getDocumentItems handles GET /api/documents/{id}/items.
func (h *Handler) getDocumentItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	items, err := h.svc.GetDocumentItems(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, items)
}

// deleteDocument handles DELETE /api/documents/{id}.
func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteDocument(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	noContent(w)
}

// addDocumentItem handles POST /api/documents/{id}/items.
func (h *Handler) addDocumentItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.AddItemRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	item, err := h.svc.AddDocumentItem(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, item)
}

// updateDocumentItem handles PATCH /api/document-items/{id}.
func (h *Handler) updateDocumentItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.UpdateItemRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	item, err := h.svc.UpdateDocumentItem(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, item)
}

// deleteDocumentItem handles DELETE /api/document-items/{id}.
func (h *Handler) deleteDocumentItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteDocumentItem(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	noContent(w)
}

// convertToPO handles POST /api/documents/{id}/convert.
func (h *Handler) convertToPO(w http.ResponseWriter, r *http.Request) {
	h.documentAction(w, r, func(id int) (*app.DocumentResult, error) {
		return h.svc.ConvertToPO(r.Context(), id)
	})
}

// markReceived handles POST /api/documents/{id}/receive.
// Body (optional): { location }
func (h *Handler) markReceived(w http.ResponseWriter, r *http.Request) {
	var req app.ReceiveRequest
	if r.ContentLength > 0 && !bindAndValidate(w, r, &req) {
		return
	}
	h.documentAction(w, r, func(id int) (*app.DocumentResult, error) {
		return h.svc.MarkReceived(r.Context(), id, req)
	})
}

// closeDocument handles POST /api/documents/{id}/close.
func (h *Handler) closeDocument(w http.ResponseWriter, r *http.Request) {
	h.documentAction(w, r, func(id int) (*app.DocumentResult, error) {
		return h.svc.CloseDocument(r.Context(), id)
	})
}

// updateDocumentStatus handles POST /api/documents/{id}/status.
// Body: { status, location? }
func (h *Handler) updateDocumentStatus(w http.ResponseWriter, r *http.Request) {
	var req app.StatusRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	h.documentAction(w, r, func(id int) (*app.DocumentResult, error) {
		return h.svc.UpdateDocumentStatus(r.Context(), id, req)
	})
}

// documentAction runs a lifecycle transition for the {id} document and writes
// the resulting document.
func (h *Handler) documentAction(w http.ResponseWriter, r *http.Request, fn func(id int) (*app.DocumentResult, error)) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := fn(id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result.Document)
}
