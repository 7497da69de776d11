package web

import (
	"net/http"

	"stock-ledger/internal/app"
)

// listAccounts handles GET /api/accounts?type=VENDOR&visibility=any.
func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.ListAccounts(r.Context(), q.Get("type"), q.Get("visibility"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createAccount handles POST /api/accounts.
func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	var req app.CreateAccountRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	acct, err := h.svc.CreateAccount(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, acct)
}

// listProducts handles GET /api/products?visibility=active.
func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListProducts(r.Context(), r.URL.Query().Get("visibility"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createProduct handles POST /api/products.
func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req app.CreateProductRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, p)
}

// getProduct handles GET /api/products/{id}.
func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	p, err := h.svc.GetProduct(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// deactivateProduct handles DELETE /api/products/{id}.
func (h *Handler) deactivateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateProduct(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	noContent(w)
}

// assignCategory handles PUT /api/products/{id}/category.
// Body: { category_id: int | null }
func (h *Handler) assignCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.AssignCategoryRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	p, err := h.svc.AssignCategory(r.Context(), id, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// ── Categories ────────────────────────────────────────────────────────────────

// listCategories handles GET /api/categories.
func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// categoryTree handles GET /api/categories/tree.
func (h *Handler) categoryTree(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.CategoryTree(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// createCategory handles POST /api/categories.
// Body: { name, parent_id? }
func (h *Handler) createCategory(w http.ResponseWriter, r *http.Request) {
	var req app.CategoryRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeValidationError(w, r, map[string]string{"name": "required"})
		return
	}
	c, err := h.svc.CreateCategory(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

// categoryPath handles GET /api/categories/{id}/path.
func (h *Handler) categoryPath(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.CategoryPath(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// renameCategory handles PUT /api/categories/{id}/name.
// Body: { name }
func (h *Handler) renameCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.CategoryRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeValidationError(w, r, map[string]string{"name": "required"})
		return
	}
	c, err := h.svc.RenameCategory(r.Context(), id, req.Name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, c)
}

// moveCategory handles PUT /api/categories/{id}/parent.
// Body: { parent_id: int | null }; null makes the category a root.
func (h *Handler) moveCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req app.CategoryRequest
	if !bindAndValidate(w, r, &req) {
		return
	}
	c, err := h.svc.MoveCategory(r.Context(), id, req.ParentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, c)
}

// deleteCategory handles DELETE /api/categories/{id}.
func (h *Handler) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := h.svc.DeleteCategory(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}
