package web

import (
	"net/http"
	"strconv"
	"strings"

	"stock-ledger/internal/app"
	"stock-ledger/internal/metrics"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const defaultBodyLimit = 1 << 20

// Options configures NewHandler. Zero values disable the optional pieces.
type Options struct {
	AllowedOrigins []string
	BodyLimit      int64
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.BodyLimit <= 0 {
		opts.BodyLimit = defaultBodyLimit
	}

	h := &Handler{svc: svc}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(opts.Logger))
	r.Use(Recoverer)
	r.Use(Metrics(opts.Metrics))
	r.Use(CORS(opts.AllowedOrigins))

	r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		// ── Operational ───────────────────────────────────────────────────────
		r.Get("/health", h.health)
		r.Get("/schemas", h.listSchemas)
		r.Get("/schemas/{name}", h.getSchema)

		r.Group(func(r chi.Router) {
			r.Use(RequestBodyLimit(opts.BodyLimit))

			// ── Accounts & catalog ────────────────────────────────────────────────
			r.Get("/accounts", h.listAccounts)
			r.Post("/accounts", h.createAccount)
			r.Get("/accounts/{id}/vendor-links", h.listProductsForVendor)

			r.Get("/products", h.listProducts)
			r.Post("/products", h.createProduct)
			r.Route("/products/{id}", func(r chi.Router) {
				r.Get("/", h.getProduct)
				r.Delete("/", h.deactivateProduct)
				r.Put("/category", h.assignCategory)
				r.Get("/stock", h.productStock)
				r.Get("/inventory/{location}", h.inventoryAtLocation)
				r.Get("/prices", h.listPrices)
				r.Get("/prices/effective", h.effectivePrice)
				r.Get("/vendor-links", h.listVendorsForProduct)
				r.Get("/preferred-vendor", h.preferredVendor)
			})

			// ── Inventory & ledger ────────────────────────────────────────────────
			r.Post("/inventory/adjust", h.adjustInventory)
			r.Post("/inventory/transfer", h.transferInventory)
			r.Get("/inventory/low-stock", h.lowStock)
			r.Get("/inventory/transactions", h.listTransactions)

			// ── Pricing ───────────────────────────────────────────────────────────
			r.Post("/prices", h.upsertPrice)
			r.Delete("/prices/{id}", h.deletePrice)

			// ── Categories ────────────────────────────────────────────────────────
			r.Get("/categories", h.listCategories)
			r.Post("/categories", h.createCategory)
			r.Get("/categories/tree", h.categoryTree)
			r.Get("/categories/{id}/path", h.categoryPath)
			r.Put("/categories/{id}/name", h.renameCategory)
			r.Put("/categories/{id}/parent", h.moveCategory)
			r.Delete("/categories/{id}", h.deleteCategory)

			// ── Purchase documents ────────────────────────────────────────────────
			r.Get("/documents", h.listDocuments)
			r.Post("/documents", h.createRFQ)
			r.Route("/documents/{id}", func(r chi.Router) {
				r.Get("/", h.getDocument)
				r.Delete("/", h.deleteDocument)
				r.Get("/items", h.getDocumentItems)
				r.Post("/items", h.addDocumentItem)
				r.Post("/convert", h.convertToPO)
				r.Post("/receive", h.markReceived)
				r.Post("/close", h.closeDocument)
				r.Post("/status", h.updateDocumentStatus)
			})
			r.Patch("/document-items/{id}", h.updateDocumentItem)
			r.Delete("/document-items/{id}", h.deleteDocumentItem)

			// ── Vendor links ──────────────────────────────────────────────────────
			r.Post("/vendor-links", h.linkVendor)
			r.Patch("/vendor-links/{id}", h.updateVendorLink)
			r.Delete("/vendor-links/{id}", h.removeVendorLink)
		})
	})

	h.router = r
	return r
}

// health reports service status and database reachability.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status   string `json:"status"`
		Database string `json:"database"`
	}
	if err := h.svc.Ping(r.Context()); err != nil {
		writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "degraded", Database: "unreachable"})
		return
	}
	writeJSON(w, response{Status: "ok", Database: "ok"})
}

// pathID parses a positive integer URL parameter. On failure it writes a 400
// and returns false.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		writeError(w, r, "invalid "+name+": "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// queryInt parses an optional positive integer query parameter. A missing
// parameter yields nil.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (*int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		writeError(w, r, "invalid "+name+": "+raw, "BAD_REQUEST", http.StatusBadRequest)
		return nil, false
	}
	return &v, true
}

func noContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
