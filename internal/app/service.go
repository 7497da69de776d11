package app

import (
	"context"

	"stock-ledger/internal/core"
)

// ApplicationService is the single interface all adapters (CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// Ping reports whether the database is reachable.
	Ping(ctx context.Context) error

	// ── Accounts & catalog ────────────────────────────────────────────────────

	CreateAccount(ctx context.Context, req CreateAccountRequest) (*core.Account, error)
	// ListAccounts filters by account type when accountType is non-empty.
	ListAccounts(ctx context.Context, accountType, visibility string) (*AccountListResult, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (*core.Product, error)
	GetProduct(ctx context.Context, id int) (*core.Product, error)
	ListProducts(ctx context.Context, visibility string) (*ProductListResult, error)
	DeactivateProduct(ctx context.Context, id int) error
	AssignCategory(ctx context.Context, productID int, req AssignCategoryRequest) (*core.Product, error)

	// ── Inventory & ledger ────────────────────────────────────────────────────

	// AdjustInventory applies a stock change through the ledger. An empty
	// location means the configured default location.
	AdjustInventory(ctx context.Context, req AdjustInventoryRequest) (*core.InventoryRecord, error)
	TransferInventory(ctx context.Context, req TransferRequest) (*core.TransferResult, error)
	GetInventoryAtLocation(ctx context.Context, productID int, location string) (*core.InventoryRecord, error)
	// GetProductStock returns every location record plus on-hand and on-order totals.
	GetProductStock(ctx context.Context, productID int) (*ProductStockResult, error)
	CheckLowStock(ctx context.Context, filter core.LowStockFilter) (*LowStockResult, error)
	ListTransactions(ctx context.Context, filter core.TransactionFilter) (*TransactionListResult, error)

	// ── Pricing ───────────────────────────────────────────────────────────────

	UpsertPrice(ctx context.Context, req UpsertPriceRequest) (*core.PriceRecord, error)
	// GetEffectivePrice returns NotFound when no price is in force on the date.
	GetEffectivePrice(ctx context.Context, req EffectivePriceRequest) (*core.PriceRecord, error)
	ListPrices(ctx context.Context, productID int, filter core.PriceFilter) (*PriceListResult, error)
	DeletePrice(ctx context.Context, priceID int) error

	// ── Categories ────────────────────────────────────────────────────────────

	CreateCategory(ctx context.Context, req CategoryRequest) (*core.Category, error)
	RenameCategory(ctx context.Context, id int, name string) (*core.Category, error)
	// MoveCategory reparents a category. A nil parent makes it a root.
	MoveCategory(ctx context.Context, id int, parentID *int) (*core.Category, error)
	DeleteCategory(ctx context.Context, id int) (*CategoryDeleteResult, error)
	ListCategories(ctx context.Context) (*CategoryListResult, error)
	CategoryTree(ctx context.Context) (*CategoryTreeResult, error)
	CategoryPath(ctx context.Context, id int) (*CategoryPathResult, error)

	// ── Purchase documents ────────────────────────────────────────────────────

	// CreateRFQ opens an RFQ and adds any initial items. A priced initial item
	// moves the document to QUOTED.
	CreateRFQ(ctx context.Context, req CreateRFQRequest) (*DocumentResult, error)
	AddDocumentItem(ctx context.Context, documentID int, req AddItemRequest) (*core.PurchaseDocumentItem, error)
	UpdateDocumentItem(ctx context.Context, itemID int, req UpdateItemRequest) (*core.PurchaseDocumentItem, error)
	DeleteDocumentItem(ctx context.Context, itemID int) error
	ConvertToPO(ctx context.Context, documentID int) (*DocumentResult, error)
	// MarkReceived books the PO into stock. An empty location means the
	// configured default location.
	MarkReceived(ctx context.Context, documentID int, req ReceiveRequest) (*DocumentResult, error)
	CloseDocument(ctx context.Context, documentID int) (*DocumentResult, error)
	UpdateDocumentStatus(ctx context.Context, documentID int, req StatusRequest) (*DocumentResult, error)
	DeleteDocument(ctx context.Context, documentID int) error
	ListDocuments(ctx context.Context, req DocumentListRequest) (*DocumentListResult, error)
	GetDocument(ctx context.Context, documentID int) (*DocumentResult, error)
	GetDocumentItems(ctx context.Context, documentID int) ([]core.PurchaseDocumentItem, error)

	// ── Vendor links ──────────────────────────────────────────────────────────

	LinkVendor(ctx context.Context, req VendorLinkRequest) (*core.VendorLink, error)
	UpdateVendorLink(ctx context.Context, linkID int, req VendorLinkPatch) (*core.VendorLink, error)
	RemoveVendorLink(ctx context.Context, linkID int) error
	ListVendorsForProduct(ctx context.Context, productID int) (*VendorLinkListResult, error)
	ListProductsForVendor(ctx context.Context, vendorID int) (*VendorLinkListResult, error)
	PreferredVendor(ctx context.Context, productID int) (*PreferredVendorResult, error)
}
