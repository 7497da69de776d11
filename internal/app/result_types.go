package app

import (
	"stock-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// AccountListResult is returned by ListAccounts.
type AccountListResult struct {
	Accounts []core.Account `json:"accounts"`
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product `json:"products"`
}

// ProductStockResult is a product's stock picture: per-location records, the
// on-hand total and the on-order level derived from the ledger.
type ProductStockResult struct {
	ProductID int                    `json:"product_id"`
	Records   []core.InventoryRecord `json:"records"`
	OnHand    decimal.Decimal        `json:"on_hand"`
	Locations int                    `json:"locations"`
	OnOrder   decimal.Decimal        `json:"on_order"`
}

// LowStockResult is returned by CheckLowStock.
type LowStockResult struct {
	Alerts []core.LowStockAlert `json:"alerts"`
}

// TransactionListResult is returned by ListTransactions, newest first.
type TransactionListResult struct {
	Transactions []core.InventoryTransaction `json:"transactions"`
}

// PriceListResult is returned by ListPrices.
type PriceListResult struct {
	Prices []core.PriceRecord `json:"prices"`
}

// CategoryListResult is returned by ListCategories.
type CategoryListResult struct {
	Categories []core.Category `json:"categories"`
}

// CategoryTreeResult is returned by CategoryTree.
type CategoryTreeResult struct {
	Roots []*core.CategoryNode `json:"roots"`
}

// CategoryPathResult is returned by CategoryPath.
type CategoryPathResult struct {
	CategoryID int    `json:"category_id"`
	Path       string `json:"path"`
}

// CategoryDeleteResult reports how many products lost their category.
type CategoryDeleteResult struct {
	CategoryID         int   `json:"category_id"`
	ProductsUnassigned int64 `json:"products_unassigned"`
}

// DocumentResult is returned by purchase document lifecycle operations.
// Document.Items is populated.
type DocumentResult struct {
	Document *core.PurchaseDocument `json:"document"`
}

// DocumentListResult is returned by ListDocuments. Items are not loaded.
type DocumentListResult struct {
	Documents []core.PurchaseDocument `json:"documents"`
}

// VendorLinkListResult is returned by the vendor link listings, in preference order.
type VendorLinkListResult struct {
	Links []core.VendorLink `json:"links"`
}

// PreferredVendorResult carries the preferred link, or nil when the product has
// no vendors.
type PreferredVendorResult struct {
	ProductID int              `json:"product_id"`
	Link      *core.VendorLink `json:"link"`
}
