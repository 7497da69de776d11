package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryRecord is the stock held for one product at one location.
type InventoryRecord struct {
	ID        int              `json:"id"`
	ProductID int              `json:"product_id"`
	Location  string           `json:"location"`
	Quantity  decimal.Decimal  `json:"quantity"`
	MinStock  decimal.Decimal  `json:"min_stock"`
	MaxStock  *decimal.Decimal `json:"max_stock,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// IsLow reports whether the record is below its minimum stock level.
// A zero minimum never reports low stock.
func (r InventoryRecord) IsLow() bool {
	return r.Quantity.LessThan(r.MinStock)
}

// StockBounds carries optional min/max updates. Nil fields keep the stored value.
type StockBounds struct {
	MinStock *decimal.Decimal
	MaxStock *decimal.Decimal
}

func (b StockBounds) validate() error {
	if b.MinStock != nil && b.MinStock.IsNegative() {
		return validationf("min stock cannot be negative, got %s", b.MinStock)
	}
	if b.MaxStock != nil && b.MaxStock.IsNegative() {
		return validationf("max stock cannot be negative, got %s", b.MaxStock)
	}
	return nil
}

// InventoryTotal aggregates a product's stock across every location.
type InventoryTotal struct {
	ProductID int             `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	Locations int             `json:"locations"`
}

// TransferResult holds both sides of a completed transfer.
type TransferResult struct {
	From InventoryRecord `json:"from"`
	To   InventoryRecord `json:"to"`
}

// LowStockFilter narrows CheckLowStock. Zero values match everything.
type LowStockFilter struct {
	ProductID *int
	Location  string
}

// LowStockAlert is a (product, location) pair below its minimum.
type LowStockAlert struct {
	ProductID   int             `json:"product_id"`
	SKU         string          `json:"sku"`
	ProductName string          `json:"product_name"`
	Location    string          `json:"location"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinStock    decimal.Decimal `json:"min_stock"`
}
