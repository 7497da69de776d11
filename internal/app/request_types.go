package app

import (
	"github.com/shopspring/decimal"
)

// Request types double as the HTTP adapter's JSON bodies: adapters decode into
// them, run the validate tags, and publish their JSON Schema under /api/schemas.

// CreateAccountRequest is the input for creating an account.
type CreateAccountRequest struct {
	Name  string `json:"name" validate:"required,max=200"`
	Type  string `json:"account_type" validate:"required,oneof=CUSTOMER VENDOR EMPLOYEE OTHER" jsonschema:"enum=CUSTOMER,enum=VENDOR,enum=EMPLOYEE,enum=OTHER"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// CreateProductRequest is the input for adding a product to the catalog.
type CreateProductRequest struct {
	SKU           string `json:"sku" validate:"required,max=64"`
	Name          string `json:"name" validate:"required,max=200"`
	Description   string `json:"description,omitempty"`
	CategoryID    *int   `json:"category_id,omitempty" validate:"omitempty,gt=0"`
	UnitOfMeasure string `json:"unit_of_measure,omitempty" validate:"omitempty,max=16"`
}

// AssignCategoryRequest sets or, with a null category_id, clears a product's category.
type AssignCategoryRequest struct {
	CategoryID *int `json:"category_id" validate:"omitempty,gt=0"`
}

// AdjustInventoryRequest changes on-hand stock at one location. A zero delta
// with bounds only updates min/max stock and writes no ledger row.
type AdjustInventoryRequest struct {
	ProductID int              `json:"product_id" validate:"required,gt=0"`
	Location  string           `json:"location,omitempty" validate:"omitempty,max=64"`
	Delta     decimal.Decimal  `json:"delta"`
	Type      string           `json:"transaction_type,omitempty" validate:"omitempty,oneof=PURCHASE SALE ADJUSTMENT" jsonschema:"enum=PURCHASE,enum=SALE,enum=ADJUSTMENT"`
	Reference string           `json:"reference,omitempty" validate:"omitempty,max=100"`
	MinStock  *decimal.Decimal `json:"min_stock,omitempty"`
	MaxStock  *decimal.Decimal `json:"max_stock,omitempty"`
}

func (r AdjustInventoryRequest) bounds() bool {
	return r.MinStock != nil || r.MaxStock != nil
}

// TransferRequest moves stock between two locations.
type TransferRequest struct {
	ProductID int             `json:"product_id" validate:"required,gt=0"`
	From      string          `json:"from" validate:"required,max=64"`
	To        string          `json:"to" validate:"required,max=64,nefield=From"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gt=0"`
	Reference string          `json:"reference,omitempty" validate:"omitempty,max=100"`
}

// UpsertPriceRequest inserts or overwrites a price. Dates are YYYY-MM-DD.
type UpsertPriceRequest struct {
	ProductID int             `json:"product_id" validate:"required,gt=0"`
	PriceType string          `json:"price_type" validate:"required,oneof=SALE COST MSRP" jsonschema:"enum=SALE,enum=COST,enum=MSRP"`
	Currency  string          `json:"currency" validate:"required,len=3"`
	Value     decimal.Decimal `json:"value" validate:"gte=0"`
	ValidFrom string          `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo   string          `json:"valid_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// EffectivePriceRequest looks up the price in force on Date. An empty date means today.
type EffectivePriceRequest struct {
	ProductID int    `json:"product_id" validate:"required,gt=0"`
	PriceType string `json:"price_type" validate:"required,oneof=SALE COST MSRP"`
	Currency  string `json:"currency" validate:"required,len=3"`
	Date      string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// CategoryRequest creates a category, renames it, or moves it under ParentID.
type CategoryRequest struct {
	Name     string `json:"name,omitempty" validate:"omitempty,max=100"`
	ParentID *int   `json:"parent_id,omitempty" validate:"omitempty,gt=0"`
}

// CreateRFQRequest opens a request for quotation with a vendor.
type CreateRFQRequest struct {
	VendorID int              `json:"vendor_id" validate:"required,gt=0"`
	Notes    string           `json:"notes,omitempty"`
	Items    []AddItemRequest `json:"items,omitempty" validate:"dive"`
}

// AddItemRequest appends a line to a purchase document.
type AddItemRequest struct {
	ProductID   *int             `json:"product_id,omitempty" validate:"omitempty,gt=0"`
	Description string           `json:"description,omitempty" validate:"required_without=ProductID,max=500"`
	Quantity    decimal.Decimal  `json:"quantity" validate:"gt=0"`
	UnitPrice   *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	Note        string           `json:"note,omitempty"`
}

// UpdateItemRequest patches a line. Omitted fields keep their values.
type UpdateItemRequest struct {
	Description    *string          `json:"description,omitempty" validate:"omitempty,min=1,max=500"`
	Quantity       *decimal.Decimal `json:"quantity,omitempty" validate:"omitempty,gt=0"`
	UnitPrice      *decimal.Decimal `json:"unit_price,omitempty" validate:"omitempty,gte=0"`
	ClearUnitPrice bool             `json:"clear_unit_price,omitempty"`
	Note           *string          `json:"note,omitempty"`
}

// StatusRequest moves a document to Status. Location is used when receiving.
type StatusRequest struct {
	Status   string `json:"status" validate:"required,oneof=RFQ QUOTED PO_ISSUED RECEIVED CLOSED" jsonschema:"enum=RFQ,enum=QUOTED,enum=PO_ISSUED,enum=RECEIVED,enum=CLOSED"`
	Location string `json:"location,omitempty" validate:"omitempty,max=64"`
}

// ReceiveRequest books a purchase order into stock at Location.
type ReceiveRequest struct {
	Location string `json:"location,omitempty" validate:"omitempty,max=64"`
}

// DocumentListRequest narrows ListDocuments.
type DocumentListRequest struct {
	VendorID   *int
	Status     string
	Visibility string
}

// VendorLinkRequest creates or replaces a product-vendor link.
type VendorLinkRequest struct {
	ProductID    int              `json:"product_id" validate:"required,gt=0"`
	VendorID     int              `json:"vendor_id" validate:"required,gt=0"`
	VendorSKU    string           `json:"vendor_sku,omitempty" validate:"omitempty,max=64"`
	LeadTimeDays *int             `json:"lead_time_days,omitempty" validate:"omitempty,gte=0"`
	LastPrice    *decimal.Decimal `json:"last_price,omitempty" validate:"omitempty,gte=0"`
}

// VendorLinkPatch updates a link in place.
type VendorLinkPatch struct {
	VendorSKU    *string          `json:"vendor_sku,omitempty" validate:"omitempty,max=64"`
	LeadTimeDays *int             `json:"lead_time_days,omitempty" validate:"omitempty,gte=0"`
	LastPrice    *decimal.Decimal `json:"last_price,omitempty" validate:"omitempty,gte=0"`
}
