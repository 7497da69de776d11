package core

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// VendorLink pairs a product with a supplier account. A (product, vendor) pair
// exists at most once and is updated in place.
type VendorLink struct {
	ID           int              `json:"id"`
	ProductID    int              `json:"product_id"`
	VendorID     int              `json:"vendor_id"`
	VendorName   string           `json:"vendor_name"`
	VendorSKU    *string          `json:"vendor_sku,omitempty"`
	LeadTimeDays *int             `json:"lead_time_days,omitempty"`
	LastPrice    *decimal.Decimal `json:"last_price,omitempty"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// VendorLinkInput creates a link or replaces the attributes of an existing one.
type VendorLinkInput struct {
	ProductID    int
	VendorID     int
	VendorSKU    string
	LeadTimeDays *int
	LastPrice    *decimal.Decimal
}

// VendorLinkUpdate patches a link. Nil fields are left unchanged.
type VendorLinkUpdate struct {
	VendorSKU    *string
	LeadTimeDays *int
	LastPrice    *decimal.Decimal
}

func validateLinkTerms(leadTime *int, price *decimal.Decimal) error {
	if leadTime != nil && *leadTime < 0 {
		return validationf("lead time cannot be negative, got %d", *leadTime)
	}
	if price != nil && price.IsNegative() {
		return validationf("last price cannot be negative, got %s", price.String())
	}
	return nil
}

func (in VendorLinkInput) sku() *string {
	return nullableText(in.VendorSKU)
}

// sortVendorLinks orders links by preference: cheapest last price first, then
// shortest lead time, then lowest link id. Unknown price or lead time sorts
// after any known value. The ordering is total, so the result does not depend
// on input order.
func sortVendorLinks(links []VendorLink) {
	sort.SliceStable(links, func(i, j int) bool {
		a, b := links[i], links[j]
		if c := compareNullableDecimal(a.LastPrice, b.LastPrice); c != 0 {
			return c < 0
		}
		if c := compareNullableInt(a.LeadTimeDays, b.LeadTimeDays); c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})
}

// compareNullableDecimal orders nil after every value.
func compareNullableDecimal(a, b *decimal.Decimal) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return a.Cmp(*b)
}

func compareNullableInt(a, b *int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case *a < *b:
		return -1
	case *a > *b:
		return 1
	}
	return 0
}

// VendorService manages product-vendor links and resolves the preferred
// supplier for a product.
type VendorService interface {
	// LinkVendor creates the (product, vendor) link, or updates it when it exists.
	LinkVendor(ctx context.Context, in VendorLinkInput) (*VendorLink, error)
	UpdateLink(ctx context.Context, linkID int, upd VendorLinkUpdate) (*VendorLink, error)
	RemoveLink(ctx context.Context, linkID int) error

	// ListForProduct returns the product's links in preference order.
	ListForProduct(ctx context.Context, productID int) ([]VendorLink, error)
	ListForVendor(ctx context.Context, vendorID int) ([]VendorLink, error)

	// PreferredVendor returns the first link in preference order, or nil when
	// the product has no vendors.
	PreferredVendor(ctx context.Context, productID int) (*VendorLink, error)
}
