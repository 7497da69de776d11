package core

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type DocumentStatus string

const (
	StatusRFQ      DocumentStatus = "RFQ"
	StatusQuoted   DocumentStatus = "QUOTED"
	StatusPOIssued DocumentStatus = "PO_ISSUED"
	StatusReceived DocumentStatus = "RECEIVED"
	StatusClosed   DocumentStatus = "CLOSED"
)

func ParseDocumentStatus(s string) (DocumentStatus, error) {
	switch st := DocumentStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusRFQ, StatusQuoted, StatusPOIssued, StatusReceived, StatusClosed:
		return st, nil
	}
	return "", validationf("unknown document status %q", s)
}

// documentTransitions lists the statuses reachable from each status.
// CLOSED is terminal.
var documentTransitions = map[DocumentStatus][]DocumentStatus{
	StatusRFQ:      {StatusQuoted},
	StatusQuoted:   {StatusRFQ, StatusPOIssued},
	StatusPOIssued: {StatusReceived, StatusQuoted, StatusRFQ},
	StatusReceived: {StatusClosed},
	StatusClosed:   nil,
}

// CanTransition reports whether a document may move from one status to another.
func CanTransition(from, to DocumentStatus) bool {
	for _, s := range documentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Editable reports whether items may be added, changed or removed.
func (s DocumentStatus) Editable() bool {
	return s == StatusRFQ || s == StatusQuoted || s == StatusPOIssued
}

type PurchaseDocument struct {
	ID             int                    `json:"id"`
	DocumentNumber string                 `json:"document_number"`
	RFQNumber      string                 `json:"rfq_number"`
	VendorID       int                    `json:"vendor_id"`
	VendorName     string                 `json:"vendor_name"`
	Status         DocumentStatus         `json:"status"`
	Notes          *string                `json:"notes,omitempty"`
	CreatedDate    time.Time              `json:"created_date"`
	UpdatedAt      time.Time              `json:"updated_at"`
	State          RecordState            `json:"state"`
	Items          []PurchaseDocumentItem `json:"items,omitempty"`
}

type PurchaseDocumentItem struct {
	ID               int              `json:"id"`
	DocumentID       int              `json:"document_id"`
	LineNumber       int              `json:"line_number"`
	ProductID        *int             `json:"product_id,omitempty"`
	Description      string           `json:"description"`
	Quantity         decimal.Decimal  `json:"quantity"`
	UnitPrice        *decimal.Decimal `json:"unit_price,omitempty"`
	TotalPrice       *decimal.Decimal `json:"total_price,omitempty"`
	ReceivedQuantity decimal.Decimal  `json:"received_quantity"`
	Note             *string          `json:"note,omitempty"`
}

// Outstanding is the quantity still expected from the vendor.
func (it PurchaseDocumentItem) Outstanding() decimal.Decimal {
	return it.Quantity.Sub(it.ReceivedQuantity)
}

// ItemInput describes a new line. Description defaults to the product name.
type ItemInput struct {
	ProductID   *int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   *decimal.Decimal
	Note        string
}

// ItemUpdate patches a line. Nil fields are left unchanged; ClearUnitPrice
// removes the price.
type ItemUpdate struct {
	Description    *string
	Quantity       *decimal.Decimal
	UnitPrice      *decimal.Decimal
	ClearUnitPrice bool
	Note           *string
}

// DocumentCriteria narrows List. Visibility is always applied.
type DocumentCriteria struct {
	VendorID   *int
	Status     *DocumentStatus
	Visibility Visibility
}

func validateItemValues(qty decimal.Decimal, price *decimal.Decimal) error {
	if !qty.IsPositive() {
		return validationf("item quantity must be positive, got %s", qty.String())
	}
	if price != nil && price.IsNegative() {
		return validationf("item unit price cannot be negative, got %s", price.String())
	}
	return nil
}

// lineTotal is quantity × unit price, or nil when the line is unpriced.
func lineTotal(qty decimal.Decimal, price *decimal.Decimal) *decimal.Decimal {
	if price == nil {
		return nil
	}
	t := qty.Mul(*price)
	return &t
}

// PurchaseDocumentService drives RFQ/PO documents through
// RFQ → QUOTED → PO_ISSUED → RECEIVED → CLOSED and applies the matching
// on-order and on-hand ledger effects atomically with each status change.
type PurchaseDocumentService interface {
	// CreateRFQ opens a new RFQ for a VENDOR account together with its items,
	// all in one transaction.
	CreateRFQ(ctx context.Context, vendorID int, notes string, items ...ItemInput) (*PurchaseDocument, error)

	// AddItem appends a line. Pricing the first line of an RFQ moves it to QUOTED.
	AddItem(ctx context.Context, documentID int, in ItemInput) (*PurchaseDocumentItem, error)
	// AddItemTx appends a line within a caller-provided transaction.
	AddItemTx(ctx context.Context, tx pgx.Tx, documentID int, in ItemInput) (*PurchaseDocumentItem, error)
	UpdateItem(ctx context.Context, itemID int, upd ItemUpdate) (*PurchaseDocumentItem, error)
	DeleteItem(ctx context.Context, itemID int) error

	// ConvertToPO moves QUOTED → PO_ISSUED, assigns a PO number and puts every
	// product line on order.
	ConvertToPO(ctx context.Context, documentID int) (*PurchaseDocument, error)
	// MarkReceived moves PO_ISSUED → RECEIVED, taking outstanding quantities off
	// order and into on-hand stock at location.
	MarkReceived(ctx context.Context, documentID int, location string) (*PurchaseDocument, error)
	// Close moves RECEIVED → CLOSED. Closed documents never change again.
	Close(ctx context.Context, documentID int) (*PurchaseDocument, error)
	// UpdateStatus is the generic transition entry point. location is used only
	// for PO_ISSUED → RECEIVED.
	UpdateStatus(ctx context.Context, documentID int, to DocumentStatus, location string) (*PurchaseDocument, error)
	// Delete soft-deletes a document in an editable status, reversing any
	// on-order quantities first.
	Delete(ctx context.Context, documentID int) error

	List(ctx context.Context, criteria DocumentCriteria) ([]PurchaseDocument, error)
	Get(ctx context.Context, documentID int) (*PurchaseDocument, error)
	GetItems(ctx context.Context, documentID int) ([]PurchaseDocumentItem, error)
}
