package core

import (
	"strings"
	"time"
)

type AccountType string

const (
	AccountTypeCustomer AccountType = "CUSTOMER"
	AccountTypeVendor   AccountType = "VENDOR"
	AccountTypeEmployee AccountType = "EMPLOYEE"
	AccountTypeOther    AccountType = "OTHER"
)

func ParseAccountType(s string) (AccountType, error) {
	switch t := AccountType(strings.ToUpper(strings.TrimSpace(s))); t {
	case AccountTypeCustomer, AccountTypeVendor, AccountTypeEmployee, AccountTypeOther:
		return t, nil
	}
	return "", validationf("unknown account type %q", s)
}

type PriceType string

const (
	PriceTypeSale PriceType = "SALE"
	PriceTypeCost PriceType = "COST"
	PriceTypeMSRP PriceType = "MSRP"
)

func ParsePriceType(s string) (PriceType, error) {
	switch t := PriceType(strings.ToUpper(strings.TrimSpace(s))); t {
	case PriceTypeSale, PriceTypeCost, PriceTypeMSRP:
		return t, nil
	}
	return "", validationf("unknown price type %q", s)
}

type TransactionType string

const (
	TransactionPurchase   TransactionType = "PURCHASE"
	TransactionSale       TransactionType = "SALE"
	TransactionAdjustment TransactionType = "ADJUSTMENT"
	TransactionTransfer   TransactionType = "TRANSFER"
	TransactionOnOrder    TransactionType = "ON_ORDER"
)

func ParseTransactionType(s string) (TransactionType, error) {
	switch t := TransactionType(strings.ToUpper(strings.TrimSpace(s))); t {
	case TransactionPurchase, TransactionSale, TransactionAdjustment, TransactionTransfer, TransactionOnOrder:
		return t, nil
	}
	return "", validationf("unknown transaction type %q", s)
}

// RecordState is the soft-delete lifecycle of a product or purchase document.
type RecordState string

const (
	StateActive   RecordState = "ACTIVE"
	StateInactive RecordState = "INACTIVE"
)

func recordState(isActive bool) RecordState {
	if isActive {
		return StateActive
	}
	return StateInactive
}

// Visibility is the read policy every list operation must state explicitly.
type Visibility int

const (
	VisibilityActive Visibility = iota
	VisibilityInactive
	VisibilityAny
)

// ParseVisibility accepts "active", "inactive" and "any". An empty string means active.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "active":
		return VisibilityActive, nil
	case "inactive":
		return VisibilityInactive, nil
	case "any", "all":
		return VisibilityAny, nil
	}
	return VisibilityActive, validationf("unknown visibility %q", s)
}

func (v Visibility) String() string {
	switch v {
	case VisibilityInactive:
		return "inactive"
	case VisibilityAny:
		return "any"
	default:
		return "active"
	}
}

// activeArg is the value bound to a "($n::boolean IS NULL OR is_active = $n)" predicate.
func (v Visibility) activeArg() *bool {
	var b bool
	switch v {
	case VisibilityActive:
		b = true
	case VisibilityInactive:
		b = false
	default:
		return nil
	}
	return &b
}

type Account struct {
	ID        int         `json:"id"`
	Name      string      `json:"name"`
	Type      AccountType `json:"account_type"`
	Email     *string     `json:"email,omitempty"`
	State     RecordState `json:"state"`
	CreatedAt time.Time   `json:"created_at"`
}

type Product struct {
	ID            int         `json:"id"`
	SKU           string      `json:"sku"`
	Name          string      `json:"name"`
	Description   *string     `json:"description,omitempty"`
	CategoryID    *int        `json:"category_id,omitempty"`
	UnitOfMeasure string      `json:"unit_of_measure"`
	State         RecordState `json:"state"`
	CreatedAt     time.Time   `json:"created_at"`
}
