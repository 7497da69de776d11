package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryTransaction is one immutable row of the inventory ledger.
type InventoryTransaction struct {
	ID             int64           `json:"id"`
	ProductID      int             `json:"product_id"`
	Location       *string         `json:"location,omitempty"`
	QuantityChange decimal.Decimal `json:"quantity_change"`
	Type           TransactionType `json:"transaction_type"`
	Reference      string          `json:"reference"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TransactionInput describes a ledger append. Location is optional.
type TransactionInput struct {
	ProductID      int
	Location       string
	QuantityChange decimal.Decimal
	Type           TransactionType
	Reference      string
}

// StockMovement is an on-hand change driven by a business event.
type StockMovement struct {
	ProductID int
	Location  string
	Delta     decimal.Decimal
	Type      TransactionType
	Reference string
	// Bounds optionally updates min/max stock in the same write.
	Bounds StockBounds
}

// TransactionFilter narrows ListTransactions. Zero values match everything.
type TransactionFilter struct {
	ProductID *int
	Type      *TransactionType
	Limit     int
}

const defaultTransactionLimit = 100

// LedgerService records inventory-affecting events and answers aggregate
// on-hand and on-order queries derived from them.
type LedgerService interface {
	RecordTransaction(ctx context.Context, in TransactionInput) (*InventoryTransaction, error)
	RecordPurchaseOrder(ctx context.Context, productID int, delta decimal.Decimal, reference string) (*InventoryTransaction, error)
	AdjustStock(ctx context.Context, m StockMovement) (*InventoryRecord, error)
	TransferStock(ctx context.Context, productID int, from, to string, qty decimal.Decimal, reference string) (*TransferResult, error)
	GetOnOrderLevel(ctx context.Context, productID int) (decimal.Decimal, error)
	GetOnHandLevel(ctx context.Context, productID int) (decimal.Decimal, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]InventoryTransaction, error)
}

// Ledger is the append-only inventory transaction log. AdjustStock is the only
// path by which business events change on-hand quantity.
type Ledger struct {
	pool      *pgxpool.Pool
	inventory InventoryService
	events    EventPublisher
	logger    *zap.Logger
}

func NewLedger(pool *pgxpool.Pool, inventory InventoryService, events EventPublisher, logger *zap.Logger) *Ledger {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ledger{pool: pool, inventory: inventory, events: events, logger: logger}
}

var _ LedgerService = (*Ledger)(nil)

func (l *Ledger) RecordTransaction(ctx context.Context, in TransactionInput) (*InventoryTransaction, error) {
	var out *InventoryTransaction
	err := runInTx(ctx, l.pool, func(tx pgx.Tx) error {
		var err error
		out, err = l.RecordTransactionTx(ctx, tx, in)
		return err
	})
	return out, err
}

// RecordTransactionTx appends a ledger row inside tx. It never touches prior rows.
func (l *Ledger) RecordTransactionTx(ctx context.Context, tx pgx.Tx, in TransactionInput) (*InventoryTransaction, error) {
	typ, err := ParseTransactionType(string(in.Type))
	if err != nil {
		return nil, err
	}
	if in.QuantityChange.IsZero() {
		return nil, validationf("quantity change must be non-zero")
	}

	var location *string
	if loc := normalizeLocation(in.Location); loc != "" {
		location = &loc
	}

	var t InventoryTransaction
	var typStr string
	err = tx.QueryRow(ctx, `
		INSERT INTO inventory_transactions (product_id, location, quantity_change, transaction_type, reference)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, product_id, location, quantity_change, transaction_type, reference, created_at
	`, in.ProductID, location, in.QuantityChange, string(typ), strings.TrimSpace(in.Reference)).Scan(
		&t.ID, &t.ProductID, &t.Location, &t.QuantityChange, &typStr, &t.Reference, &t.CreatedAt,
	)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("record %s transaction for product %d", typ, in.ProductID), err)
	}
	t.Type = typ
	return &t, nil
}

func (l *Ledger) RecordPurchaseOrder(ctx context.Context, productID int, delta decimal.Decimal, reference string) (*InventoryTransaction, error) {
	var out *InventoryTransaction
	err := runInTx(ctx, l.pool, func(tx pgx.Tx) error {
		var err error
		out, err = l.RecordPurchaseOrderTx(ctx, tx, productID, delta, reference)
		return err
	})
	return out, err
}

// RecordPurchaseOrderTx records an on-order delta: positive when a PO line is
// issued, negative when it is reversed or received. On-hand is untouched.
func (l *Ledger) RecordPurchaseOrderTx(ctx context.Context, tx pgx.Tx, productID int, delta decimal.Decimal, reference string) (*InventoryTransaction, error) {
	return l.RecordTransactionTx(ctx, tx, TransactionInput{
		ProductID:      productID,
		QuantityChange: delta,
		Type:           TransactionOnOrder,
		Reference:      reference,
	})
}

func (l *Ledger) AdjustStock(ctx context.Context, m StockMovement) (*InventoryRecord, error) {
	var rec *InventoryRecord
	err := runInTx(ctx, l.pool, func(tx pgx.Tx) error {
		var err error
		rec, err = l.AdjustStockTx(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("stock adjusted",
		zap.Int("product_id", m.ProductID),
		zap.String("location", rec.Location),
		zap.String("type", string(m.Type)),
		zap.String("delta", m.Delta.String()),
		zap.String("reference", m.Reference),
	)
	notify(ctx, l.events, l.logger, newEvent(EventInventoryAdjusted, map[string]any{
		"product_id": rec.ProductID,
		"location":   rec.Location,
		"delta":      m.Delta.String(),
		"quantity":   rec.Quantity.String(),
		"type":       string(m.Type),
		"reference":  m.Reference,
	}))
	notifyLowStock(ctx, l.events, l.logger, *rec)
	return rec, nil
}

// AdjustStockTx mutates the store and appends the matching ledger row in tx.
func (l *Ledger) AdjustStockTx(ctx context.Context, tx pgx.Tx, m StockMovement) (*InventoryRecord, error) {
	typ, err := ParseTransactionType(string(m.Type))
	if err != nil {
		return nil, err
	}
	if typ == TransactionOnOrder {
		return nil, validationf("on-order changes do not affect on-hand stock; use RecordPurchaseOrder")
	}
	if m.Delta.IsZero() {
		return nil, validationf("stock adjustment must be non-zero")
	}

	rec, err := l.inventory.AdjustInventoryTx(ctx, tx, m.ProductID, m.Location, m.Delta, m.Bounds)
	if err != nil {
		return nil, err
	}
	if _, err := l.RecordTransactionTx(ctx, tx, TransactionInput{
		ProductID:      m.ProductID,
		Location:       rec.Location,
		QuantityChange: m.Delta,
		Type:           typ,
		Reference:      m.Reference,
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

// TransferStock moves stock between locations and records a TRANSFER pair.
func (l *Ledger) TransferStock(ctx context.Context, productID int, from, to string, qty decimal.Decimal, reference string) (*TransferResult, error) {
	var res *TransferResult
	err := runInTx(ctx, l.pool, func(tx pgx.Tx) error {
		var err error
		res, err = l.inventory.TransferInventoryTx(ctx, tx, productID, from, to, qty)
		if err != nil {
			return err
		}
		for _, leg := range []struct {
			loc   string
			delta decimal.Decimal
		}{
			{res.From.Location, qty.Neg()},
			{res.To.Location, qty},
		} {
			if _, err := l.RecordTransactionTx(ctx, tx, TransactionInput{
				ProductID:      productID,
				Location:       leg.loc,
				QuantityChange: leg.delta,
				Type:           TransactionTransfer,
				Reference:      reference,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("stock transferred",
		zap.Int("product_id", productID),
		zap.String("from", res.From.Location),
		zap.String("to", res.To.Location),
		zap.String("quantity", qty.String()),
	)
	notify(ctx, l.events, l.logger, newEvent(EventInventoryTransferred, map[string]any{
		"product_id": productID,
		"from":       res.From.Location,
		"to":         res.To.Location,
		"quantity":   qty.String(),
		"reference":  reference,
	}))
	notifyLowStock(ctx, l.events, l.logger, res.From)
	return res, nil
}

// GetOnOrderLevel sums every ON_ORDER delta for the product. It is recomputed
// from the log on each call.
func (l *Ledger) GetOnOrderLevel(ctx context.Context, productID int) (decimal.Decimal, error) {
	if _, err := requireProduct(ctx, l.pool, productID); err != nil {
		return decimal.Zero, err
	}
	return onOrderLevel(ctx, l.pool, productID)
}

func onOrderLevel(ctx context.Context, q querier, productID int) (decimal.Decimal, error) {
	var level decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity_change), 0)
		FROM inventory_transactions
		WHERE product_id = $1 AND transaction_type = $2
	`, productID, string(TransactionOnOrder)).Scan(&level)
	if err != nil {
		return decimal.Zero, storageErr(fmt.Sprintf("sum on-order level for product %d", productID), err)
	}
	return level, nil
}

func (l *Ledger) GetOnHandLevel(ctx context.Context, productID int) (decimal.Decimal, error) {
	total, err := totalInventory(ctx, l.pool, productID)
	if err != nil {
		return decimal.Zero, err
	}
	return total.Quantity, nil
}

// ListTransactions returns ledger rows newest first.
func (l *Ledger) ListTransactions(ctx context.Context, filter TransactionFilter) ([]InventoryTransaction, error) {
	var typ *string
	if filter.Type != nil {
		t, err := ParseTransactionType(string(*filter.Type))
		if err != nil {
			return nil, err
		}
		v := string(t)
		typ = &v
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultTransactionLimit
	}

	rows, err := l.pool.Query(ctx, `
		SELECT id, product_id, location, quantity_change, transaction_type, reference, created_at
		FROM inventory_transactions
		WHERE ($1::int IS NULL OR product_id = $1)
		  AND ($2::text IS NULL OR transaction_type = $2)
		ORDER BY id DESC
		LIMIT $3
	`, filter.ProductID, typ, limit)
	if err != nil {
		return nil, storageErr("query inventory transactions", err)
	}
	defer rows.Close()

	var out []InventoryTransaction
	for rows.Next() {
		var t InventoryTransaction
		var typStr string
		if err := rows.Scan(&t.ID, &t.ProductID, &t.Location, &t.QuantityChange, &typStr, &t.Reference, &t.CreatedAt); err != nil {
			return nil, storageErr("scan inventory transaction", err)
		}
		if t.Type, err = ParseTransactionType(typStr); err != nil {
			return nil, storageErr(fmt.Sprintf("inventory transaction %d", t.ID), err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate inventory transactions", err)
	}
	return out, nil
}
