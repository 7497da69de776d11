package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService is the price/inventory record store for (product, location) stock.
// Quantities never go negative: a mutation that would do so is rejected in full.
type InventoryService interface {
	// Standalone operations (manage their own transactions).

	// AdjustInventory applies delta to the record, creating it on first use.
	// Bounds left nil keep their stored values.
	AdjustInventory(ctx context.Context, productID int, location string, delta decimal.Decimal, bounds StockBounds) (*InventoryRecord, error)
	// TransferInventory moves qty from one location to another as a single unit.
	TransferInventory(ctx context.Context, productID int, from, to string, qty decimal.Decimal) (*TransferResult, error)
	GetInventoryAtLocation(ctx context.Context, productID int, location string) (*InventoryRecord, error)
	GetAllInventoryForProduct(ctx context.Context, productID int) ([]InventoryRecord, error)
	GetTotalInventory(ctx context.Context, productID int) (*InventoryTotal, error)
	// CheckLowStock returns every record whose quantity is below its min_stock.
	CheckLowStock(ctx context.Context, filter LowStockFilter) ([]LowStockAlert, error)

	// TX-scoped operations: work within a caller-provided transaction.
	// Used by the Ledger and PurchaseDocumentService to keep stock changes atomic
	// with ledger appends and document status changes.

	AdjustInventoryTx(ctx context.Context, tx pgx.Tx, productID int, location string, delta decimal.Decimal, bounds StockBounds) (*InventoryRecord, error)
	TransferInventoryTx(ctx context.Context, tx pgx.Tx, productID int, from, to string, qty decimal.Decimal) (*TransferResult, error)
}

type inventoryService struct {
	pool   *pgxpool.Pool
	events EventPublisher
	logger *zap.Logger
}

func NewInventoryService(pool *pgxpool.Pool, events EventPublisher, logger *zap.Logger) InventoryService {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &inventoryService{pool: pool, events: events, logger: logger}
}

// ── Standalone operations ─────────────────────────────────────────────────────

func (s *inventoryService) AdjustInventory(ctx context.Context, productID int, location string, delta decimal.Decimal, bounds StockBounds) (*InventoryRecord, error) {
	var rec *InventoryRecord
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		rec, err = s.AdjustInventoryTx(ctx, tx, productID, location, delta, bounds)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory adjusted",
		zap.Int("product_id", productID),
		zap.String("location", rec.Location),
		zap.String("delta", delta.String()),
		zap.String("quantity", rec.Quantity.String()),
	)
	s.afterAdjust(ctx, *rec, delta)
	return rec, nil
}

func (s *inventoryService) TransferInventory(ctx context.Context, productID int, from, to string, qty decimal.Decimal) (*TransferResult, error) {
	var res *TransferResult
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		res, err = s.TransferInventoryTx(ctx, tx, productID, from, to, qty)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory transferred",
		zap.Int("product_id", productID),
		zap.String("from", res.From.Location),
		zap.String("to", res.To.Location),
		zap.String("quantity", qty.String()),
	)
	notify(ctx, s.events, s.logger, newEvent(EventInventoryTransferred, map[string]any{
		"product_id": productID,
		"from":       res.From.Location,
		"to":         res.To.Location,
		"quantity":   qty.String(),
	}))
	notifyLowStock(ctx, s.events, s.logger, res.From)
	return res, nil
}

func (s *inventoryService) GetInventoryAtLocation(ctx context.Context, productID int, location string) (*InventoryRecord, error) {
	location = normalizeLocation(location)
	rec, err := scanInventoryRecord(s.pool.QueryRow(ctx, `
		SELECT id, product_id, location, quantity, min_stock, max_stock, updated_at
		FROM product_inventory
		WHERE product_id = $1 AND location = $2
	`, productID, location))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("no inventory for product %d at location %s", productID, location)
		}
		return nil, storageErr("fetch inventory record", err)
	}
	return rec, nil
}

func (s *inventoryService) GetAllInventoryForProduct(ctx context.Context, productID int) ([]InventoryRecord, error) {
	if _, err := requireProduct(ctx, s.pool, productID); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, product_id, location, quantity, min_stock, max_stock, updated_at
		FROM product_inventory
		WHERE product_id = $1
		ORDER BY location
	`, productID)
	if err != nil {
		return nil, storageErr("query inventory records", err)
	}
	defer rows.Close()

	var records []InventoryRecord
	for rows.Next() {
		rec, err := scanInventoryRecord(rows)
		if err != nil {
			return nil, storageErr("scan inventory record", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate inventory records", err)
	}
	return records, nil
}

func (s *inventoryService) GetTotalInventory(ctx context.Context, productID int) (*InventoryTotal, error) {
	return totalInventory(ctx, s.pool, productID)
}

func totalInventory(ctx context.Context, q querier, productID int) (*InventoryTotal, error) {
	if _, err := requireProduct(ctx, q, productID); err != nil {
		return nil, err
	}

	total := &InventoryTotal{ProductID: productID}
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(quantity), 0), COUNT(*)
		FROM product_inventory
		WHERE product_id = $1
	`, productID).Scan(&total.Quantity, &total.Locations)
	if err != nil {
		return nil, storageErr("sum inventory", err)
	}
	return total, nil
}

func (s *inventoryService) CheckLowStock(ctx context.Context, filter LowStockFilter) ([]LowStockAlert, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT p.id, p.sku, p.name, i.location, i.quantity, i.min_stock
		FROM product_inventory i
		JOIN products p ON p.id = i.product_id
		WHERE i.quantity < i.min_stock
		  AND ($1::int IS NULL OR i.product_id = $1)
		  AND ($2 = '' OR i.location = $2)
		ORDER BY p.sku, i.location
	`, filter.ProductID, normalizeLocation(filter.Location))
	if err != nil {
		return nil, storageErr("query low stock", err)
	}
	defer rows.Close()

	var alerts []LowStockAlert
	for rows.Next() {
		var a LowStockAlert
		if err := rows.Scan(&a.ProductID, &a.SKU, &a.ProductName, &a.Location, &a.Quantity, &a.MinStock); err != nil {
			return nil, storageErr("scan low stock row", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate low stock rows", err)
	}
	return alerts, nil
}

// ── TX-scoped operations ──────────────────────────────────────────────────────

// AdjustInventoryTx reads the current record under a row lock, computes the new
// quantity and writes it back. Nothing is written when the result would be negative.
func (s *inventoryService) AdjustInventoryTx(ctx context.Context, tx pgx.Tx, productID int, location string, delta decimal.Decimal, bounds StockBounds) (*InventoryRecord, error) {
	location = normalizeLocation(location)
	if location == "" {
		return nil, validationf("location is required")
	}
	if err := bounds.validate(); err != nil {
		return nil, err
	}
	if _, err := requireProduct(ctx, tx, productID); err != nil {
		return nil, err
	}

	current, err := lockInventoryRecord(ctx, tx, productID, location)
	if err != nil {
		return nil, err
	}

	newQty := current.Quantity.Add(delta)
	if newQty.IsNegative() {
		return nil, insufficientStockf("product %d at %s: on hand %s, requested change %s",
			productID, location, current.Quantity.String(), delta.String())
	}

	minStock := current.MinStock
	if bounds.MinStock != nil {
		minStock = *bounds.MinStock
	}
	maxStock := current.MaxStock
	if bounds.MaxStock != nil {
		maxStock = bounds.MaxStock
	}
	if maxStock != nil && minStock.GreaterThan(*maxStock) {
		return nil, validationf("min stock %s exceeds max stock %s", minStock.String(), maxStock.String())
	}

	rec, err := scanInventoryRecord(tx.QueryRow(ctx, `
		UPDATE product_inventory
		SET quantity = $1, min_stock = $2, max_stock = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING id, product_id, location, quantity, min_stock, max_stock, updated_at
	`, newQty, minStock, maxStock, current.ID))
	if err != nil {
		return nil, storageErr(fmt.Sprintf("update inventory for product %d at %s", productID, location), err)
	}
	return rec, nil
}

// TransferInventoryTx decrements the source and increments the destination inside
// tx. Both rows are locked in location order so concurrent transfers in opposite
// directions cannot deadlock. If either step fails the caller's rollback restores
// the source.
func (s *inventoryService) TransferInventoryTx(ctx context.Context, tx pgx.Tx, productID int, from, to string, qty decimal.Decimal) (*TransferResult, error) {
	from, to = normalizeLocation(from), normalizeLocation(to)
	if !qty.IsPositive() {
		return nil, validationf("transfer quantity must be positive, got %s", qty.String())
	}
	if from == "" || to == "" {
		return nil, validationf("transfer requires both source and destination locations")
	}
	if from == to {
		return nil, validationf("transfer source and destination are both %s", from)
	}
	if _, err := requireProduct(ctx, tx, productID); err != nil {
		return nil, err
	}

	locs := []string{from, to}
	sort.Strings(locs)
	for _, loc := range locs {
		if _, err := lockInventoryRecord(ctx, tx, productID, loc); err != nil {
			return nil, err
		}
	}

	src, err := s.AdjustInventoryTx(ctx, tx, productID, from, qty.Neg(), StockBounds{})
	if err != nil {
		return nil, fmt.Errorf("transfer from %s: %w", from, err)
	}
	dst, err := s.AdjustInventoryTx(ctx, tx, productID, to, qty, StockBounds{})
	if err != nil {
		return nil, fmt.Errorf("transfer to %s: %w", to, err)
	}
	return &TransferResult{From: *src, To: *dst}, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

// lockInventoryRecord returns the (product, location) row locked FOR UPDATE,
// inserting a zero row first when none exists. The insert is undone with the
// transaction if the caller's mutation is rejected.
func lockInventoryRecord(ctx context.Context, tx pgx.Tx, productID int, location string) (*InventoryRecord, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO product_inventory (product_id, location, quantity, min_stock)
		VALUES ($1, $2, 0, 0)
		ON CONFLICT (product_id, location) DO NOTHING
	`, productID, location); err != nil {
		return nil, storageErr("initialise inventory record", err)
	}

	rec, err := scanInventoryRecord(tx.QueryRow(ctx, `
		SELECT id, product_id, location, quantity, min_stock, max_stock, updated_at
		FROM product_inventory
		WHERE product_id = $1 AND location = $2
		FOR UPDATE
	`, productID, location))
	if err != nil {
		return nil, storageErr("lock inventory record", err)
	}
	return rec, nil
}

func scanInventoryRecord(row pgx.Row) (*InventoryRecord, error) {
	var r InventoryRecord
	if err := row.Scan(&r.ID, &r.ProductID, &r.Location, &r.Quantity, &r.MinStock, &r.MaxStock, &r.UpdatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func normalizeLocation(location string) string {
	return strings.ToUpper(strings.TrimSpace(location))
}

func (s *inventoryService) afterAdjust(ctx context.Context, rec InventoryRecord, delta decimal.Decimal) {
	notify(ctx, s.events, s.logger, newEvent(EventInventoryAdjusted, map[string]any{
		"product_id": rec.ProductID,
		"location":   rec.Location,
		"delta":      delta.String(),
		"quantity":   rec.Quantity.String(),
	}))
	notifyLowStock(ctx, s.events, s.logger, rec)
}
