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

type purchaseDocumentService struct {
	pool   *pgxpool.Pool
	ledger *Ledger
	events EventPublisher
	logger *zap.Logger
}

// NewPurchaseDocumentService constructs a PurchaseDocumentService backed by PostgreSQL.
// Ledger effects are written through ledger inside each operation's transaction.
func NewPurchaseDocumentService(pool *pgxpool.Pool, ledger *Ledger, events EventPublisher, logger *zap.Logger) PurchaseDocumentService {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &purchaseDocumentService{pool: pool, ledger: ledger, events: events, logger: logger}
}

// statusChange records a committed transition for logging and events.
type statusChange struct {
	from, to DocumentStatus
}

// CreateRFQ validates the vendor, allocates a fresh RFQ number and adds items
// in the same transaction. A failing item rolls back the whole document.
func (s *purchaseDocumentService) CreateRFQ(ctx context.Context, vendorID int, notes string, items ...ItemInput) (*PurchaseDocument, error) {
	for i, in := range items {
		if err := validateItemValues(in.Quantity, in.UnitPrice); err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
	}

	var doc *PurchaseDocument
	var change *statusChange
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := requireVendor(ctx, tx, vendorID); err != nil {
			return err
		}
		number, err := allocateDocumentNumberTx(ctx, tx, RFQNumberPrefix)
		if err != nil {
			return err
		}

		var id int
		if err := tx.QueryRow(ctx, `
			INSERT INTO purchase_documents (document_number, rfq_number, vendor_id, status, notes)
			VALUES ($1, $1, $2, $3, $4)
			RETURNING id`,
			number, vendorID, string(StatusRFQ), nullableText(notes),
		).Scan(&id); err != nil {
			return storageErr("insert purchase document", err)
		}

		if len(items) > 0 {
			current, err := lockActiveDocument(ctx, tx, id)
			if err != nil {
				return err
			}
			for i, in := range items {
				_, moved, err := s.addItemTx(ctx, tx, current, in)
				if err != nil {
					return fmt.Errorf("item %d: %w", i+1, err)
				}
				if moved != nil {
					current.Status = moved.to
					change = moved
				}
			}
		}

		doc, err = getDocument(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("rfq created",
		zap.Int("document_id", doc.ID),
		zap.String("document_number", doc.DocumentNumber),
		zap.Int("vendor_id", vendorID),
		zap.Int("items", len(items)),
	)
	s.notifyStatus(ctx, doc, statusChange{to: StatusRFQ})
	if change != nil {
		s.notifyStatus(ctx, doc, *change)
	}
	return doc, nil
}

// AddItem appends a line to an editable document. On a PO_ISSUED document the
// product quantity goes on order immediately.
func (s *purchaseDocumentService) AddItem(ctx context.Context, documentID int, in ItemInput) (*PurchaseDocumentItem, error) {
	if err := validateItemValues(in.Quantity, in.UnitPrice); err != nil {
		return nil, err
	}

	var item *PurchaseDocumentItem
	var doc *PurchaseDocument
	var change *statusChange
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		doc, err = lockActiveDocument(ctx, tx, documentID)
		if err != nil {
			return err
		}
		item, change, err = s.addItemTx(ctx, tx, doc, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	if change != nil {
		doc.Status = change.to
		s.notifyStatus(ctx, doc, *change)
	}
	return item, nil
}

// AddItemTx appends a line inside tx. The caller publishes any resulting
// status change after commit.
func (s *purchaseDocumentService) AddItemTx(ctx context.Context, tx pgx.Tx, documentID int, in ItemInput) (*PurchaseDocumentItem, error) {
	if err := validateItemValues(in.Quantity, in.UnitPrice); err != nil {
		return nil, err
	}
	doc, err := lockActiveDocument(ctx, tx, documentID)
	if err != nil {
		return nil, err
	}
	item, _, err := s.addItemTx(ctx, tx, doc, in)
	return item, err
}

// addItemTx inserts a line on doc, which the caller has locked. Pricing the
// first line of an RFQ moves it to QUOTED; the returned change reports that.
func (s *purchaseDocumentService) addItemTx(ctx context.Context, tx pgx.Tx, doc *PurchaseDocument, in ItemInput) (*PurchaseDocumentItem, *statusChange, error) {
	if !doc.Status.Editable() {
		return nil, nil, transitionf("cannot add items to %s document %s", doc.Status, doc.DocumentNumber)
	}
	if err := validateItemValues(in.Quantity, in.UnitPrice); err != nil {
		return nil, nil, err
	}

	description := strings.TrimSpace(in.Description)
	if in.ProductID != nil {
		p, err := requireProduct(ctx, tx, *in.ProductID)
		if err != nil {
			return nil, nil, err
		}
		if description == "" {
			description = p.Name
		}
	}
	if description == "" {
		return nil, nil, validationf("description is required for items without a product")
	}

	var lineNumber int
	if err := tx.QueryRow(ctx,
		"SELECT COALESCE(MAX(line_number), 0) + 1 FROM purchase_document_items WHERE document_id = $1",
		doc.ID,
	).Scan(&lineNumber); err != nil {
		return nil, nil, storageErr("next line number", err)
	}

	item, err := scanItem(tx.QueryRow(ctx, `
		INSERT INTO purchase_document_items
		            (document_id, line_number, product_id, description, quantity, unit_price, total_price, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+itemColumns,
		doc.ID, lineNumber, in.ProductID, description, in.Quantity, in.UnitPrice,
		lineTotal(in.Quantity, in.UnitPrice), nullableText(in.Note),
	))
	if err != nil {
		return nil, nil, storageErr(fmt.Sprintf("insert item on document %s", doc.DocumentNumber), err)
	}

	if doc.Status == StatusPOIssued && item.ProductID != nil {
		if _, err := s.ledger.RecordPurchaseOrderTx(ctx, tx, *item.ProductID, item.Quantity, doc.DocumentNumber); err != nil {
			return nil, nil, err
		}
	}
	var change *statusChange
	if doc.Status == StatusRFQ && item.UnitPrice != nil {
		if err := setStatus(ctx, tx, doc.ID, StatusQuoted); err != nil {
			return nil, nil, err
		}
		change = &statusChange{from: StatusRFQ, to: StatusQuoted}
	}
	if err := touchDocument(ctx, tx, doc.ID); err != nil {
		return nil, nil, err
	}
	return item, change, nil
}

// UpdateItem patches a line and recomputes its total. On a PO_ISSUED document
// a quantity change moves the on-order level by the difference.
func (s *purchaseDocumentService) UpdateItem(ctx context.Context, itemID int, upd ItemUpdate) (*PurchaseDocumentItem, error) {
	var item *PurchaseDocumentItem
	var doc *PurchaseDocument
	var change *statusChange
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		var current *PurchaseDocumentItem
		var err error
		doc, current, err = lockItemWithDocument(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if !doc.Status.Editable() {
			return transitionf("cannot edit items of %s document %s", doc.Status, doc.DocumentNumber)
		}

		qty := current.Quantity
		if upd.Quantity != nil {
			qty = *upd.Quantity
		}
		price := current.UnitPrice
		switch {
		case upd.ClearUnitPrice:
			price = nil
		case upd.UnitPrice != nil:
			price = upd.UnitPrice
		}
		if err := validateItemValues(qty, price); err != nil {
			return err
		}
		if qty.LessThan(current.ReceivedQuantity) {
			return validationf("item quantity %s is below the received quantity %s", qty.String(), current.ReceivedQuantity.String())
		}

		description := current.Description
		if upd.Description != nil {
			description = strings.TrimSpace(*upd.Description)
			if description == "" && current.ProductID != nil {
				p, err := requireProduct(ctx, tx, *current.ProductID)
				if err != nil {
					return err
				}
				description = p.Name
			}
			if description == "" {
				return validationf("description is required for items without a product")
			}
		}
		note := current.Note
		if upd.Note != nil {
			note = nullableText(*upd.Note)
		}

		item, err = scanItem(tx.QueryRow(ctx, `
			UPDATE purchase_document_items
			SET description = $1, quantity = $2, unit_price = $3, total_price = $4, note = $5
			WHERE id = $6
			RETURNING `+itemColumns,
			description, qty, price, lineTotal(qty, price), note, itemID,
		))
		if err != nil {
			return storageErr(fmt.Sprintf("update item %d", itemID), err)
		}

		if doc.Status == StatusPOIssued && item.ProductID != nil {
			if delta := qty.Sub(current.Quantity); !delta.IsZero() {
				if _, err := s.ledger.RecordPurchaseOrderTx(ctx, tx, *item.ProductID, delta, doc.DocumentNumber); err != nil {
					return err
				}
			}
		}
		if doc.Status == StatusRFQ && item.UnitPrice != nil {
			if err := setStatus(ctx, tx, doc.ID, StatusQuoted); err != nil {
				return err
			}
			change = &statusChange{from: StatusRFQ, to: StatusQuoted}
		}
		return touchDocument(ctx, tx, doc.ID)
	})
	if err != nil {
		return nil, err
	}

	if change != nil {
		doc.Status = change.to
		s.notifyStatus(ctx, doc, *change)
	}
	return item, nil
}

// DeleteItem removes a line. On a PO_ISSUED document its outstanding quantity
// comes off order.
func (s *purchaseDocumentService) DeleteItem(ctx context.Context, itemID int) error {
	return runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		doc, item, err := lockItemWithDocument(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if !doc.Status.Editable() {
			return transitionf("cannot delete items of %s document %s", doc.Status, doc.DocumentNumber)
		}

		if _, err := tx.Exec(ctx, "DELETE FROM purchase_document_items WHERE id = $1", itemID); err != nil {
			return storageErr(fmt.Sprintf("delete item %d", itemID), err)
		}
		if doc.Status == StatusPOIssued && item.ProductID != nil {
			if out := item.Outstanding(); out.IsPositive() {
				if _, err := s.ledger.RecordPurchaseOrderTx(ctx, tx, *item.ProductID, out.Neg(), doc.DocumentNumber); err != nil {
					return err
				}
			}
		}
		return touchDocument(ctx, tx, doc.ID)
	})
}

func (s *purchaseDocumentService) ConvertToPO(ctx context.Context, documentID int) (*PurchaseDocument, error) {
	return s.transition(ctx, documentID, StatusPOIssued, "")
}

func (s *purchaseDocumentService) MarkReceived(ctx context.Context, documentID int, location string) (*PurchaseDocument, error) {
	return s.transition(ctx, documentID, StatusReceived, location)
}

func (s *purchaseDocumentService) Close(ctx context.Context, documentID int) (*PurchaseDocument, error) {
	return s.transition(ctx, documentID, StatusClosed, "")
}

func (s *purchaseDocumentService) UpdateStatus(ctx context.Context, documentID int, to DocumentStatus, location string) (*PurchaseDocument, error) {
	target, err := ParseDocumentStatus(string(to))
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, documentID, target, location)
}

// transition re-fetches the document under lock, checks the move against the
// transition table and applies its ledger effects and status change in one
// transaction.
func (s *purchaseDocumentService) transition(ctx context.Context, documentID int, to DocumentStatus, location string) (*PurchaseDocument, error) {
	var doc *PurchaseDocument
	var from DocumentStatus
	var received []InventoryRecord
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := lockActiveDocument(ctx, tx, documentID)
		if err != nil {
			return err
		}
		from = current.Status
		if from == to {
			return transitionf("document %s is already %s", current.DocumentNumber, to)
		}
		if !CanTransition(from, to) {
			return transitionf("document %s cannot move from %s to %s", current.DocumentNumber, from, to)
		}

		items, err := loadItems(ctx, tx, documentID, true)
		if err != nil {
			return err
		}

		switch {
		case from == StatusRFQ && to == StatusQuoted:
			if !anyPriced(items) {
				return transitionf("document %s has no priced items to quote", current.DocumentNumber)
			}

		case to == StatusPOIssued:
			if len(items) == 0 {
				return transitionf("document %s has no items to order", current.DocumentNumber)
			}
			number, err := allocateDocumentNumberTx(ctx, tx, PONumberPrefix)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				"UPDATE purchase_documents SET document_number = $1 WHERE id = $2",
				number, documentID,
			); err != nil {
				return storageErr(fmt.Sprintf("assign PO number to document %d", documentID), err)
			}
			if err := s.applyOnOrder(ctx, tx, items, number, false); err != nil {
				return err
			}

		case to == StatusReceived:
			received, err = s.receive(ctx, tx, current, items, location)
			if err != nil {
				return err
			}

		case from == StatusPOIssued:
			// Reverting an issued PO takes its lines back off order.
			if err := s.applyOnOrder(ctx, tx, items, current.DocumentNumber, true); err != nil {
				return err
			}
		}

		if err := setStatus(ctx, tx, documentID, to); err != nil {
			return err
		}
		doc, err = getDocument(ctx, tx, documentID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatus(ctx, doc, statusChange{from: from, to: to})
	notifyLowStock(ctx, s.events, s.logger, received...)
	return doc, nil
}

// receivePlan is one product line's receipt, computed before any write.
type receivePlan struct {
	productID   int
	outstanding decimal.Decimal
}

// receive takes each line's outstanding quantity off order and into on-hand
// stock at location. All lines are planned and validated before the first write.
// It returns the updated inventory records.
func (s *purchaseDocumentService) receive(ctx context.Context, tx pgx.Tx, doc *PurchaseDocument, items []PurchaseDocumentItem, location string) ([]InventoryRecord, error) {
	location = normalizeLocation(location)
	if location == "" {
		return nil, validationf("a receiving location is required")
	}

	var plan []receivePlan
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		out := it.Outstanding()
		if out.IsNegative() {
			return nil, validationf("item %d has received more than ordered", it.ID)
		}
		if out.IsZero() {
			continue
		}
		plan = append(plan, receivePlan{productID: *it.ProductID, outstanding: out})
	}
	// Stable product order keeps row-lock acquisition consistent across receipts.
	sort.SliceStable(plan, func(i, j int) bool { return plan[i].productID < plan[j].productID })

	records := make([]InventoryRecord, 0, len(plan))
	for _, p := range plan {
		if _, err := s.ledger.RecordPurchaseOrderTx(ctx, tx, p.productID, p.outstanding.Neg(), doc.DocumentNumber); err != nil {
			return nil, err
		}
		rec, err := s.ledger.AdjustStockTx(ctx, tx, StockMovement{
			ProductID: p.productID,
			Location:  location,
			Delta:     p.outstanding,
			Type:      TransactionPurchase,
			Reference: doc.DocumentNumber,
		})
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE purchase_document_items SET received_quantity = quantity WHERE document_id = $1",
		doc.ID,
	); err != nil {
		return nil, storageErr(fmt.Sprintf("mark items received on document %s", doc.DocumentNumber), err)
	}

	s.logger.Info("purchase order received",
		zap.Int("document_id", doc.ID),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("location", location),
		zap.Int("lines", len(plan)),
	)
	return records, nil
}

// applyOnOrder records +outstanding for each product line, or −outstanding
// when reverse is set.
func (s *purchaseDocumentService) applyOnOrder(ctx context.Context, tx pgx.Tx, items []PurchaseDocumentItem, reference string, reverse bool) error {
	for _, it := range items {
		if it.ProductID == nil {
			continue
		}
		delta := it.Outstanding()
		if !delta.IsPositive() {
			continue
		}
		if reverse {
			delta = delta.Neg()
		}
		if _, err := s.ledger.RecordPurchaseOrderTx(ctx, tx, *it.ProductID, delta, reference); err != nil {
			return err
		}
	}
	return nil
}

// Delete soft-deletes the document. Only editable documents can be deleted; a
// PO_ISSUED document has its on-order quantities reversed first.
func (s *purchaseDocumentService) Delete(ctx context.Context, documentID int) error {
	var doc *PurchaseDocument
	err := runInTx(ctx, s.pool, func(tx pgx.Tx) error {
		var err error
		doc, err = lockActiveDocument(ctx, tx, documentID)
		if err != nil {
			return err
		}
		// RECEIVED stock has already been booked, so only editable statuses delete.
		if !doc.Status.Editable() {
			return transitionf("cannot delete %s document %s", doc.Status, doc.DocumentNumber)
		}

		if doc.Status == StatusPOIssued {
			items, err := loadItems(ctx, tx, documentID, true)
			if err != nil {
				return err
			}
			if err := s.applyOnOrder(ctx, tx, items, doc.DocumentNumber, true); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx,
			"UPDATE purchase_documents SET is_active = false, updated_at = NOW() WHERE id = $1",
			documentID,
		); err != nil {
			return storageErr(fmt.Sprintf("delete document %s", doc.DocumentNumber), err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("purchase document deleted",
		zap.Int("document_id", doc.ID),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("status", string(doc.Status)),
	)
	notify(ctx, s.events, s.logger, newEvent(EventDocumentDeleted, map[string]any{
		"document_id":     doc.ID,
		"document_number": doc.DocumentNumber,
		"status":          string(doc.Status),
	}))
	return nil
}

func (s *purchaseDocumentService) List(ctx context.Context, criteria DocumentCriteria) ([]PurchaseDocument, error) {
	var status *string
	if criteria.Status != nil {
		st, err := ParseDocumentStatus(string(*criteria.Status))
		if err != nil {
			return nil, err
		}
		v := string(st)
		status = &v
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+documentColumns+`
		FROM purchase_documents d
		JOIN accounts a ON a.id = d.vendor_id
		WHERE ($1::int IS NULL OR d.vendor_id = $1)
		  AND ($2::text IS NULL OR d.status = $2)
		  AND ($3::boolean IS NULL OR d.is_active = $3)
		ORDER BY d.id`,
		criteria.VendorID, status, criteria.Visibility.activeArg(),
	)
	if err != nil {
		return nil, storageErr("query purchase documents", err)
	}
	defer rows.Close()

	var docs []PurchaseDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, storageErr("scan purchase document", err)
		}
		docs = append(docs, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate purchase documents", err)
	}
	return docs, nil
}

// Get returns a document with its items, whatever its visibility.
func (s *purchaseDocumentService) Get(ctx context.Context, documentID int) (*PurchaseDocument, error) {
	return getDocument(ctx, s.pool, documentID)
}

func (s *purchaseDocumentService) GetItems(ctx context.Context, documentID int) ([]PurchaseDocumentItem, error) {
	if _, err := fetchDocument(ctx, s.pool, documentID, false); err != nil {
		return nil, err
	}
	return loadItems(ctx, s.pool, documentID, false)
}

func (s *purchaseDocumentService) notifyStatus(ctx context.Context, doc *PurchaseDocument, c statusChange) {
	s.logger.Info("purchase document status changed",
		zap.Int("document_id", doc.ID),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("from", string(c.from)),
		zap.String("to", string(c.to)),
	)
	notify(ctx, s.events, s.logger, newEvent(EventDocumentStatus, map[string]any{
		"document_id":     doc.ID,
		"document_number": doc.DocumentNumber,
		"vendor_id":       doc.VendorID,
		"from":            string(c.from),
		"to":              string(c.to),
	}))
}

// ── persistence helpers ───────────────────────────────────────────────────────

const documentColumns = `d.id, d.document_number, d.rfq_number, d.vendor_id, a.name, d.status,
	d.notes, d.created_date, d.updated_at, d.is_active`

const itemColumns = `id, document_id, line_number, product_id, description, quantity,
	unit_price, total_price, received_quantity, note`

func scanDocument(row pgx.Row) (*PurchaseDocument, error) {
	var d PurchaseDocument
	var status string
	var active bool
	if err := row.Scan(&d.ID, &d.DocumentNumber, &d.RFQNumber, &d.VendorID, &d.VendorName, &status,
		&d.Notes, &d.CreatedDate, &d.UpdatedAt, &active); err != nil {
		return nil, err
	}
	st, err := ParseDocumentStatus(status)
	if err != nil {
		return nil, err
	}
	d.Status = st
	d.State = recordState(active)
	return &d, nil
}

func scanItem(row pgx.Row) (*PurchaseDocumentItem, error) {
	var it PurchaseDocumentItem
	if err := row.Scan(&it.ID, &it.DocumentID, &it.LineNumber, &it.ProductID, &it.Description, &it.Quantity,
		&it.UnitPrice, &it.TotalPrice, &it.ReceivedQuantity, &it.Note); err != nil {
		return nil, err
	}
	return &it, nil
}

func fetchDocument(ctx context.Context, q querier, id int, forUpdate bool) (*PurchaseDocument, error) {
	sql := `SELECT ` + documentColumns + `
		FROM purchase_documents d
		JOIN accounts a ON a.id = d.vendor_id
		WHERE d.id = $1`
	if forUpdate {
		sql += " FOR UPDATE OF d"
	}
	doc, err := scanDocument(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("purchase document %d not found", id)
		}
		return nil, storageErr(fmt.Sprintf("fetch purchase document %d", id), err)
	}
	return doc, nil
}

// lockActiveDocument locks the document row and rejects soft-deleted documents.
func lockActiveDocument(ctx context.Context, tx pgx.Tx, id int) (*PurchaseDocument, error) {
	doc, err := fetchDocument(ctx, tx, id, true)
	if err != nil {
		return nil, err
	}
	if doc.State != StateActive {
		return nil, transitionf("purchase document %s has been deleted", doc.DocumentNumber)
	}
	return doc, nil
}

// lockItemWithDocument locks the item's document, then the item itself, in the
// same order every transition uses.
func lockItemWithDocument(ctx context.Context, tx pgx.Tx, itemID int) (*PurchaseDocument, *PurchaseDocumentItem, error) {
	var documentID int
	if err := tx.QueryRow(ctx,
		"SELECT document_id FROM purchase_document_items WHERE id = $1", itemID,
	).Scan(&documentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, notFoundf("purchase document item %d not found", itemID)
		}
		return nil, nil, storageErr(fmt.Sprintf("fetch item %d", itemID), err)
	}

	doc, err := lockActiveDocument(ctx, tx, documentID)
	if err != nil {
		return nil, nil, err
	}

	item, err := scanItem(tx.QueryRow(ctx,
		"SELECT "+itemColumns+" FROM purchase_document_items WHERE id = $1 FOR UPDATE", itemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, notFoundf("purchase document item %d not found", itemID)
		}
		return nil, nil, storageErr(fmt.Sprintf("lock item %d", itemID), err)
	}
	return doc, item, nil
}

func loadItems(ctx context.Context, q querier, documentID int, forUpdate bool) ([]PurchaseDocumentItem, error) {
	sql := "SELECT " + itemColumns + " FROM purchase_document_items WHERE document_id = $1 ORDER BY line_number"
	if forUpdate {
		sql += " FOR UPDATE"
	}
	rows, err := q.Query(ctx, sql, documentID)
	if err != nil {
		return nil, storageErr("query purchase document items", err)
	}
	defer rows.Close()

	items := []PurchaseDocumentItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, storageErr("scan purchase document item", err)
		}
		items = append(items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate purchase document items", err)
	}
	return items, nil
}

func getDocument(ctx context.Context, q querier, id int) (*PurchaseDocument, error) {
	doc, err := fetchDocument(ctx, q, id, false)
	if err != nil {
		return nil, err
	}
	if doc.Items, err = loadItems(ctx, q, id, false); err != nil {
		return nil, err
	}
	return doc, nil
}

func setStatus(ctx context.Context, tx pgx.Tx, id int, status DocumentStatus) error {
	if _, err := tx.Exec(ctx,
		"UPDATE purchase_documents SET status = $1, updated_at = NOW() WHERE id = $2",
		string(status), id,
	); err != nil {
		return storageErr(fmt.Sprintf("set document %d status to %s", id, status), err)
	}
	return nil
}

func touchDocument(ctx context.Context, tx pgx.Tx, id int) error {
	if _, err := tx.Exec(ctx, "UPDATE purchase_documents SET updated_at = NOW() WHERE id = $1", id); err != nil {
		return storageErr(fmt.Sprintf("touch document %d", id), err)
	}
	return nil
}

func anyPriced(items []PurchaseDocumentItem) bool {
	for _, it := range items {
		if it.UnitPrice != nil {
			return true
		}
	}
	return false
}

func nullableText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
