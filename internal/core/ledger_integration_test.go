package core_test

import (
	"context"
	"os"
	"sync"
	"testing"

	"stock-ledger/internal/core"
	"stock-ledger/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := migrations.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("Failed to apply migrations: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE purchase_document_items, purchase_documents, product_vendors,
		               inventory_transactions, product_inventory, product_prices,
		               products, product_categories, accounts
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("Failed to reset test database: %v", err)
	}
	return pool
}

// recordingPublisher keeps every published event in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []core.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e core.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) ofType(typ string) []core.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []core.Event
	for _, e := range p.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

// harness wires every core service over one test pool.
type harness struct {
	ctx        context.Context
	pool       *pgxpool.Pool
	events     *recordingPublisher
	accounts   core.AccountService
	catalog    core.CatalogService
	inventory  core.InventoryService
	ledger     *core.Ledger
	prices     core.PriceService
	categories core.CategoryService
	documents  core.PurchaseDocumentService
	vendors    core.VendorService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	pool := setupTestDB(t)
	events := &recordingPublisher{}
	inventory := core.NewInventoryService(pool, events, nil)
	ledger := core.NewLedger(pool, inventory, events, nil)
	return &harness{
		ctx:        context.Background(),
		pool:       pool,
		events:     events,
		accounts:   core.NewAccountService(pool, nil),
		catalog:    core.NewCatalogService(pool, nil),
		inventory:  inventory,
		ledger:     ledger,
		prices:     core.NewPriceService(pool),
		categories: core.NewCategoryService(pool, nil),
		documents:  core.NewPurchaseDocumentService(pool, ledger, events, nil),
		vendors:    core.NewVendorService(pool, nil),
	}
}

func (h *harness) account(t *testing.T, name string, typ core.AccountType) int {
	t.Helper()
	a, err := h.accounts.CreateAccount(h.ctx, core.AccountInput{Name: name, Type: typ})
	require.NoError(t, err)
	return a.ID
}

func (h *harness) vendor(t *testing.T, name string) int {
	return h.account(t, name, core.AccountTypeVendor)
}

func (h *harness) product(t *testing.T, sku string) int {
	t.Helper()
	p, err := h.catalog.CreateProduct(h.ctx, core.ProductInput{SKU: sku, Name: "Product " + sku})
	require.NoError(t, err)
	return p.ID
}

func (h *harness) stock(t *testing.T, productID int, location string, qty int64) {
	t.Helper()
	_, err := h.ledger.AdjustStock(h.ctx, core.StockMovement{
		ProductID: productID,
		Location:  location,
		Delta:     decimal.NewFromInt(qty),
		Type:      core.TransactionAdjustment,
		Reference: "opening balance",
	})
	require.NoError(t, err)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestLedger_AdjustStockAppendsTransaction(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	rec, err := h.ledger.AdjustStock(h.ctx, core.StockMovement{
		ProductID: p, Location: "main", Delta: dec("12"), Type: core.TransactionPurchase, Reference: "GRN-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "MAIN", rec.Location)
	assertDecimal(t, "12", rec.Quantity)

	_, err = h.ledger.AdjustStock(h.ctx, core.StockMovement{
		ProductID: p, Location: "MAIN", Delta: dec("-5"), Type: core.TransactionSale, Reference: "SO-1",
	})
	require.NoError(t, err)

	txns, err := h.ledger.ListTransactions(h.ctx, core.TransactionFilter{ProductID: &p})
	require.NoError(t, err)
	require.Len(t, txns, 2)
	// newest first
	assert.Equal(t, core.TransactionSale, txns[0].Type)
	assertDecimal(t, "-5", txns[0].QuantityChange)
	assert.Equal(t, "SO-1", txns[0].Reference)
	require.NotNil(t, txns[0].Location)
	assert.Equal(t, "MAIN", *txns[0].Location)

	onHand, err := h.ledger.GetOnHandLevel(h.ctx, p)
	require.NoError(t, err)
	assertDecimal(t, "7", onHand)
}

func TestLedger_RejectedAdjustmentLeavesNoTrace(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")
	h.stock(t, p, "MAIN", 3)

	_, err := h.ledger.AdjustStock(h.ctx, core.StockMovement{
		ProductID: p, Location: "MAIN", Delta: dec("-4"), Type: core.TransactionSale, Reference: "SO-9",
	})
	require.ErrorIs(t, err, core.ErrInsufficientStock)

	txns, err := h.ledger.ListTransactions(h.ctx, core.TransactionFilter{ProductID: &p})
	require.NoError(t, err)
	assert.Len(t, txns, 1, "only the opening balance is recorded")
}

func TestLedger_OnOrderLevelIsSumOfDeltas(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	for _, d := range []string{"10", "4", "-6"} {
		_, err := h.ledger.RecordPurchaseOrder(h.ctx, p, dec(d), "PO-000001")
		require.NoError(t, err)
	}

	level, err := h.ledger.GetOnOrderLevel(h.ctx, p)
	require.NoError(t, err)
	assertDecimal(t, "8", level)

	onHand, err := h.ledger.GetOnHandLevel(h.ctx, p)
	require.NoError(t, err)
	assert.True(t, onHand.IsZero(), "on-order deltas never touch on-hand")
}

func TestLedger_AdjustStockRejectsOnOrderType(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	_, err := h.ledger.AdjustStock(h.ctx, core.StockMovement{
		ProductID: p, Location: "MAIN", Delta: dec("1"), Type: core.TransactionOnOrder,
	})
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestLedger_TransferStockRecordsPair(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")
	h.stock(t, p, "A", 10)

	res, err := h.ledger.TransferStock(h.ctx, p, "A", "B", dec("4"), "XFER-1")
	require.NoError(t, err)
	assertDecimal(t, "6", res.From.Quantity)
	assertDecimal(t, "4", res.To.Quantity)

	typ := core.TransactionTransfer
	txns, err := h.ledger.ListTransactions(h.ctx, core.TransactionFilter{ProductID: &p, Type: &typ})
	require.NoError(t, err)
	require.Len(t, txns, 2)

	sum := decimal.Zero
	for _, tx := range txns {
		sum = sum.Add(tx.QuantityChange)
		assert.Equal(t, "XFER-1", tx.Reference)
	}
	assert.True(t, sum.IsZero(), "transfer legs cancel out")
}

func TestLedger_UnknownProduct(t *testing.T) {
	h := newHarness(t)

	_, err := h.ledger.GetOnOrderLevel(h.ctx, 4242)
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = h.ledger.RecordPurchaseOrder(h.ctx, 4242, dec("1"), "PO-X")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLedger_LowStockEvents(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-LOW")
	h.stock(t, p, "MAIN", 20)

	floor := dec("5")
	_, err := h.inventory.AdjustInventory(h.ctx, p, "MAIN", decimal.Zero, core.StockBounds{MinStock: &floor})
	require.NoError(t, err)
	h.events.reset()

	t.Run("adjust above minimum", func(t *testing.T) {
		_, err := h.ledger.AdjustStock(h.ctx, core.StockMovement{
			ProductID: p, Location: "MAIN", Delta: dec("-2"), Type: core.TransactionSale, Reference: "SO-1",
		})
		require.NoError(t, err)
		assert.Len(t, h.events.ofType(core.EventInventoryAdjusted), 1)
		assert.Empty(t, h.events.ofType(core.EventInventoryLowStock))
	})

	t.Run("adjust below minimum", func(t *testing.T) {
		h.events.reset()
		_, err := h.ledger.AdjustStock(h.ctx, core.StockMovement{
			ProductID: p, Location: "MAIN", Delta: dec("-15"), Type: core.TransactionSale, Reference: "SO-2",
		})
		require.NoError(t, err)
		low := h.events.ofType(core.EventInventoryLowStock)
		require.Len(t, low, 1)
		assert.Equal(t, "MAIN", low[0].Payload["location"])
		assert.Equal(t, "3", low[0].Payload["quantity"])
	})

	t.Run("transfer leaves source below minimum", func(t *testing.T) {
		h.events.reset()
		_, err := h.ledger.TransferStock(h.ctx, p, "MAIN", "DOCK", dec("1"), "MOVE-1")
		require.NoError(t, err)
		assert.Len(t, h.events.ofType(core.EventInventoryTransferred), 1)
		low := h.events.ofType(core.EventInventoryLowStock)
		require.Len(t, low, 1)
		assert.Equal(t, "MAIN", low[0].Payload["location"])
	})

	t.Run("rejected adjustment publishes nothing", func(t *testing.T) {
		h.events.reset()
		_, err := h.ledger.AdjustStock(h.ctx, core.StockMovement{
			ProductID: p, Location: "MAIN", Delta: dec("-50"), Type: core.TransactionSale,
		})
		require.Error(t, err)
		assert.Empty(t, h.events.ofType(core.EventInventoryAdjusted))
		assert.Empty(t, h.events.ofType(core.EventInventoryLowStock))
	})
}
