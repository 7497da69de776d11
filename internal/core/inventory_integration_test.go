package core_test

import (
	"sync"
	"testing"

	"stock-ledger/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func onHandAt(t *testing.T, h *harness, productID int, location string) decimal.Decimal {
	t.Helper()
	rec, err := h.inventory.GetInventoryAtLocation(h.ctx, productID, location)
	require.NoError(t, err)
	return rec.Quantity
}

func TestInventory_InsufficientStockSale(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	_, err := h.inventory.AdjustInventory(h.ctx, p, "L1", dec("20"), core.StockBounds{})
	require.NoError(t, err)

	_, err = h.inventory.AdjustInventory(h.ctx, p, "L1", dec("-25"), core.StockBounds{})
	require.ErrorIs(t, err, core.ErrInsufficientStock)
	assert.Equal(t, core.CodeInsufficientStock, core.KindOf(err))

	assertDecimal(t, "20", onHandAt(t, h, p, "L1"))
}

func TestInventory_NonNegativityUnderSequence(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	deltas := []string{"5", "-3", "-3", "10", "-12", "-1", "4", "-4"}
	want := decimal.Zero
	for i, d := range deltas {
		rec, err := h.inventory.AdjustInventory(h.ctx, p, "MAIN", dec(d), core.StockBounds{})
		next := want.Add(dec(d))
		if next.IsNegative() {
			require.ErrorIs(t, err, core.ErrInsufficientStock, "step %d", i)
			continue
		}
		require.NoError(t, err, "step %d", i)
		want = next
		assertDecimal(t, want.String(), rec.Quantity, "step %d", i)
	}
	assertDecimal(t, want.String(), onHandAt(t, h, p, "MAIN"))
}

func TestInventory_ConcurrentAdjustmentsNeverOversell(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")
	_, err := h.inventory.AdjustInventory(h.ctx, p, "MAIN", dec("10"), core.StockBounds{})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := h.inventory.AdjustInventory(h.ctx, p, "MAIN", dec("-1"), core.StockBounds{}); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assertDecimal(t, "0", onHandAt(t, h, p, "MAIN"))
}

func TestInventory_TransferAtomicity(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")
	_, err := h.inventory.AdjustInventory(h.ctx, p, "A", dec("5"), core.StockBounds{})
	require.NoError(t, err)
	_, err = h.inventory.AdjustInventory(h.ctx, p, "B", dec("2"), core.StockBounds{})
	require.NoError(t, err)

	t.Run("failed transfer leaves both sides unchanged", func(t *testing.T) {
		_, err := h.inventory.TransferInventory(h.ctx, p, "A", "B", dec("8"))
		require.ErrorIs(t, err, core.ErrInsufficientStock)
		assertDecimal(t, "5", onHandAt(t, h, p, "A"))
		assertDecimal(t, "2", onHandAt(t, h, p, "B"))
	})

	t.Run("successful transfer moves the full quantity", func(t *testing.T) {
		res, err := h.inventory.TransferInventory(h.ctx, p, "a", "b", dec("3"))
		require.NoError(t, err)
		assertDecimal(t, "2", res.From.Quantity)
		assertDecimal(t, "5", res.To.Quantity)
		assertDecimal(t, "2", onHandAt(t, h, p, "A"))
		assertDecimal(t, "5", onHandAt(t, h, p, "B"))
	})

	t.Run("transfer to a new location creates it", func(t *testing.T) {
		_, err := h.inventory.TransferInventory(h.ctx, p, "B", "C", dec("1"))
		require.NoError(t, err)
		assertDecimal(t, "1", onHandAt(t, h, p, "C"))

		total, err := h.inventory.GetTotalInventory(h.ctx, p)
		require.NoError(t, err)
		assertDecimal(t, "7", total.Quantity)
		assert.Equal(t, 3, total.Locations)
	})

	t.Run("invalid transfers are rejected", func(t *testing.T) {
		_, err := h.inventory.TransferInventory(h.ctx, p, "A", "A", dec("1"))
		assert.ErrorIs(t, err, core.ErrValidation)
		_, err = h.inventory.TransferInventory(h.ctx, p, "A", "B", dec("0"))
		assert.ErrorIs(t, err, core.ErrValidation)
	})
}

func TestInventory_FailedTransferToMissingSourceCreatesNothing(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	_, err := h.inventory.TransferInventory(h.ctx, p, "NOWHERE", "ELSEWHERE", dec("1"))
	require.ErrorIs(t, err, core.ErrInsufficientStock)

	records, err := h.inventory.GetAllInventoryForProduct(h.ctx, p)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestInventory_GetAtLocationMissing(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	_, err := h.inventory.GetInventoryAtLocation(h.ctx, p, "MAIN")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = h.inventory.AdjustInventory(h.ctx, 999, "MAIN", dec("1"), core.StockBounds{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestInventory_BoundsAndLowStock(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	_, err := h.inventory.AdjustInventory(h.ctx, p, "MAIN", dec("10"), core.StockBounds{
		MinStock: ptrDec("5"), MaxStock: ptrDec("50"),
	})
	require.NoError(t, err)

	_, err = h.inventory.AdjustInventory(h.ctx, p, "MAIN", dec("1"), core.StockBounds{MinStock: ptrDec("60")})
	require.ErrorIs(t, err, core.ErrValidation, "min above stored max")
	assertDecimal(t, "10", onHandAt(t, h, p, "MAIN"))

	alerts, err := h.inventory.CheckLowStock(h.ctx, core.LowStockFilter{})
	require.NoError(t, err)
	assert.Empty(t, alerts)

	rec, err := h.inventory.AdjustInventory(h.ctx, p, "MAIN", dec("-7"), core.StockBounds{})
	require.NoError(t, err)
	assert.True(t, rec.IsLow())

	alerts, err = h.inventory.CheckLowStock(h.ctx, core.LowStockFilter{Location: "main"})
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "SKU-1", alerts[0].SKU)
	assertDecimal(t, "3", alerts[0].Quantity)
}

func ptrDec(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}
