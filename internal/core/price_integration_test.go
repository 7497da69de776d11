package core_test

import (
	"testing"
	"time"

	"stock-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := core.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestPrice_EffectivePriceOverTime(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	_, err := h.prices.UpsertPrice(h.ctx, core.PriceInput{
		ProductID: p, PriceType: core.PriceTypeSale, Currency: "USD",
		Value: dec("10"), ValidFrom: date(t, "2023-01-01"),
	})
	require.NoError(t, err)
	summer := date(t, "2023-08-31")
	_, err = h.prices.UpsertPrice(h.ctx, core.PriceInput{
		ProductID: p, PriceType: core.PriceTypeSale, Currency: "usd",
		Value: dec("12"), ValidFrom: date(t, "2023-06-01"), ValidTo: &summer,
	})
	require.NoError(t, err)

	tests := []struct {
		at   string
		want string
	}{
		{"2023-07-15", "12"},
		{"2023-08-31", "12"},
		{"2023-09-01", "10"},
		{"2023-05-31", "10"},
		{"2022-12-31", ""},
	}
	for _, tt := range tests {
		t.Run(tt.at, func(t *testing.T) {
			rec, err := h.prices.EffectivePrice(h.ctx, p, date(t, tt.at), "USD", core.PriceTypeSale)
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, rec)
				return
			}
			require.NotNil(t, rec)
			assertDecimal(t, tt.want, rec.Value)
		})
	}

	t.Run("other currency and type are independent", func(t *testing.T) {
		rec, err := h.prices.EffectivePrice(h.ctx, p, date(t, "2023-07-15"), "EUR", core.PriceTypeSale)
		require.NoError(t, err)
		assert.Nil(t, rec)

		rec, err = h.prices.EffectivePrice(h.ctx, p, date(t, "2023-07-15"), "USD", core.PriceTypeCost)
		require.NoError(t, err)
		assert.Nil(t, rec)
	})
}

func TestPrice_UpsertOverwritesSameKey(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	first, err := h.prices.UpsertPrice(h.ctx, core.PriceInput{
		ProductID: p, PriceType: core.PriceTypeCost, Currency: "USD",
		Value: dec("3.50"), ValidFrom: date(t, "2024-01-01"),
	})
	require.NoError(t, err)

	second, err := h.prices.UpsertPrice(h.ctx, core.PriceInput{
		ProductID: p, PriceType: core.PriceTypeCost, Currency: "USD",
		Value: dec("3.75"), ValidFrom: date(t, "2024-01-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	list, err := h.prices.ListPrices(h.ctx, p, core.PriceFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assertDecimal(t, "3.75", list[0].Value)
}

func TestPrice_Validation(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")
	before := date(t, "2023-12-31")

	_, err := h.prices.UpsertPrice(h.ctx, core.PriceInput{
		ProductID: p, PriceType: core.PriceTypeSale, Currency: "USD",
		Value: dec("1"), ValidFrom: date(t, "2024-01-01"), ValidTo: &before,
	})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = h.prices.UpsertPrice(h.ctx, core.PriceInput{
		ProductID: p, PriceType: core.PriceTypeSale, Currency: "USD",
		Value: dec("-1"), ValidFrom: date(t, "2024-01-01"),
	})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = h.prices.UpsertPrice(h.ctx, core.PriceInput{
		ProductID: 999, PriceType: core.PriceTypeSale, Currency: "USD",
		Value: dec("1"), ValidFrom: date(t, "2024-01-01"),
	})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestPrice_Delete(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")

	rec, err := h.prices.UpsertPrice(h.ctx, core.PriceInput{
		ProductID: p, PriceType: core.PriceTypeMSRP, Currency: "USD",
		Value: dec("99"), ValidFrom: date(t, "2024-01-01"),
	})
	require.NoError(t, err)

	require.NoError(t, h.prices.DeletePrice(h.ctx, rec.ID))
	assert.ErrorIs(t, h.prices.DeletePrice(h.ctx, rec.ID), core.ErrNotFound)
}
