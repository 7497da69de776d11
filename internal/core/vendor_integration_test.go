package core_test

import (
	"testing"

	"stock-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVendor_PreferredVendorTieBreak(t *testing.T) {
	h := newHarness(t)
	acme := h.vendor(t, "Acme")
	globex := h.vendor(t, "Globex")

	// Same terms on both products; only insertion order differs.
	for _, order := range [][]int{{acme, globex}, {globex, acme}} {
		p := h.product(t, "SKU-"+h.accountName(t, order[0]))
		var firstLink int
		for i, v := range order {
			link, err := h.vendors.LinkVendor(h.ctx, core.VendorLinkInput{
				ProductID: p, VendorID: v, LeadTimeDays: intPtr(5), LastPrice: ptrDec("9.50"),
			})
			require.NoError(t, err)
			if i == 0 {
				firstLink = link.ID
			}
		}

		preferred, err := h.vendors.PreferredVendor(h.ctx, p)
		require.NoError(t, err)
		require.NotNil(t, preferred)
		assert.Equal(t, firstLink, preferred.ID, "lower link id wins a full tie")
		assert.Equal(t, order[0], preferred.VendorID)
	}
}

func TestVendor_PreferenceOrdering(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")
	cheap := h.vendor(t, "Cheap but slow")
	fast := h.vendor(t, "Same price, fast")
	unknown := h.vendor(t, "No quote")

	_, err := h.vendors.LinkVendor(h.ctx, core.VendorLinkInput{ProductID: p, VendorID: unknown, LeadTimeDays: intPtr(1)})
	require.NoError(t, err)
	_, err = h.vendors.LinkVendor(h.ctx, core.VendorLinkInput{ProductID: p, VendorID: cheap, LastPrice: ptrDec("4"), LeadTimeDays: intPtr(30)})
	require.NoError(t, err)
	_, err = h.vendors.LinkVendor(h.ctx, core.VendorLinkInput{ProductID: p, VendorID: fast, LastPrice: ptrDec("4"), LeadTimeDays: intPtr(2)})
	require.NoError(t, err)

	links, err := h.vendors.ListForProduct(h.ctx, p)
	require.NoError(t, err)
	require.Len(t, links, 3)
	assert.Equal(t, []int{fast, cheap, unknown}, []int{links[0].VendorID, links[1].VendorID, links[2].VendorID})
}

func TestVendor_LinkIsUpsertedNotDuplicated(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")
	v := h.vendor(t, "Acme")

	first, err := h.vendors.LinkVendor(h.ctx, core.VendorLinkInput{ProductID: p, VendorID: v, VendorSKU: "AC-1", LastPrice: ptrDec("10")})
	require.NoError(t, err)
	second, err := h.vendors.LinkVendor(h.ctx, core.VendorLinkInput{ProductID: p, VendorID: v, VendorSKU: "AC-2", LastPrice: ptrDec("8")})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	require.NotNil(t, second.VendorSKU)
	assert.Equal(t, "AC-2", *second.VendorSKU)

	updated, err := h.vendors.UpdateLink(h.ctx, first.ID, core.VendorLinkUpdate{LeadTimeDays: intPtr(3)})
	require.NoError(t, err)
	require.NotNil(t, updated.LeadTimeDays)
	assert.Equal(t, 3, *updated.LeadTimeDays)
	assertDecimal(t, "8", *updated.LastPrice)

	byVendor, err := h.vendors.ListForVendor(h.ctx, v)
	require.NoError(t, err)
	assert.Len(t, byVendor, 1)

	require.NoError(t, h.vendors.RemoveLink(h.ctx, first.ID))
	assert.ErrorIs(t, h.vendors.RemoveLink(h.ctx, first.ID), core.ErrNotFound)

	preferred, err := h.vendors.PreferredVendor(h.ctx, p)
	require.NoError(t, err)
	assert.Nil(t, preferred)
}

func TestVendor_LinkValidation(t *testing.T) {
	h := newHarness(t)
	p := h.product(t, "SKU-1")
	v := h.vendor(t, "Acme")
	employee := h.account(t, "Pat", core.AccountTypeEmployee)

	_, err := h.vendors.LinkVendor(h.ctx, core.VendorLinkInput{ProductID: p, VendorID: employee})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = h.vendors.LinkVendor(h.ctx, core.VendorLinkInput{ProductID: p, VendorID: v, LeadTimeDays: intPtr(-1)})
	assert.ErrorIs(t, err, core.ErrValidation)

	_, err = h.vendors.LinkVendor(h.ctx, core.VendorLinkInput{ProductID: 999, VendorID: v})
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = h.vendors.PreferredVendor(h.ctx, 999)
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func (h *harness) accountName(t *testing.T, id int) string {
	t.Helper()
	a, err := h.accounts.GetAccount(h.ctx, id)
	require.NoError(t, err)
	return a.Name
}

func intPtr(v int) *int { return &v }
