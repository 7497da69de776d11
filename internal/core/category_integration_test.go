package core_test

import (
	"testing"

	"stock-ledger/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategory_CyclePrevention(t *testing.T) {
	h := newHarness(t)

	a, err := h.categories.Create(h.ctx, "Electronics", nil)
	require.NoError(t, err)
	b, err := h.categories.Create(h.ctx, "Audio", &a.ID)
	require.NoError(t, err)
	c, err := h.categories.Create(h.ctx, "Headphones", &b.ID)
	require.NoError(t, err)

	t.Run("parent under its child", func(t *testing.T) {
		_, err := h.categories.UpdateParent(h.ctx, a.ID, &b.ID)
		require.ErrorIs(t, err, core.ErrCycleDetected)
		assert.ErrorIs(t, err, core.ErrValidation)
	})

	t.Run("parent under its grandchild", func(t *testing.T) {
		_, err := h.categories.UpdateParent(h.ctx, a.ID, &c.ID)
		require.ErrorIs(t, err, core.ErrCycleDetected)
	})

	t.Run("self parent", func(t *testing.T) {
		_, err := h.categories.UpdateParent(h.ctx, a.ID, &a.ID)
		require.ErrorIs(t, err, core.ErrSelfParent)
	})

	got, err := h.categories.Get(h.ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.ParentID, "rejected moves leave the parent unchanged")

	t.Run("legal move to root", func(t *testing.T) {
		moved, err := h.categories.UpdateParent(h.ctx, c.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, moved.ParentID)
	})
}

func TestCategory_PathAndTree(t *testing.T) {
	h := newHarness(t)

	a, err := h.categories.Create(h.ctx, "Electronics", nil)
	require.NoError(t, err)
	b, err := h.categories.Create(h.ctx, "Audio", &a.ID)
	require.NoError(t, err)
	c, err := h.categories.Create(h.ctx, "Headphones", &b.ID)
	require.NoError(t, err)

	path, err := h.categories.PathString(h.ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Electronics > Audio > Headphones", path)

	tree, err := h.categories.Tree(h.ctx)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "Headphones", tree[0].Children[0].Children[0].Name)

	_, err = h.categories.Create(h.ctx, "audio", &a.ID)
	assert.ErrorIs(t, err, core.ErrConflict, "sibling names are unique case-insensitively")

	_, err = h.categories.Create(h.ctx, "  ", nil)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestCategory_DeleteUnassignsProducts(t *testing.T) {
	h := newHarness(t)

	parent, err := h.categories.Create(h.ctx, "Garden", nil)
	require.NoError(t, err)
	leaf, err := h.categories.Create(h.ctx, "Tools", &parent.ID)
	require.NoError(t, err)

	p1 := h.product(t, "SKU-1")
	p2 := h.product(t, "SKU-2")
	for _, id := range []int{p1, p2} {
		_, err := h.catalog.AssignCategory(h.ctx, id, &leaf.ID)
		require.NoError(t, err)
	}

	_, err = h.categories.Delete(h.ctx, parent.ID)
	require.ErrorIs(t, err, core.ErrValidation, "categories with children cannot be deleted")

	n, err := h.categories.Delete(h.ctx, leaf.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	prod, err := h.catalog.GetProduct(h.ctx, p1)
	require.NoError(t, err)
	assert.Nil(t, prod.CategoryID)

	_, err = h.categories.Get(h.ctx, leaf.ID)
	assert.ErrorIs(t, err, core.ErrNotFound)
}
