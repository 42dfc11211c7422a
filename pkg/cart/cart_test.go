package cart

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phone() Item {
	return Item{ProductID: 1, Name: "Pixel 9", Slug: "pixel-9", Price: 999, Image: "/uploads/p.png"}
}

func watch() Item {
	return Item{ProductID: 2, Name: "Galaxy Watch 7", Slug: "galaxy-watch-7", Price: 299, Image: "/uploads/w.png"}
}

// checkTotals verifies the derived totals against the lines themselves.
func checkTotals(t *testing.T, c *Cart) {
	t.Helper()
	var qty uint
	var price float64
	for _, it := range c.Items {
		qty += it.Quantity
		price += it.Price * float64(it.Quantity)
	}
	assert.Equal(t, qty, c.TotalQuantity)
	assert.InDelta(t, price, c.TotalPrice, 1e-9)
}

func TestAddItem_MergesByProduct(t *testing.T) {
	c := New(nil)

	require.NoError(t, c.AddItem(phone(), 1))
	require.NoError(t, c.AddItem(watch(), 2))
	require.NoError(t, c.AddItem(phone(), 1))

	require.Len(t, c.Items, 2)
	assert.Equal(t, uint(2), c.Items[0].Quantity)
	assert.Equal(t, uint(4), c.TotalQuantity)
	checkTotals(t, c)
}

func TestAddItem_ZeroQuantityCountsAsOne(t *testing.T) {
	c := New(nil)

	require.NoError(t, c.AddItem(phone(), 0))
	assert.Equal(t, uint(1), c.TotalQuantity)
}

func TestRemoveItem(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.AddItem(phone(), 1))
	require.NoError(t, c.AddItem(watch(), 3))

	require.NoError(t, c.RemoveItem(1))
	require.Len(t, c.Items, 1)
	assert.Equal(t, uint(2), c.Items[0].ProductID)
	checkTotals(t, c)

	// removing an unknown product is a no-op
	require.NoError(t, c.RemoveItem(99))
	assert.Len(t, c.Items, 1)
}

func TestSetQuantity(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.AddItem(phone(), 1))

	require.NoError(t, c.SetQuantity(1, 5))
	assert.Equal(t, uint(5), c.TotalQuantity)
	assert.InDelta(t, 999*5, c.TotalPrice, 1e-9)
	checkTotals(t, c)
}

func TestClear(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.AddItem(phone(), 2))
	require.False(t, c.IsEmpty())

	require.NoError(t, c.Clear())
	assert.True(t, c.IsEmpty())
	assert.Zero(t, c.TotalQuantity)
	assert.Zero(t, c.TotalPrice)
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "cart.json")}

	c := New(store)
	require.NoError(t, c.AddItem(phone(), 2))
	require.NoError(t, c.AddItem(watch(), 1))

	restored, err := Load(store)
	require.NoError(t, err)
	require.Len(t, restored.Items, 2)
	assert.Equal(t, c.TotalQuantity, restored.TotalQuantity)
	assert.InDelta(t, c.TotalPrice, restored.TotalPrice, 1e-9)
	checkTotals(t, restored)
}

func TestLoad_MissingSnapshotIsEmptyCart(t *testing.T) {
	store := &FileStore{Path: filepath.Join(t.TempDir(), "cart.json")}

	c, err := Load(store)
	require.NoError(t, err)
	assert.True(t, c.IsEmpty())
}
