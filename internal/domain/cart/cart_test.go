// internal/domain/cart/cart_test.go
package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAccumulatesQuantity(t *testing.T) {
	c := New("session-1")

	c.Add(1, "Headphones", 15999, 2, false)
	c.Add(1, "Headphones", 15999, 3, false)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, int64(5*15999), c.Total())
}

func TestAddOverrideReplacesQuantity(t *testing.T) {
	c := New("session-1")

	c.Add(1, "Headphones", 15999, 2, false)
	c.Add(1, "Headphones", 15999, 1, true)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)
}

func TestAddRefreshesPriceAndName(t *testing.T) {
	c := New("session-1")

	c.Add(1, "Headphones", 15999, 1, false)
	c.Add(1, "Headphones v2", 17999, 1, false)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Headphones v2", items[0].Name)
	assert.Equal(t, int64(17999), items[0].UnitPrice)
	assert.Equal(t, 2, items[0].Quantity)
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	c := New("session-1")

	c.Add(3, "Book", 3499, 1, false)
	c.Add(1, "Headphones", 15999, 1, false)
	c.Add(2, "Keyboard", 8999, 1, false)
	c.Add(3, "Book", 3499, 2, false)

	items := c.Items()
	require.Len(t, items, 3)
	assert.Equal(t, uint(3), items[0].ProductID)
	assert.Equal(t, uint(1), items[1].ProductID)
	assert.Equal(t, uint(2), items[2].ProductID)
}

func TestRemove(t *testing.T) {
	c := New("session-1")

	c.Add(1, "Headphones", 15999, 1, false)
	c.Add(2, "Keyboard", 8999, 2, false)

	c.Remove(1)

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, uint(2), items[0].ProductID)
	assert.Equal(t, int64(2*8999), c.Total())

	// Removing an absent product is a no-op
	c.Remove(42)
	assert.Equal(t, 1, c.Len())
}

func TestTotalSumsLineSubtotals(t *testing.T) {
	c := New("session-1")

	c.Add(1, "Headphones", 15999, 2, false)
	c.Add(2, "Keyboard", 8999, 1, false)

	assert.Equal(t, int64(2*15999+8999), c.Total())
}

func TestClear(t *testing.T) {
	c := New("session-1")

	c.Add(1, "Headphones", 15999, 1, false)
	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.Equal(t, int64(0), c.Total())
	assert.Equal(t, "session-1", c.SessionID)
}

func TestEmptyCart(t *testing.T) {
	c := New("session-1")

	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, int64(0), c.Total())
	assert.Empty(t, c.Items())
}
