// internal/domain/cart/cart.go
package cart

import "time"

// Line is one product entry in a cart. The unit price is snapshotted when
// the line is added and is not re-read from the catalogue afterwards.
type Line struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"` // In cents
	Quantity  int    `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Subtotal returns unit price times quantity for this line
func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Cart is an explicit value object for a session-scoped shopping cart.
// It carries no persistence concerns; the Store loads and saves it keyed
// by session id.
type Cart struct {
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns an empty cart for the given session
func New(sessionID string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		SessionID: sessionID,
		Lines:     []Line{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Add puts a product into the cart. When override is true the stored
// quantity is replaced, otherwise the quantity is added to the existing
// line. Lines are unique per product; insertion order is preserved.
func (c *Cart) Add(productID uint, name string, unitPrice int64, quantity int, override bool) {
	if quantity < 1 {
		return
	}

	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			if override {
				c.Lines[i].Quantity = quantity
			} else {
				c.Lines[i].Quantity += quantity
			}
			c.Lines[i].UnitPrice = unitPrice
			c.Lines[i].Name = name
			c.UpdatedAt = time.Now().UTC()
			return
		}
	}

	c.Lines = append(c.Lines, Line{
		ProductID: productID,
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		AddedAt:   time.Now().UTC(),
	})
	c.UpdatedAt = time.Now().UTC()
}

// Remove deletes the line for the given product, if present
func (c *Cart) Remove(productID uint) {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

// Items returns the cart lines in insertion order. The slice is a copy;
// iterating it is finite and restartable.
func (c *Cart) Items() []Line {
	items := make([]Line, len(c.Lines))
	copy(items, c.Lines)
	return items
}

// Total returns the sum of all line subtotals in cents
func (c *Cart) Total() int64 {
	var total int64
	for _, line := range c.Lines {
		total += line.Subtotal()
	}
	return total
}

// Len returns the number of distinct product lines
func (c *Cart) Len() int {
	return len(c.Lines)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Clear removes all lines from the cart
func (c *Cart) Clear() {
	c.Lines = []Line{}
	c.UpdatedAt = time.Now().UTC()
}
