// internal/domain/order/entity.go
package order

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Status represents the staff-facing fulfillment state of an order,
// distinct from the Paid flag.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusCanceled   Status = "canceled"
)

// Valid reports whether s is a known status value
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusShipped, StatusCanceled:
		return true
	}
	return false
}

// Actor identifies which write path touched an order's status or paid flag
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorPayment  Actor = "payment"
	ActorStaff    Actor = "staff"
)

// Order represents the order header. Status and Paid are the only fields
// mutated after creation, by payment reconciliation or staff action.
type Order struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;not null;size:50" json:"order_number"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`

	// Contact fields captured from the checkout form
	FirstName string `gorm:"not null;size:100" json:"first_name"`
	LastName  string `gorm:"not null;size:100" json:"last_name"`
	Email     string `gorm:"not null;size:255" json:"email"`
	Phone     string `gorm:"size:20" json:"phone"`

	ShippingAddress Address `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	Paid       bool   `gorm:"not null;default:false" json:"paid"`
	Status     Status `gorm:"not null;default:'pending'" json:"status"`
	PaymentRef string `gorm:"size:255" json:"payment_ref"` // External payment reference

	TotalAmount int64 `gorm:"not null" json:"total_amount"` // In cents, fixed at creation

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Items         []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"`
	StatusHistory []StatusHistory `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"status_history,omitempty"`
}

// OrderItem represents one line of an order. Immutable once created; the
// unit price is frozen from the cart snapshot, independent of later
// catalogue price changes.
type OrderItem struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"not null;index" json:"order_id"`
	ProductID  uint      `gorm:"not null;index" json:"product_id"`
	Name       string    `gorm:"not null;size:255" json:"name"`
	UnitPrice  int64     `gorm:"not null" json:"unit_price"`  // Per unit, in cents
	Quantity   int       `gorm:"not null" json:"quantity"`
	TotalPrice int64     `gorm:"not null" json:"total_price"` // UnitPrice * Quantity
	CreatedAt  time.Time `json:"created_at"`
}

// StatusHistory is the audit trail for status/paid writes. Both the payment
// reconciliation path and the staff override path append here, so conflicts
// between them resolve as last-writer-wins with a recorded actor.
type StatusHistory struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	OrderID   uint      `gorm:"not null;index" json:"order_id"`
	Status    Status    `gorm:"not null" json:"status"`
	Paid      bool      `gorm:"not null" json:"paid"`
	Actor     Actor     `gorm:"not null;size:20" json:"actor"`
	ActorID   uint      `gorm:"index" json:"actor_id"` // Staff user id; zero for payment events
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Address represents a shipping address embedded in the order
type Address struct {
	AddressLine1 string `gorm:"size:255" json:"address_line1"`
	AddressLine2 string `gorm:"size:255" json:"address_line2"`
	City         string `gorm:"size:100" json:"city"`
	State        string `gorm:"size:100" json:"state"`
	PostalCode   string `gorm:"size:20" json:"postal_code"`
	Country      string `gorm:"size:2" json:"country"`
}

// TableName overrides
func (Order) TableName() string         { return "orders" }
func (OrderItem) TableName() string     { return "order_items" }
func (StatusHistory) TableName() string { return "order_status_history" }

// GetFormattedTotal returns total amount as dollars
func (o *Order) GetFormattedTotal() float64 {
	return float64(o.TotalAmount) / 100
}

// GetFullName returns the contact name on the order
func (o *Order) GetFullName() string {
	return fmt.Sprintf("%s %s", o.FirstName, o.LastName)
}
