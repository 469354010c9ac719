// internal/domain/payment/provider.go
package payment

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for the payment bridge
var (
	// ErrAlreadyPaid is informational: the order needs no further payment
	ErrAlreadyPaid = errors.New("order is already paid")

	// ErrBadSignature rejects a webhook at the boundary, before any
	// business logic runs.
	ErrBadSignature = errors.New("webhook signature verification failed")

	// ErrSessionMismatch is returned when a checkout session does not
	// reference the given order.
	ErrSessionMismatch = errors.New("checkout session does not match order")
)

// ProviderError wraps a failure from the external payment provider. These
// are recoverable: the caller reports a retry message and the order is
// never mutated.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("payment provider %s failed: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// LineItem is one product line sent to the provider, built from OrderItem
// rows and never recomputed from live catalogue prices.
type LineItem struct {
	Name       string
	UnitAmount int64 // In cents
	Quantity   int
}

// CheckoutParams describes the hosted checkout session to create
type CheckoutParams struct {
	LineItems     []LineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	OrderID       uint // Carried in session metadata for reconciliation
}

// CheckoutSession is a provider-hosted payment flow instance
type CheckoutSession struct {
	ID  string
	URL string // Redirect target for the customer
}

// SessionStatus is the provider's view of a checkout session
type SessionStatus struct {
	ID            string
	PaymentStatus string // "paid", "unpaid", ...
	PaymentIntent string // Provider payment reference
	OrderID       uint   // From session metadata; zero when absent
}

// Event is a provider webhook event after signature verification
type Event struct {
	ID            string
	Type          string
	OrderID       uint
	PaymentIntent string
}

// PaymentStatusPaid is the provider's terminal success status
const PaymentStatusPaid = "paid"

// EventCheckoutCompleted is the event type that confirms a checkout session
const EventCheckoutCompleted = "checkout.session.completed"

// Provider is the capability interface for the external card-payment
// processor, so the reconciliation logic can be tested against a fake
// implementation without network access.
type Provider interface {
	CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error)
	VerifyWebhookSignature(payload []byte, sigHeader string) (*Event, error)
}
