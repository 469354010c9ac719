// internal/domain/payment/service.go
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/order"
)

// Service bridges orders to the external payment provider and reconciles
// session results back onto them. Both the synchronous confirm path and the
// asynchronous webhook path funnel into the same conditional MarkPaid
// transition, so their ordering does not matter.
type Service struct {
	redisClient *redis.Client
	config      *config.Config
	provider    Provider
	orders      *order.Service
	logger      *logrus.Logger
}

// NewService creates a new payment service
func NewService(redisClient *redis.Client, cfg *config.Config, provider Provider, orders *order.Service, logger *logrus.Logger) *Service {
	return &Service{
		redisClient: redisClient,
		config:      cfg,
		provider:    provider,
		orders:      orders,
		logger:      logger,
	}
}

// ConfirmResult reports the outcome of a synchronous confirmation attempt
type ConfirmResult struct {
	Confirmed bool         `json:"confirmed"`
	Pending   bool         `json:"pending"`
	Order     *order.Order `json:"order"`
}

// Begin starts payment for an order: it builds the provider line items from
// the frozen OrderItem rows, creates a hosted checkout session, records the
// session/order pair in request-scoped state, and returns the session with
// its redirect URL. Preconditions: the order exists, belongs to the caller,
// and is unpaid. No order state changes here; provider failures are
// recoverable and leave the order untouched.
func (s *Service) Begin(ctx context.Context, userID, orderID uint) (*CheckoutSession, error) {
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if ord.UserID != userID {
		return nil, order.ErrNotOwner
	}

	if ord.Paid {
		return nil, ErrAlreadyPaid
	}

	lineItems := make([]LineItem, 0, len(ord.Items))
	for _, item := range ord.Items {
		lineItems = append(lineItems, LineItem{
			Name:       item.Name,
			UnitAmount: item.UnitPrice,
			Quantity:   item.Quantity,
		})
	}

	successURL := fmt.Sprintf("%s?session_id={CHECKOUT_SESSION_ID}&order_id=%d",
		s.config.Stripe.SuccessURL, ord.ID)

	session, err := s.provider.CreateCheckoutSession(ctx, &CheckoutParams{
		LineItems:     lineItems,
		CustomerEmail: ord.Email,
		SuccessURL:    successURL,
		CancelURL:     s.config.Stripe.CancelURL,
		OrderID:       ord.ID,
	})
	if err != nil {
		return nil, err
	}

	if err := s.rememberSession(ctx, session.ID, ord.ID); err != nil {
		s.logger.WithError(err).WithField("order_id", ord.ID).
			Warn("failed to record payment session state")
	}

	return session, nil
}

// Confirm handles the customer's return from the hosted checkout. It looks
// the session up at the provider; when the session reports paid it applies
// the conditional MarkPaid transition, otherwise it reports pending and
// leaves the order untouched. Lookup failures mutate nothing.
func (s *Service) Confirm(ctx context.Context, userID, orderID uint, sessionID string) (*ConfirmResult, error) {
	ord, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if ord.UserID != userID {
		return nil, order.ErrNotOwner
	}

	status, err := s.provider.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if status.OrderID != 0 && status.OrderID != orderID {
		return nil, ErrSessionMismatch
	}

	if status.PaymentStatus != PaymentStatusPaid {
		return &ConfirmResult{Pending: true, Order: ord}, nil
	}

	applied, err := s.orders.MarkPaid(orderID, status.PaymentIntent)
	if err != nil {
		return nil, err
	}
	if !applied {
		// The webhook got there first; nothing left to do.
		s.logger.WithField("order_id", orderID).
			Debug("payment confirmation already applied")
	}

	confirmed, err := s.orders.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	return &ConfirmResult{Confirmed: true, Order: confirmed}, nil
}

// HandleWebhook applies an asynchronous provider event to order state. The
// signature is verified over the raw payload before anything else; bad
// signatures and malformed payloads are rejected without processing.
// Unrecognized event types and unknown orders are acknowledged silently.
// Applying the same event twice is a no-op.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := s.provider.VerifyWebhookSignature(payload, sigHeader)
	if err != nil {
		return err
	}

	if event.Type != EventCheckoutCompleted {
		s.logger.WithField("event_type", event.Type).Debug("ignoring webhook event")
		return nil
	}

	if event.OrderID == 0 {
		s.logger.WithField("event_id", event.ID).Warn("completed session without order metadata")
		return nil
	}

	if _, err := s.orders.GetByID(event.OrderID); err != nil {
		if errors.Is(err, order.ErrNotFound) {
			// The event may be stale or unrelated; acknowledge it.
			s.logger.WithField("order_id", event.OrderID).
				Info("webhook references unknown order")
			return nil
		}
		return err
	}

	applied, err := s.orders.MarkPaid(event.OrderID, event.PaymentIntent)
	if err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"event_id": event.ID,
		"order_id": event.OrderID,
		"applied":  applied,
	}).Info("webhook reconciled")

	return nil
}

// SessionOrderID returns the order recorded for a checkout session, or zero
// when the session is unknown or expired.
func (s *Service) SessionOrderID(ctx context.Context, sessionID string) (uint, error) {
	val, err := s.redisClient.Get(ctx, sessionKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to read payment session: %w", err)
	}

	var orderID uint
	if _, err := fmt.Sscanf(val, "%d", &orderID); err != nil {
		return 0, fmt.Errorf("failed to parse payment session: %w", err)
	}
	return orderID, nil
}

func (s *Service) rememberSession(ctx context.Context, sessionID string, orderID uint) error {
	return s.redisClient.Set(ctx, sessionKey(sessionID),
		fmt.Sprintf("%d", orderID), s.config.Session.PaymentTTL).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("payment:session:%s", sessionID)
}
