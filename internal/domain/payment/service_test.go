// internal/domain/payment/service_test.go
package payment

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// fakeProvider scripts provider responses so reconciliation logic can be
// exercised without network access
type fakeProvider struct {
	session    *CheckoutSession
	status     *SessionStatus
	event      *Event
	createErr  error
	retrieveEr error
	verifyErr  error

	lastParams *CheckoutParams
}

func (f *fakeProvider) CreateCheckoutSession(ctx context.Context, params *CheckoutParams) (*CheckoutSession, error) {
	f.lastParams = params
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.session, nil
}

func (f *fakeProvider) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	if f.retrieveEr != nil {
		return nil, f.retrieveEr
	}
	return f.status, nil
}

func (f *fakeProvider) VerifyWebhookSignature(payload []byte, sigHeader string) (*Event, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.event, nil
}

func newTestService(t *testing.T, provider Provider) (*Service, *order.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&order.Order{}, &order.OrderItem{}, &order.StatusHistory{}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Session.CartTTL = time.Hour
	cfg.Session.PaymentTTL = time.Hour
	cfg.Stripe.SuccessURL = "http://localhost:3000/payment/success"
	cfg.Stripe.CancelURL = "http://localhost:3000/payment/canceled"

	log := logrus.New()
	log.SetOutput(io.Discard)

	carts := cart.NewStore(client, cfg)
	orders := order.NewService(db, client, cfg, carts, log)

	return NewService(client, cfg, provider, orders, log), orders, db
}

func seedOrder(t *testing.T, db *gorm.DB, userID uint, paid bool) *order.Order {
	t.Helper()

	ord := &order.Order{
		OrderNumber: "ORD-20260901-00001",
		UserID:      userID,
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Email:       "ada@example.com",
		Paid:        paid,
		Status:      order.StatusPending,
		TotalAmount: 2 * 15999,
		Items: []order.OrderItem{
			{ProductID: 1, Name: "Headphones", UnitPrice: 15999, Quantity: 2, TotalPrice: 2 * 15999},
		},
	}
	if paid {
		ord.Status = order.StatusProcessing
	}
	require.NoError(t, db.Create(ord).Error)
	return ord
}

func TestBeginCreatesCheckoutSession(t *testing.T) {
	provider := &fakeProvider{
		session: &CheckoutSession{ID: "cs_123", URL: "https://checkout.example/cs_123"},
	}
	svc, _, db := newTestService(t, provider)
	ord := seedOrder(t, db, 7, false)

	session, err := svc.Begin(context.Background(), 7, ord.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_123", session.ID)
	assert.Equal(t, "https://checkout.example/cs_123", session.URL)

	// Line items come from the frozen order items, not the catalogue
	require.NotNil(t, provider.lastParams)
	require.Len(t, provider.lastParams.LineItems, 1)
	assert.Equal(t, int64(15999), provider.lastParams.LineItems[0].UnitAmount)
	assert.Equal(t, 2, provider.lastParams.LineItems[0].Quantity)
	assert.Equal(t, ord.ID, provider.lastParams.OrderID)
	assert.Equal(t, "ada@example.com", provider.lastParams.CustomerEmail)
	assert.Contains(t, provider.lastParams.SuccessURL, "{CHECKOUT_SESSION_ID}")

	// The session/order pair is remembered for the return leg
	orderID, err := svc.SessionOrderID(context.Background(), "cs_123")
	require.NoError(t, err)
	assert.Equal(t, ord.ID, orderID)
}

func TestBeginEnforcesOwnership(t *testing.T) {
	svc, _, db := newTestService(t, &fakeProvider{})
	ord := seedOrder(t, db, 7, false)

	_, err := svc.Begin(context.Background(), 8, ord.ID)
	assert.ErrorIs(t, err, order.ErrNotOwner)
}

func TestBeginAlreadyPaid(t *testing.T) {
	svc, _, db := newTestService(t, &fakeProvider{})
	ord := seedOrder(t, db, 7, true)

	_, err := svc.Begin(context.Background(), 7, ord.ID)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestBeginUnknownOrder(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeProvider{})

	_, err := svc.Begin(context.Background(), 7, 999)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestBeginProviderFailureLeavesOrderUntouched(t *testing.T) {
	provider := &fakeProvider{
		createErr: &ProviderError{Op: "create checkout session", Err: errors.New("boom")},
	}
	svc, orders, db := newTestService(t, provider)
	ord := seedOrder(t, db, 7, false)

	_, err := svc.Begin(context.Background(), 7, ord.ID)
	assert.Error(t, err)

	unchanged, err := orders.GetByID(ord.ID)
	require.NoError(t, err)
	assert.False(t, unchanged.Paid)
	assert.Equal(t, order.StatusPending, unchanged.Status)
}

func TestConfirmPaidSession(t *testing.T) {
	provider := &fakeProvider{}
	svc, _, db := newTestService(t, provider)
	ord := seedOrder(t, db, 7, false)

	provider.status = &SessionStatus{
		ID:            "cs_123",
		PaymentStatus: PaymentStatusPaid,
		PaymentIntent: "pi_123",
		OrderID:       ord.ID,
	}

	result, err := svc.Confirm(context.Background(), 7, ord.ID, "cs_123")
	require.NoError(t, err)
	assert.True(t, result.Confirmed)
	assert.False(t, result.Pending)
	assert.True(t, result.Order.Paid)
	assert.Equal(t, order.StatusProcessing, result.Order.Status)
	assert.Equal(t, "pi_123", result.Order.PaymentRef)
}

func TestConfirmUnpaidSessionReportsPending(t *testing.T) {
	provider := &fakeProvider{
		status: &SessionStatus{ID: "cs_123", PaymentStatus: "unpaid"},
	}
	svc, orders, db := newTestService(t, provider)
	ord := seedOrder(t, db, 7, false)

	result, err := svc.Confirm(context.Background(), 7, ord.ID, "cs_123")
	require.NoError(t, err)
	assert.True(t, result.Pending)
	assert.False(t, result.Confirmed)

	unchanged, err := orders.GetByID(ord.ID)
	require.NoError(t, err)
	assert.False(t, unchanged.Paid)
}

func TestConfirmSessionMismatch(t *testing.T) {
	provider := &fakeProvider{
		status: &SessionStatus{
			ID:            "cs_123",
			PaymentStatus: PaymentStatusPaid,
			OrderID:       999,
		},
	}
	svc, orders, db := newTestService(t, provider)
	ord := seedOrder(t, db, 7, false)

	_, err := svc.Confirm(context.Background(), 7, ord.ID, "cs_123")
	assert.ErrorIs(t, err, ErrSessionMismatch)

	unchanged, err := orders.GetByID(ord.ID)
	require.NoError(t, err)
	assert.False(t, unchanged.Paid)
}

func TestConfirmEnforcesOwnership(t *testing.T) {
	svc, _, db := newTestService(t, &fakeProvider{})
	ord := seedOrder(t, db, 7, false)

	_, err := svc.Confirm(context.Background(), 8, ord.ID, "cs_123")
	assert.ErrorIs(t, err, order.ErrNotOwner)
}

func TestWebhookAppliesPayment(t *testing.T) {
	provider := &fakeProvider{}
	svc, orders, db := newTestService(t, provider)
	ord := seedOrder(t, db, 7, false)

	provider.event = &Event{
		ID:            "evt_1",
		Type:          EventCheckoutCompleted,
		OrderID:       ord.ID,
		PaymentIntent: "pi_123",
	}

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	paid, err := orders.GetByID(ord.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.Equal(t, "pi_123", paid.PaymentRef)
}

func TestWebhookBadSignature(t *testing.T) {
	provider := &fakeProvider{verifyErr: ErrBadSignature}
	svc, orders, db := newTestService(t, provider)
	ord := seedOrder(t, db, 7, false)

	err := svc.HandleWebhook(context.Background(), []byte("{}"), "bad")
	assert.ErrorIs(t, err, ErrBadSignature)

	unchanged, err := orders.GetByID(ord.ID)
	require.NoError(t, err)
	assert.False(t, unchanged.Paid)
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	provider := &fakeProvider{
		event: &Event{ID: "evt_1", Type: "payment_intent.created", OrderID: 1},
	}
	svc, _, db := newTestService(t, provider)
	seedOrder(t, db, 7, false)

	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
}

func TestWebhookAcknowledgesUnknownOrder(t *testing.T) {
	provider := &fakeProvider{
		event: &Event{ID: "evt_1", Type: EventCheckoutCompleted, OrderID: 999},
	}
	svc, _, _ := newTestService(t, provider)

	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
}

func TestWebhookAcknowledgesMissingOrderMetadata(t *testing.T) {
	provider := &fakeProvider{
		event: &Event{ID: "evt_1", Type: EventCheckoutCompleted, OrderID: 0},
	}
	svc, _, _ := newTestService(t, provider)

	assert.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))
}

func TestConfirmAndWebhookAreIdempotentTogether(t *testing.T) {
	provider := &fakeProvider{}
	svc, orders, db := newTestService(t, provider)
	ord := seedOrder(t, db, 7, false)

	provider.status = &SessionStatus{
		ID:            "cs_123",
		PaymentStatus: PaymentStatusPaid,
		PaymentIntent: "pi_123",
		OrderID:       ord.ID,
	}
	provider.event = &Event{
		ID:            "evt_1",
		Type:          EventCheckoutCompleted,
		OrderID:       ord.ID,
		PaymentIntent: "pi_retry",
	}

	// Synchronous confirm lands first, then the webhook repeats the news
	result, err := svc.Confirm(context.Background(), 7, ord.ID, "cs_123")
	require.NoError(t, err)
	assert.True(t, result.Confirmed)

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	final, err := orders.GetByID(ord.ID)
	require.NoError(t, err)
	assert.True(t, final.Paid)
	assert.Equal(t, "pi_123", final.PaymentRef)

	var paymentRows int64
	db.Model(&order.StatusHistory{}).
		Where("order_id = ? AND actor = ?", ord.ID, order.ActorPayment).
		Count(&paymentRows)
	assert.Equal(t, int64(1), paymentRows)
}

func TestWebhookThenConfirm(t *testing.T) {
	provider := &fakeProvider{}
	svc, orders, db := newTestService(t, provider)
	ord := seedOrder(t, db, 7, false)

	provider.event = &Event{
		ID:            "evt_1",
		Type:          EventCheckoutCompleted,
		OrderID:       ord.ID,
		PaymentIntent: "pi_123",
	}
	provider.status = &SessionStatus{
		ID:            "cs_123",
		PaymentStatus: PaymentStatusPaid,
		PaymentIntent: "pi_retry",
		OrderID:       ord.ID,
	}

	require.NoError(t, svc.HandleWebhook(context.Background(), []byte("{}"), "sig"))

	result, err := svc.Confirm(context.Background(), 7, ord.ID, "cs_123")
	require.NoError(t, err)
	assert.True(t, result.Confirmed)

	final, err := orders.GetByID(ord.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", final.PaymentRef)
}

func TestSessionOrderIDUnknownSession(t *testing.T) {
	svc, _, _ := newTestService(t, &fakeProvider{})

	orderID, err := svc.SessionOrderID(context.Background(), "cs_missing")
	require.NoError(t, err)
	assert.Zero(t, orderID)
}
