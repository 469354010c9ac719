// internal/domain/order/service_test.go
package order

import (
	"context"
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
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*Service, *cart.Store) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Order{}, &OrderItem{}, &StatusHistory{}))

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := &config.Config{}
	cfg.Session.CartTTL = time.Hour
	cfg.Session.PaymentTTL = time.Hour

	log := logrus.New()
	log.SetOutput(io.Discard)

	carts := cart.NewStore(client, cfg)
	return NewService(db, client, cfg, carts, log), carts
}

func testCreateRequest() *CreateRequest {
	return &CreateRequest{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		AddressLine1: "1 Analytical Way",
		City:         "London",
		PostalCode:   "EC1A",
		Country:      "GB",
	}
}

func TestCreateFreezesCartSnapshot(t *testing.T) {
	svc, carts := newTestService(t)
	ctx := context.Background()

	crt := cart.New("session-1")
	crt.Add(1, "Headphones", 15999, 2, false)
	crt.Add(2, "Keyboard", 8999, 1, false)
	require.NoError(t, carts.Save(ctx, crt))

	ord, err := svc.Create(ctx, 7, crt, testCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, uint(7), ord.UserID)
	assert.False(t, ord.Paid)
	assert.Equal(t, StatusPending, ord.Status)
	assert.Equal(t, int64(2*15999+8999), ord.TotalAmount)
	assert.Regexp(t, `^ORD-\d{8}-\d{5}$`, ord.OrderNumber)

	require.Len(t, ord.Items, 2)
	assert.Equal(t, int64(15999), ord.Items[0].UnitPrice)
	assert.Equal(t, int64(2*15999), ord.Items[0].TotalPrice)

	// The cart is cleared and the order id recorded for payment continuation
	loaded, err := carts.Load(ctx, "session-1")
	require.NoError(t, err)
	assert.True(t, loaded.IsEmpty())

	pending, err := svc.PendingOrderID(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, ord.ID, pending)
}

func TestCreateRecordsCustomerHistory(t *testing.T) {
	svc, carts := newTestService(t)
	ctx := context.Background()

	crt := cart.New("session-1")
	crt.Add(1, "Headphones", 15999, 1, false)
	require.NoError(t, carts.Save(ctx, crt))

	ord, err := svc.Create(ctx, 7, crt, testCreateRequest())
	require.NoError(t, err)

	full, err := svc.GetByID(ord.ID)
	require.NoError(t, err)
	require.Len(t, full.StatusHistory, 1)
	assert.Equal(t, ActorCustomer, full.StatusHistory[0].Actor)
	assert.Equal(t, uint(7), full.StatusHistory[0].ActorID)
	assert.Equal(t, StatusPending, full.StatusHistory[0].Status)
}

func TestCreateEmptyCart(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Create(context.Background(), 7, cart.New("session-1"), testCreateRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, err = svc.Create(context.Background(), 7, nil, testCreateRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestItemPricesSurviveCatalogueChanges(t *testing.T) {
	svc, carts := newTestService(t)
	ctx := context.Background()

	crt := cart.New("session-1")
	crt.Add(1, "Headphones", 15999, 1, false)
	require.NoError(t, carts.Save(ctx, crt))

	ord, err := svc.Create(ctx, 7, crt, testCreateRequest())
	require.NoError(t, err)

	// Order items are rows of their own; nothing links back to live prices
	reloaded, err := svc.GetByID(ord.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(15999), reloaded.Items[0].UnitPrice)
}

func createTestOrder(t *testing.T, svc *Service, carts *cart.Store, userID uint) *Order {
	t.Helper()

	crt := cart.New("session-" + time.Now().Format("150405.000000000"))
	crt.Add(1, "Headphones", 15999, 1, false)
	require.NoError(t, carts.Save(context.Background(), crt))

	ord, err := svc.Create(context.Background(), userID, crt, testCreateRequest())
	require.NoError(t, err)
	return ord
}

func TestMarkPaidAppliesOnce(t *testing.T) {
	svc, carts := newTestService(t)
	ord := createTestOrder(t, svc, carts, 7)

	applied, err := svc.MarkPaid(ord.ID, "pi_123")
	require.NoError(t, err)
	assert.True(t, applied)

	paid, err := svc.GetByID(ord.ID)
	require.NoError(t, err)
	assert.True(t, paid.Paid)
	assert.Equal(t, StatusProcessing, paid.Status)
	assert.Equal(t, "pi_123", paid.PaymentRef)

	// A repeat from the other confirmation path is a clean no-op
	applied, err = svc.MarkPaid(ord.ID, "pi_456")
	require.NoError(t, err)
	assert.False(t, applied)

	unchanged, err := svc.GetByID(ord.ID)
	require.NoError(t, err)
	assert.Equal(t, "pi_123", unchanged.PaymentRef)

	var paymentRows int64
	svc.db.Model(&StatusHistory{}).
		Where("order_id = ? AND actor = ?", ord.ID, ActorPayment).
		Count(&paymentRows)
	assert.Equal(t, int64(1), paymentRows)
}

func TestMarkPaidUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t)

	applied, err := svc.MarkPaid(999, "pi_123")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestOverrideStatus(t *testing.T) {
	svc, carts := newTestService(t)
	ord := createTestOrder(t, svc, carts, 7)

	updated, err := svc.OverrideStatus(ord.ID, StatusShipped, true, 42, "shipped early")
	require.NoError(t, err)
	assert.Equal(t, StatusShipped, updated.Status)
	assert.True(t, updated.Paid)

	var history StatusHistory
	require.NoError(t, svc.db.
		Where("order_id = ? AND actor = ?", ord.ID, ActorStaff).
		First(&history).Error)
	assert.Equal(t, uint(42), history.ActorID)
	assert.Equal(t, "shipped early", history.Comment)
}

func TestOverrideStatusRejectsUnknownStatus(t *testing.T) {
	svc, carts := newTestService(t)
	ord := createTestOrder(t, svc, carts, 7)

	_, err := svc.OverrideStatus(ord.ID, Status("refunded"), false, 42, "")
	assert.Error(t, err)
}

func TestOverrideStatusCanRevertPaymentState(t *testing.T) {
	svc, carts := newTestService(t)
	ord := createTestOrder(t, svc, carts, 7)

	_, err := svc.MarkPaid(ord.ID, "pi_123")
	require.NoError(t, err)

	// Staff writes win unconditionally; the audit trail names the actor
	reverted, err := svc.OverrideStatus(ord.ID, StatusPending, false, 42, "chargeback")
	require.NoError(t, err)
	assert.False(t, reverted.Paid)
	assert.Equal(t, StatusPending, reverted.Status)
}

func TestGetForUserEnforcesOwnership(t *testing.T) {
	svc, carts := newTestService(t)
	ord := createTestOrder(t, svc, carts, 7)

	_, err := svc.GetForUser(ord.ID, 8)
	assert.ErrorIs(t, err, ErrNotOwner)

	got, err := svc.GetForUser(ord.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, ord.ID, got.ID)

	_, err = svc.GetForUser(999, 7)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListFiltersByStatus(t *testing.T) {
	svc, carts := newTestService(t)

	first := createTestOrder(t, svc, carts, 7)
	createTestOrder(t, svc, carts, 7)

	_, err := svc.OverrideStatus(first.ID, StatusShipped, true, 42, "")
	require.NoError(t, err)

	shipped, err := svc.List(&ListRequest{Status: StatusShipped})
	require.NoError(t, err)
	assert.Equal(t, int64(1), shipped.Total)

	all, err := svc.List(&ListRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func TestListForUser(t *testing.T) {
	svc, carts := newTestService(t)

	createTestOrder(t, svc, carts, 7)
	createTestOrder(t, svc, carts, 8)

	mine, err := svc.ListForUser(7, 1, 20)
	require.NoError(t, err)
	require.Equal(t, int64(1), mine.Total)
	assert.Equal(t, uint(7), mine.Orders[0].UserID)
}
