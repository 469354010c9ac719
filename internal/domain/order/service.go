// internal/domain/order/service.go
package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"gorm.io/gorm"
)

// Sentinel errors for the order lifecycle
var (
	// ErrEmptyCart is returned before any persistence when order creation
	// is attempted with an empty cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrNotFound is returned when an order does not exist
	ErrNotFound = errors.New("order not found")

	// ErrNotOwner is returned when an order does not belong to the caller
	ErrNotOwner = errors.New("order does not belong to user")
)

// Service handles order business logic
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	config      *config.Config
	carts       *cart.Store
	logger      *logrus.Logger
}

// NewService creates a new order service
func NewService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, carts *cart.Store, logger *logrus.Logger) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		config:      cfg,
		carts:       carts,
		logger:      logger,
	}
}

// CreateRequest represents the validated shipping/contact form. Fields are
// bound and validated at the HTTP boundary before the entity is touched.
type CreateRequest struct {
	FirstName    string `json:"first_name" binding:"required,max=100"`
	LastName     string `json:"last_name" binding:"required,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"omitempty,max=20"`
	AddressLine1 string `json:"address_line1" binding:"required,max=255"`
	AddressLine2 string `json:"address_line2" binding:"omitempty,max=255"`
	City         string `json:"city" binding:"required,max=100"`
	State        string `json:"state" binding:"omitempty,max=100"`
	PostalCode   string `json:"postal_code" binding:"required,max=20"`
	Country      string `json:"country" binding:"required,len=2"`
}

// ListRequest represents order list query parameters
type ListRequest struct {
	Page   int    `form:"page,default=1"`
	Limit  int    `form:"limit,default=20"`
	Status Status `form:"status"`
	UserID uint   `form:"-"`
}

// ListResponse represents a page of orders
type ListResponse struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// Create atomically creates an order from a cart snapshot: the header in
// pending/unpaid state, one item per cart line with the price frozen from
// the snapshot, then clears the cart and records the order id in session
// state for payment continuation. The empty-cart check happens before any
// persistence; any failure inside the transaction rolls the whole order
// back.
func (s *Service) Create(ctx context.Context, userID uint, crt *cart.Cart, req *CreateRequest) (*Order, error) {
	if crt == nil || crt.IsEmpty() {
		return nil, ErrEmptyCart
	}

	newOrder := Order{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		ShippingAddress: Address{
			AddressLine1: req.AddressLine1,
			AddressLine2: req.AddressLine2,
			City:         req.City,
			State:        req.State,
			PostalCode:   req.PostalCode,
			Country:      req.Country,
		},
		Paid:        false,
		Status:      StatusPending,
		TotalAmount: crt.Total(),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&newOrder).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		newOrder.OrderNumber = generateOrderNumber(newOrder.ID)
		if err := tx.Model(&newOrder).Update("order_number", newOrder.OrderNumber).Error; err != nil {
			return fmt.Errorf("failed to update order number: %w", err)
		}

		for _, line := range crt.Items() {
			item := OrderItem{
				OrderID:    newOrder.ID,
				ProductID:  line.ProductID,
				Name:       line.Name,
				UnitPrice:  line.UnitPrice,
				Quantity:   line.Quantity,
				TotalPrice: line.Subtotal(),
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
		}

		history := StatusHistory{
			OrderID: newOrder.ID,
			Status:  StatusPending,
			Paid:    false,
			Actor:   ActorCustomer,
			ActorID: userID,
			Comment: "Order created",
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("failed to create status history: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// The order exists; clearing the cart and remembering the order id for
	// payment continuation are best-effort.
	if err := s.carts.Delete(ctx, crt.SessionID); err != nil {
		s.logger.WithError(err).WithField("session_id", crt.SessionID).
			Warn("failed to clear cart after order creation")
	}

	if err := s.rememberPendingOrder(ctx, crt.SessionID, newOrder.ID); err != nil {
		s.logger.WithError(err).WithField("order_id", newOrder.ID).
			Warn("failed to record pending order in session state")
	}

	if err := s.db.Preload("Items").First(&newOrder, newOrder.ID).Error; err != nil {
		return nil, fmt.Errorf("failed to load created order: %w", err)
	}

	return &newOrder, nil
}

// GetByID retrieves a single order with items and history
func (s *Service) GetByID(id uint) (*Order, error) {
	var ord Order
	result := s.db.
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC")
		}).
		First(&ord, id)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", result.Error)
	}

	return &ord, nil
}

// GetForUser retrieves an order and enforces ownership
func (s *Service) GetForUser(id, userID uint) (*Order, error) {
	ord, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if ord.UserID != userID {
		return nil, ErrNotOwner
	}
	return ord, nil
}

// List retrieves orders with optional status filter and pagination
func (s *Service) List(req *ListRequest) (*ListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 || req.Limit > 100 {
		req.Limit = 20
	}

	query := s.db.Model(&Order{}).Preload("Items")

	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.UserID > 0 {
		query = query.Where("user_id = ?", req.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []Order
	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return &ListResponse{
		Orders: orders,
		Total:  total,
		Page:   req.Page,
		Limit:  req.Limit,
	}, nil
}

// ListForUser retrieves the order history for one user
func (s *Service) ListForUser(userID uint, page, limit int) (*ListResponse, error) {
	return s.List(&ListRequest{Page: page, Limit: limit, UserID: userID})
}

// MarkPaid applies the payment confirmation transition: paid=true,
// status=processing, store the provider's payment reference. The update is
// conditional on paid still being false, so the synchronous confirm path
// and the webhook path can race or repeat; only the first application takes
// effect and repeats are clean no-ops. Returns whether this call applied
// the transition.
func (s *Service) MarkPaid(orderID uint, paymentRef string) (bool, error) {
	result := s.db.Model(&Order{}).
		Where("id = ? AND paid = ?", orderID, false).
		Updates(map[string]interface{}{
			"paid":        true,
			"status":      StatusProcessing,
			"payment_ref": paymentRef,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", result.Error)
	}

	applied := result.RowsAffected > 0
	if applied {
		history := StatusHistory{
			OrderID: orderID,
			Status:  StatusProcessing,
			Paid:    true,
			Actor:   ActorPayment,
			Comment: "Payment confirmed",
		}
		if err := s.db.Create(&history).Error; err != nil {
			s.logger.WithError(err).WithField("order_id", orderID).
				Warn("failed to record payment status history")
		}
	}

	return applied, nil
}

// OverrideStatus is the staff dashboard path: it sets status and paid
// unconditionally to the submitted values, with no transition table, and
// records the staff actor in the audit trail. It can conflict with the
// payment-driven path; the history rows make the last writer identifiable.
func (s *Service) OverrideStatus(orderID uint, status Status, paid bool, staffID uint, comment string) (*Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown order status %q", status)
	}

	var ord Order
	if err := s.db.First(&ord, orderID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to retrieve order: %w", err)
	}

	if err := s.db.Model(&ord).Updates(map[string]interface{}{
		"status": status,
		"paid":   paid,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	history := StatusHistory{
		OrderID: orderID,
		Status:  status,
		Paid:    paid,
		Actor:   ActorStaff,
		ActorID: staffID,
		Comment: comment,
	}
	if err := s.db.Create(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to create status history: %w", err)
	}

	return s.GetByID(orderID)
}

// PendingOrderID returns the order id recorded in session state after
// checkout, for payment continuation. Zero means none is pending.
func (s *Service) PendingOrderID(ctx context.Context, sessionID string) (uint, error) {
	val, err := s.redisClient.Get(ctx, pendingOrderKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("failed to read pending order: %w", err)
	}

	id, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("failed to parse pending order id: %w", err)
	}
	return uint(id), nil
}

func (s *Service) rememberPendingOrder(ctx context.Context, sessionID string, orderID uint) error {
	return s.redisClient.Set(ctx, pendingOrderKey(sessionID),
		strconv.FormatUint(uint64(orderID), 10), s.config.Session.PaymentTTL).Err()
}

func pendingOrderKey(sessionID string) string {
	return fmt.Sprintf("checkout:order:%s", sessionID)
}

func generateOrderNumber(orderID uint) string {
	// Format: ORD-YYYYMMDD-XXXXX
	return fmt.Sprintf("ORD-%s-%05d", time.Now().Format("20060102"), orderID)
}
