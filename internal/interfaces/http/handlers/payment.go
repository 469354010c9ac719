// internal/interfaces/http/handlers/payment.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/order"
	"github.com/your-org/storefront-backend/internal/domain/payment"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"gorm.io/gorm"
)

// PaymentHandler handles payment endpoints
type PaymentHandler struct {
	paymentService *payment.Service
	orderService   *order.Service
	config         *config.Config
	logger         *logrus.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config, provider payment.Provider, logger *logrus.Logger) *PaymentHandler {
	carts := cart.NewStore(redisClient, cfg)
	orderService := order.NewService(db, redisClient, cfg, carts, logger)

	return &PaymentHandler{
		paymentService: payment.NewService(redisClient, cfg, provider, orderService, logger),
		orderService:   orderService,
		config:         cfg,
		logger:         logger,
	}
}

// CheckoutRequest identifies the order to pay for. When order_id is omitted
// the pending order recorded at checkout is used.
type CheckoutRequest struct {
	OrderID uint `json:"order_id"`
}

// BeginCheckout handles POST /payment/checkout. It creates a hosted payment
// session for the order and returns the redirect URL.
func (h *PaymentHandler) BeginCheckout(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	// The body is optional; without it the pending order from checkout is used
	var req CheckoutRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request data",
				"details": err.Error(),
			})
			return
		}
	}

	orderID := req.OrderID
	if orderID == 0 {
		sessionID := SessionIDFromRequest(c)
		if sessionID != "" {
			pending, err := h.orderService.PendingOrderID(c.Request.Context(), sessionID)
			if err != nil {
				h.logger.WithError(err).Warn("failed to read pending order")
			}
			orderID = pending
		}
	}
	if orderID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "No order to pay for",
		})
		return
	}

	session, err := h.paymentService.Begin(c.Request.Context(), userID, orderID)
	if err != nil {
		writePaymentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Checkout session created",
		"data": gin.H{
			"session_id":   session.ID,
			"checkout_url": session.URL,
		},
	})
}

// CompleteCheckout handles GET /payment/completed. The customer lands here
// after the hosted payment page; the handler verifies the session against
// the provider before treating the order as paid. The webhook remains the
// authoritative confirmation path.
func (h *PaymentHandler) CompleteCheckout(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "User not authenticated",
		})
		return
	}

	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "session_id is required",
		})
		return
	}

	orderID, err := h.paymentService.SessionOrderID(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to resolve payment session",
		})
		return
	}
	if orderID == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Unknown payment session",
		})
		return
	}

	result, err := h.paymentService.Confirm(c.Request.Context(), userID, orderID, sessionID)
	if err != nil {
		writePaymentError(c, err)
		return
	}

	if result.Pending {
		c.JSON(http.StatusOK, gin.H{
			"message": "Payment not completed yet",
			"data": gin.H{
				"paid":  false,
				"order": result.Order,
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Payment confirmed",
		"data": gin.H{
			"paid":  true,
			"order": result.Order,
		},
	})
}

// CancelCheckout handles GET /payment/canceled. Nothing about the order
// changes; it stays pending and payable.
func (h *PaymentHandler) CancelCheckout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment canceled, the order is still awaiting payment",
	})
}

// StripeWebhook handles POST /webhooks/stripe. Signature verification runs
// against the raw body before anything is parsed; bad signatures are
// rejected, everything else is acknowledged so the provider stops retrying.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")

	if err := h.paymentService.HandleWebhook(c.Request.Context(), payload, sigHeader); err != nil {
		if errors.Is(err, payment.ErrBadSignature) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid signature",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to process event",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received": true,
	})
}

// writePaymentError maps payment and order errors to HTTP responses
func writePaymentError(c *gin.Context, err error) {
	var providerErr *payment.ProviderError
	switch {
	case errors.Is(err, order.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Order not found",
		})
	case errors.Is(err, order.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied",
		})
	case errors.Is(err, payment.ErrAlreadyPaid):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Order is already paid",
		})
	case errors.Is(err, payment.ErrSessionMismatch):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Payment session does not match the order",
		})
	case errors.As(err, &providerErr):
		// Provider outages are recoverable for the customer
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Payment provider is unavailable, please try again",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Payment operation failed",
		})
	}
}
