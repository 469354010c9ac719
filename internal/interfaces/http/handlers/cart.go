// internal/interfaces/http/handlers/cart.go
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/cart"
	"github.com/your-org/storefront-backend/internal/domain/product"
	"gorm.io/gorm"
)

// sessionCookieName identifies the anonymous cart session
const sessionCookieName = "cart_session"

// CartHandler handles cart endpoints
type CartHandler struct {
	carts          *cart.Store
	productService *product.Service
	config         *config.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *CartHandler {
	return &CartHandler{
		carts:          cart.NewStore(redisClient, cfg),
		productService: product.NewService(db),
		config:         cfg,
	}
}

// AddItemRequest represents the add-to-cart payload
type AddItemRequest struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required,min=1,max=20"`
	Override  bool `json:"override"`
}

// UpdateItemRequest represents the set-quantity payload
type UpdateItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=20"`
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	sessionID := h.sessionID(c)

	crt, err := h.carts.Load(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": cartResponse(crt),
	})
}

// AddItem handles POST /cart/items. The product's current price is
// snapshotted into the cart line; later catalogue changes do not touch it.
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	prod, err := h.productService.GetByID(req.ProductID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Product not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve product",
		})
		return
	}

	if !prod.IsInStock() {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Product is out of stock",
		})
		return
	}

	sessionID := h.sessionID(c)
	crt, err := h.carts.Load(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load cart",
		})
		return
	}

	crt.Add(prod.ID, prod.Name, prod.Price, req.Quantity, req.Override)

	if err := h.carts.Save(c.Request.Context(), crt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item added to cart",
		"data":    cartResponse(crt),
	})
}

// UpdateItem handles PUT /cart/items/:product_id
func (h *CartHandler) UpdateItem(c *gin.Context) {
	productID, err := parseUintParam(c, "product_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	sessionID := h.sessionID(c)
	crt, err := h.carts.Load(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load cart",
		})
		return
	}

	found := false
	for _, line := range crt.Items() {
		if line.ProductID == productID {
			crt.Add(line.ProductID, line.Name, line.UnitPrice, req.Quantity, true)
			found = true
			break
		}
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Item not in cart",
		})
		return
	}

	if err := h.carts.Save(c.Request.Context(), crt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart updated",
		"data":    cartResponse(crt),
	})
}

// RemoveItem handles DELETE /cart/items/:product_id
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID, err := parseUintParam(c, "product_id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid product ID",
		})
		return
	}

	sessionID := h.sessionID(c)
	crt, err := h.carts.Load(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load cart",
		})
		return
	}

	crt.Remove(productID)

	if err := h.carts.Save(c.Request.Context(), crt); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to save cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Item removed from cart",
		"data":    cartResponse(crt),
	})
}

// ClearCart handles DELETE /cart
func (h *CartHandler) ClearCart(c *gin.Context) {
	sessionID := h.sessionID(c)

	if err := h.carts.Delete(c.Request.Context(), sessionID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to clear cart",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Cart cleared",
	})
}

// sessionID returns the cart session id from the cookie, minting a new one
// when the client has none yet
func (h *CartHandler) sessionID(c *gin.Context) string {
	if sessionID, err := c.Cookie(sessionCookieName); err == nil && sessionID != "" {
		return sessionID
	}

	sessionID := uuid.New().String()
	maxAge := int(h.config.Session.CartTTL.Seconds())
	c.SetCookie(sessionCookieName, sessionID, maxAge, "/", "", h.config.IsProduction(), true)
	return sessionID
}

// SessionIDFromRequest reads the cart session cookie without minting one.
// Checkout and payment continuation use this; an absent cookie means there
// is no session state to consult.
func SessionIDFromRequest(c *gin.Context) string {
	sessionID, err := c.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return sessionID
}

func cartResponse(crt *cart.Cart) gin.H {
	return gin.H{
		"session_id": crt.SessionID,
		"items":      crt.Items(),
		"total":      crt.Total(),
		"item_count": crt.Len(),
	}
}

func parseUintParam(c *gin.Context, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}
