package controller

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/poshaakwala/storefront-backend/internal/app/service"
	apperrors "github.com/poshaakwala/storefront-backend/internal/errors"
	"github.com/poshaakwala/storefront-backend/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

type AddToCartRequest struct {
	UserID    string     `json:"userId"`
	ProductID flexibleID `json:"productId"`
	Quantity  *int       `json:"quantity"`
}

// quantity defaults to one only when the field is absent.
func (r AddToCartRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

type RemoveFromCartRequest struct {
	UserID    string     `json:"userId"`
	ProductID flexibleID `json:"productId"`
}

// flexibleID accepts a product id sent as a JSON number or a numeric string.
// Anything unparseable decodes to zero, which the service rejects as missing.
type flexibleID uint

func (id *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	n, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 32)
	if err != nil {
		*id = 0
		return nil
	}
	*id = flexibleID(n)
	return nil
}

// GetCart returns the user's cart with products expanded
// GET /api/cart/:userId
func (ctrl *CartController) GetCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	userID := c.Param("userId")

	view, err := ctrl.cartService.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, log, err, "Get cart", map[string]interface{}{
			"user_id": userID,
		})
		return
	}

	log.Info("Cart fetched successfully", map[string]interface{}{
		"user_id": userID,
		"count":   view.Count,
	})

	c.JSON(http.StatusOK, view)
}

// AddToCart merges a quantity into the user's cart
// POST /api/cart/add
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Invalid request data")
		return
	}

	view, err := ctrl.cartService.AddItem(c.Request.Context(), req.UserID, uint(req.ProductID), req.quantity())
	if err != nil {
		respondServiceError(c, log, err, "Add to cart", map[string]interface{}{
			"user_id":    req.UserID,
			"product_id": uint(req.ProductID),
			"quantity":   req.quantity(),
		})
		return
	}

	log.Info("Item added to cart", map[string]interface{}{
		"user_id":    req.UserID,
		"product_id": uint(req.ProductID),
		"count":      view.Count,
	})

	c.JSON(http.StatusOK, view)
}

// RemoveFromCart drops a product's line from the user's cart
// POST /api/cart/remove
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RemoveFromCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid remove from cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Invalid request data")
		return
	}
	view, err := ctrl.cartService.RemoveItem(c.Request.Context(), req.UserID, uint(req.ProductID))
	if err != nil {
		respondServiceError(c, log, err, "Remove from cart", map[string]interface{}{
			"user_id":    req.UserID,
			"product_id": uint(req.ProductID),
		})
		return
	}

	log.Info("Item removed from cart", map[string]interface{}{
		"user_id":    req.UserID,
		"product_id": uint(req.ProductID),
	})

	c.JSON(http.StatusOK, view)
}
