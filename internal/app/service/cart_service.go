package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/poshaakwala/storefront-backend/internal/app/repository"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CartView is a cart with every line's product expanded and the running totals.
type CartView struct {
	UserID    string           `json:"userId"`
	Items     []model.CartItem `json:"items"`
	Count     int              `json:"count"`
	Total     float64          `json:"total"`
	UpdatedAt *time.Time       `json:"updatedAt,omitempty"`
}

type CartService interface {
	GetCart(ctx context.Context, userID string) (*CartView, error)
	AddItem(ctx context.Context, userID string, productID uint, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID string, productID uint) (*CartView, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// GetCart never fails for an unknown user; it returns an empty cart instead.
func (s *cartService) GetCart(ctx context.Context, userID string) (*CartView, error) {
	logger.Debug("Fetching cart", map[string]interface{}{
		"user_id": userID,
	})

	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return emptyCartView(userID), nil
		}
		logger.Error("Failed to fetch cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return newCartView(cart), nil
}

// AddItem merges quantity into the user's line for productID. A negative quantity shrinks an
// existing line and deletes it once it reaches zero. Only a positive quantity creates a line.
func (s *cartService) AddItem(ctx context.Context, userID string, productID uint, quantity int) (*CartView, error) {
	userID = strings.TrimSpace(userID)
	logger.Info("Adding item to cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})

	if userID == "" || productID == 0 {
		return nil, fmt.Errorf("%w: userId and productId are required", ErrValidation)
	}
	if quantity > 0 {
		if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				logger.Warn("Cannot add unknown product to cart", map[string]interface{}{
					"user_id":    userID,
					"product_id": productID,
				})
				return nil, ErrProductNotFound
			}
			return nil, err
		}
	}

	cart, err := s.cartRepo.FindOrCreateByUserID(ctx, userID)
	if err != nil {
		logger.Error("Failed to load or create cart", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	if err := s.cartRepo.AddQuantity(ctx, cart.ID, productID, quantity); err != nil {
		logger.Error("Failed to merge cart item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}

	logger.Info("Cart item merged", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
		"quantity":   quantity,
	})
	return s.GetCart(ctx, userID)
}

// RemoveItem drops the line for productID. Removing an absent line is not an error.
func (s *cartService) RemoveItem(ctx context.Context, userID string, productID uint) (*CartView, error) {
	userID = strings.TrimSpace(userID)
	logger.Info("Removing item from cart", map[string]interface{}{
		"user_id":    userID,
		"product_id": productID,
	})

	if userID == "" || productID == 0 {
		return nil, fmt.Errorf("%w: userId and productId are required", ErrValidation)
	}

	cart, err := s.cartRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Cart not found", map[string]interface{}{
				"user_id": userID,
			})
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	if err := s.cartRepo.RemoveItem(ctx, cart.ID, productID); err != nil {
		logger.Error("Failed to remove cart item", err, map[string]interface{}{
			"user_id":    userID,
			"product_id": productID,
		})
		return nil, err
	}

	return s.GetCart(ctx, userID)
}

func emptyCartView(userID string) *CartView {
	return &CartView{UserID: userID, Items: []model.CartItem{}}
}

func newCartView(cart *model.Cart) *CartView {
	view := emptyCartView(cart.UserID)
	updatedAt := cart.UpdatedAt
	view.UpdatedAt = &updatedAt

	total := decimal.Zero
	for _, item := range cart.Items {
		view.Items = append(view.Items, item)
		view.Count += item.Quantity
		if item.Product != nil {
			line := decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
			total = total.Add(line)
		}
	}
	view.Total = total.Round(2).InexactFloat64()
	return view
}
