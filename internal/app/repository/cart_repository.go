package repository

import (
	"context"
	"time"

	"github.com/poshaakwala/storefront-backend/internal/app/model"
	"github.com/poshaakwala/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CartRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.Cart, error)
	FindOrCreateByUserID(ctx context.Context, userID string) (*model.Cart, error)
	AddQuantity(ctx context.Context, cartID, productID uint, delta int) error
	RemoveItem(ctx context.Context, cartID, productID uint) error
}

type cartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) CartRepository {
	return &cartRepository{db: db}
}

// FindByUserID loads the cart with its items in insertion order and each item's product.
func (r *cartRepository) FindByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	logger.Debug("Finding cart by user ID in database", map[string]interface{}{
		"user_id": userID,
	})

	var cart model.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.id ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		logger.Error("Failed to find cart by user ID in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	logger.Debug("Cart found by user ID in database", map[string]interface{}{
		"user_id": userID,
		"items":   len(cart.Items),
	})
	return &cart, nil
}

// FindOrCreateByUserID returns the user's cart, creating an empty one on first use.
// Concurrent first calls converge on the same row through the unique user_id index.
func (r *cartRepository) FindOrCreateByUserID(ctx context.Context, userID string) (*model.Cart, error) {
	logger.Debug("Finding or creating cart in database", map[string]interface{}{
		"user_id": userID,
	})

	tx := r.db.WithContext(ctx)
	if err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.Cart{UserID: userID}).Error; err != nil {
		logger.Error("Failed to create cart in database", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}

	var cart model.Cart
	if err := tx.Where("user_id = ?", userID).First(&cart).Error; err != nil {
		logger.Error("Failed to load cart after create", err, map[string]interface{}{
			"user_id": userID,
		})
		return nil, err
	}
	return &cart, nil
}

// AddQuantity merges delta into the (cart, product) line atomically. A positive delta
// inserts the line when missing; a line whose quantity drops to zero or below is deleted.
// A non-positive delta never creates a line.
func (r *cartRepository) AddQuantity(ctx context.Context, cartID, productID uint, delta int) error {
	logger.Debug("Adding quantity to cart item in database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
		"delta":      delta,
	})

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if delta > 0 {
			item := model.CartItem{CartID: cartID, ProductID: productID, Quantity: delta}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
				}),
			}).Create(&item).Error; err != nil {
				return err
			}
			return touchCart(tx, cartID)
		}

		if err := tx.Model(&model.CartItem{}).
			Where("cart_id = ? AND product_id = ?", cartID, productID).
			Update("quantity", gorm.Expr("quantity + ?", delta)).Error; err != nil {
			return err
		}
		if err := tx.Where("cart_id = ? AND product_id = ? AND quantity <= 0", cartID, productID).
			Delete(&model.CartItem{}).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
	if err != nil {
		logger.Error("Failed to add quantity to cart item in database", err, map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
			"delta":      delta,
		})
		return err
	}

	logger.Debug("Cart item quantity merged in database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})
	return nil
}

func (r *cartRepository) RemoveItem(ctx context.Context, cartID, productID uint) error {
	logger.Debug("Removing cart item from database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
	})

	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("cart_id = ? AND product_id = ?", cartID, productID).
			Delete(&model.CartItem{})
		if result.Error != nil {
			return result.Error
		}
		removed = result.RowsAffected
		return touchCart(tx, cartID)
	})
	if err != nil {
		logger.Error("Failed to remove cart item from database", err, map[string]interface{}{
			"cart_id":    cartID,
			"product_id": productID,
		})
		return err
	}

	logger.Debug("Cart item removed from database", map[string]interface{}{
		"cart_id":    cartID,
		"product_id": productID,
		"removed":    removed,
	})
	return nil
}

// touchCart stamps the cart as modified by a change to its lines.
func touchCart(tx *gorm.DB, cartID uint) error {
	return tx.Model(&model.Cart{}).Where("id = ?", cartID).Update("updated_at", time.Now()).Error
}
