package cart

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/example/shop-monolith/domain/cart"
	"github.com/example/shop-monolith/domain/product"
	"github.com/example/shop-monolith/modules/store"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errCartNotFound    = errors.New("cart not found")
	errProductNotFound = errors.New("product not found")
)

// Repository provides database operations for carts.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new cart repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem adds quantity of a product to the user's cart, creating the cart
// on first use. An existing line is incremented in the database, so
// concurrent adds never lose an update.
func (r *Repository) AddItem(ctx context.Context, userID, productID string, quantity int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&product.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to look up product: %w", err)
		}
		if count == 0 {
			return errProductNotFound
		}

		c := domain.Cart{ID: uuid.New().String(), UserID: userID}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoNothing: true,
		}).Create(&c).Error; err != nil {
			return fmt.Errorf("failed to create cart: %w", err)
		}

		var existing domain.Cart
		if err := tx.Where("user_id = ?", userID).First(&existing).Error; err != nil {
			return fmt.Errorf("failed to load cart: %w", err)
		}

		item := domain.CartItem{
			ID:        uuid.New().String(),
			CartID:    existing.ID,
			ProductID: productID,
			Quantity:  quantity,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "cart_id"}, {Name: "product_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"quantity":   gorm.Expr("cart_items.quantity + excluded.quantity"),
				"updated_at": gorm.Expr("excluded.updated_at"),
			}),
		}).Create(&item).Error; err != nil {
			return fmt.Errorf("failed to upsert cart item: %w", err)
		}

		return tx.Model(&domain.Cart{}).Where("id = ?", existing.ID).Update("updated_at", item.UpdatedAt).Error
	})
}

// FindByUserID returns the user's cart with its items and products.
func (r *Repository) FindByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var c domain.Cart
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("cart_items.created_at ASC, cart_items.id ASC")
		}).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		First(&c).Error
	if err != nil {
		if store.IsNotFound(err) {
			return nil, errCartNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	if c.Items == nil {
		c.Items = []domain.CartItem{}
	}
	return &c, nil
}

// Delete removes the cart and its items in one transaction. It returns
// errCartNotFound if the cart was already removed.
func (r *Repository) Delete(ctx context.Context, cartID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&domain.CartItem{}).Error; err != nil {
			return fmt.Errorf("failed to delete cart items: %w", err)
		}
		result := tx.Where("id = ?", cartID).Delete(&domain.Cart{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete cart: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return errCartNotFound
		}
		return nil
	})
}
