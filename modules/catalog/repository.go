package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/shop-monolith/domain/product"
	"github.com/example/shop-monolith/modules/store"
	"gorm.io/gorm"
)

// errProductNotFound is returned by the repository when no row matches.
var errProductNotFound = errors.New("product not found")

// Repository provides database operations for products.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new product repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create creates a new product in the database.
func (r *Repository) Create(ctx context.Context, p *product.Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *Repository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		if store.IsNotFound(err) {
			return nil, errProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// ListPublished returns published products, newest first.
func (r *Repository) ListPublished(ctx context.Context) ([]product.Product, error) {
	products := []product.Product{}
	if err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// Delete removes a product and returns it.
func (r *Repository) Delete(ctx context.Context, id string) (*product.Product, error) {
	var deleted *product.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p product.Product
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if store.IsNotFound(err) {
				return errProductNotFound
			}
			return err
		}
		// Cart lines are removed explicitly so the result does not depend on
		// the dialect enforcing ON DELETE CASCADE.
		if err := tx.Exec("DELETE FROM cart_items WHERE product_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&p).Error; err != nil {
			return err
		}
		deleted = &p
		return nil
	})
	if err != nil {
		if errors.Is(err, errProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	return deleted, nil
}

// SetPublished updates the published flag and returns the product.
func (r *Repository) SetPublished(ctx context.Context, id string, published bool) (*product.Product, error) {
	result := r.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("id = ?", id).
		Update("published", published)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errProductNotFound
	}
	return r.GetByID(ctx, id)
}

// TogglePublished flips the published flag in a single statement and
// returns the product.
func (r *Repository) TogglePublished(ctx context.Context, id string) (*product.Product, error) {
	result := r.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("id = ?", id).
		Update("published", gorm.Expr("NOT published"))
	if result.Error != nil {
		return nil, fmt.Errorf("failed to toggle product: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, errProductNotFound
	}
	return r.GetByID(ctx, id)
}
