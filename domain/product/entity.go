package product

import "time"

// Product represents a catalog entry. New products are unpublished.
type Product struct {
	ID          string    `gorm:"primaryKey;type:text" json:"id"`
	Title       string    `gorm:"not null;type:text" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Price       float64   `gorm:"not null" json:"price"`
	Image       string    `gorm:"type:text" json:"image"`
	Published   bool      `gorm:"not null;default:false;index" json:"published"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Product entity.
func (Product) TableName() string {
	return "products"
}

// CreateRequest holds the fields needed to create a product.
type CreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
}

// StatusRequest changes the published flag. A nil Status toggles it.
type StatusRequest struct {
	Status *bool `json:"status"`
}
