package cart

import (
	"time"

	"github.com/example/shop-monolith/domain/product"
)

// Cart is the per-user collection of pending order lines. It is created on
// the first add and removed by checkout.
type Cart struct {
	ID        string     `gorm:"primaryKey;type:text" json:"id"`
	UserID    string     `gorm:"uniqueIndex;not null;type:text" json:"userId"`
	Items     []CartItem `gorm:"constraint:OnDelete:CASCADE;" json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TableName returns the table name for the Cart entity.
func (Cart) TableName() string {
	return "carts"
}

// Total returns the sum of price times quantity over all lines.
func (c *Cart) Total() float64 {
	var total float64
	for _, item := range c.Items {
		if item.Product != nil {
			total += item.Product.Price * float64(item.Quantity)
		}
	}
	return total
}

// CartItem is one product line. (CartID, ProductID) is unique.
type CartItem struct {
	ID        string           `gorm:"primaryKey;type:text" json:"id"`
	CartID    string           `gorm:"not null;type:text;uniqueIndex:idx_cart_items_cart_product" json:"cartId"`
	ProductID string           `gorm:"not null;type:text;uniqueIndex:idx_cart_items_cart_product" json:"productId"`
	Product   *product.Product `gorm:"constraint:OnDelete:CASCADE;" json:"product,omitempty"`
	Quantity  int              `gorm:"not null" json:"quantity"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// TableName returns the table name for the CartItem entity.
func (CartItem) TableName() string {
	return "cart_items"
}

// Order is the result of a successful checkout. It is not persisted.
type Order struct {
	ID                 string     `json:"id"`
	Reference          string     `json:"reference"`
	UserID             string     `json:"userId"`
	ShippingAddress    string     `json:"shippingAddress"`
	Items              []CartItem `json:"items"`
	Total              float64    `json:"total"`
	JobID              string     `json:"jobId,omitempty"`
	NotificationQueued bool       `json:"notificationQueued"`
	PlacedAt           time.Time  `json:"placedAt"`
}
