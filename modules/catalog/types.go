package catalog

import "github.com/example/shop-monolith/domain/product"

// CreateProductRequest is the request for the create-product service.
type CreateProductRequest struct {
	product.CreateRequest
}

// ProductResponse wraps a single product.
type ProductResponse struct {
	Product product.Product `json:"product"`
}

// ListProductsRequest is the request for the list-products service.
type ListProductsRequest struct{}

// ListProductsResponse holds the published products.
type ListProductsResponse struct {
	Products []product.Product `json:"products"`
}

// ProductIDRequest identifies a product.
type ProductIDRequest struct {
	ID string `json:"id"`
}

// SetStatusRequest is the request for the set-product-status service.
type SetStatusRequest struct {
	ID     string `json:"id"`
	Status *bool  `json:"status,omitempty"`
}
