package catalog

import (
	"context"
	"encoding/json"

	"github.com/example/shop-monolith/domain/apperr"
	"github.com/example/shop-monolith/domain/product"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// CatalogPort defines the product operations other modules use.
type CatalogPort interface {
	Create(ctx context.Context, req product.CreateRequest) (*product.Product, error)
	ListPublished(ctx context.Context) ([]product.Product, error)
	Get(ctx context.Context, id string) (*product.Product, error)
	Delete(ctx context.Context, id string) (*product.Product, error)
	SetStatus(ctx context.Context, id string, status *bool) (*product.Product, error)
}

// CatalogAdapter implements CatalogPort using the service container.
type CatalogAdapter struct {
	container mono.ServiceContainer
}

var _ CatalogPort = (*CatalogAdapter)(nil)

// NewCatalogAdapter creates a new CatalogAdapter.
func NewCatalogAdapter(container mono.ServiceContainer) *CatalogAdapter {
	return &CatalogAdapter{container: container}
}

func (a *CatalogAdapter) Create(ctx context.Context, req product.CreateRequest) (*product.Product, error) {
	var resp ProductResponse
	if err := a.call(ctx, "create-product", &CreateProductRequest{CreateRequest: req}, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

func (a *CatalogAdapter) ListPublished(ctx context.Context) ([]product.Product, error) {
	var resp ListProductsResponse
	if err := a.call(ctx, "list-products", &ListProductsRequest{}, &resp); err != nil {
		return nil, err
	}
	if resp.Products == nil {
		resp.Products = []product.Product{}
	}
	return resp.Products, nil
}

func (a *CatalogAdapter) Get(ctx context.Context, id string) (*product.Product, error) {
	var resp ProductResponse
	if err := a.call(ctx, "get-product", &ProductIDRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

func (a *CatalogAdapter) Delete(ctx context.Context, id string) (*product.Product, error) {
	var resp ProductResponse
	if err := a.call(ctx, "delete-product", &ProductIDRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

func (a *CatalogAdapter) SetStatus(ctx context.Context, id string, status *bool) (*product.Product, error) {
	var resp ProductResponse
	if err := a.call(ctx, "set-product-status", &SetStatusRequest{ID: id, Status: status}, &resp); err != nil {
		return nil, err
	}
	return &resp.Product, nil
}

func (a *CatalogAdapter) call(ctx context.Context, service string, req, resp any) error {
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return apperr.FromRemote(err)
	}
	return nil
}
