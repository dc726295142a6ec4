// Package catalog provides product management with cache-aside reads.
package catalog

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/example/shop-monolith/domain/apperr"
	"github.com/example/shop-monolith/domain/product"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

var (
	ErrProductNotFound = apperr.NotFound("Product not found")
	ErrTitleRequired   = apperr.BadRequest("Title is required")
	ErrInvalidPrice    = apperr.BadRequest("Price must be a non-negative number")
)

const listPublishedKey = "list:published"

// sharedLookupTimeout bounds a database read shared through singleflight.
// The read is detached from the cancellation of the caller that started it.
const sharedLookupTimeout = 10 * time.Second

func cacheKeyByID(id string) string {
	return "id:" + id
}

// Service provides product operations with caching.
type Service struct {
	repo    *Repository
	cache   Cache
	logger  types.Logger
	sfGroup singleflight.Group
}

// NewService creates a new product service. A nil cache disables caching.
func NewService(repo *Repository, cache Cache, logger types.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

// Create adds an unpublished product.
func (s *Service) Create(ctx context.Context, req product.CreateRequest) (*product.Product, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if req.Price < 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0) {
		return nil, ErrInvalidPrice
	}

	p := &product.Product{
		ID:          uuid.New().String(),
		Title:       title,
		Description: req.Description,
		Price:       req.Price,
		Image:       req.Image,
		Published:   false,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.Info("Product created", "product_id", p.ID)
	return p, nil
}

// ListPublished returns published products, newest first.
func (s *Service) ListPublished(ctx context.Context) ([]product.Product, error) {
	var cached []product.Product
	found, err := s.cache.Get(ctx, listPublishedKey, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed", "key", listPublishedKey, "error", err)
	}
	if found {
		return cached, nil
	}

	val, err, _ := s.sfGroup.Do(listPublishedKey, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return s.repo.ListPublished(lookupCtx)
	})
	if err != nil {
		return nil, apperr.Internal(err)
	}
	products := val.([]product.Product)

	if err := s.cache.Set(ctx, listPublishedKey, products); err != nil {
		s.logger.Warn("Cache write failed", "key", listPublishedKey, "error", err)
	}
	return products, nil
}

// Get returns a single product by ID.
func (s *Service) Get(ctx context.Context, id string) (*product.Product, error) {
	key := cacheKeyByID(id)

	var cached product.Product
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.Warn("Cache read failed", "key", key, "error", err)
	}
	if found {
		return &cached, nil
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return s.repo.GetByID(lookupCtx, id)
	})
	if err != nil {
		return nil, s.mapError(err)
	}
	p := val.(*product.Product)

	if err := s.cache.Set(ctx, key, p); err != nil {
		s.logger.Warn("Cache write failed", "key", key, "error", err)
	}
	return p, nil
}

// Delete removes a product and any cart lines that reference it.
func (s *Service) Delete(ctx context.Context, id string) (*product.Product, error) {
	p, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, s.mapError(err)
	}
	s.invalidate(ctx, id)

	s.logger.Info("Product deleted", "product_id", id)
	return p, nil
}

// SetPublished sets the published flag. A nil status toggles the current value.
func (s *Service) SetPublished(ctx context.Context, id string, status *bool) (*product.Product, error) {
	var (
		p   *product.Product
		err error
	)
	if status != nil {
		p, err = s.repo.SetPublished(ctx, id, *status)
	} else {
		p, err = s.repo.TogglePublished(ctx, id)
	}
	if err != nil {
		return nil, s.mapError(err)
	}
	s.invalidate(ctx, id)

	s.logger.Info("Product status changed", "product_id", id, "published", p.Published)
	return p, nil
}

func (s *Service) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, cacheKeyByID(id), listPublishedKey); err != nil {
		s.logger.Warn("Cache invalidation failed", "product_id", id, "error", err)
	}
}

func (s *Service) mapError(err error) error {
	if errors.Is(err, errProductNotFound) {
		return ErrProductNotFound
	}
	return apperr.Internal(err)
}
