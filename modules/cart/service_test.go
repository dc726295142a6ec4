package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/example/shop-monolith/domain/apperr"
	"github.com/example/shop-monolith/domain/product"
	"github.com/example/shop-monolith/modules/store/storetest"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }

func seedProduct(t *testing.T, db *gorm.DB, id, title string, price float64) {
	t.Helper()
	require.NoError(t, db.Create(&product.Product{ID: id, Title: title, Price: price, Published: true}).Error)
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := storetest.Open(t)
	return NewService(NewRepository(db), &mockLogger{}), db
}

func TestService_AddToCart_CreatesCart(t *testing.T) {
	svc, db := newTestService(t)
	seedProduct(t, db, "p1", "Lamp", 10)

	c, err := svc.AddToCart(context.Background(), "u1", "p1", 2)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.UserID)
	require.Len(t, c.Items, 1)
	assert.Equal(t, 2, c.Items[0].Quantity)
	require.NotNil(t, c.Items[0].Product)
	assert.Equal(t, "Lamp", c.Items[0].Product.Title)
	assert.InDelta(t, 20.0, c.Total(), 0.001)
}

func TestService_AddToCart_MergesQuantities(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedProduct(t, db, "p1", "Lamp", 10)
	seedProduct(t, db, "p2", "Chair", 25)

	_, err := svc.AddToCart(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "u1", "p2", 1)
	require.NoError(t, err)
	c, err := svc.AddToCart(ctx, "u1", "p1", 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 2, "the same product never gets a second line")
	quantities := map[string]int{}
	for _, item := range c.Items {
		quantities[item.ProductID] = item.Quantity
	}
	assert.Equal(t, map[string]int{"p1": 5, "p2": 1}, quantities)
	assert.InDelta(t, 75.0, c.Total(), 0.001)
}

func TestService_AddToCart_CartsArePerUser(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedProduct(t, db, "p1", "Lamp", 10)

	a, err := svc.AddToCart(ctx, "u1", "p1", 1)
	require.NoError(t, err)
	b, err := svc.AddToCart(ctx, "u2", "p1", 4)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 1, a.Items[0].Quantity)
	assert.Equal(t, 4, b.Items[0].Quantity)
}

func TestService_AddToCart_Validation(t *testing.T) {
	svc, db := newTestService(t)
	seedProduct(t, db, "p1", "Lamp", 10)

	tests := []struct {
		name      string
		productID string
		quantity  int
		want      error
	}{
		{"zero quantity", "p1", 0, ErrInvalidQuantity},
		{"negative quantity", "p1", -2, ErrInvalidQuantity},
		{"missing product id", "", 1, ErrProductRequired},
		{"unknown product", "nope", 1, ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.AddToCart(context.Background(), "u1", tt.productID, tt.quantity)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	// Nothing above should have created a cart.
	_, err := svc.GetCart(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestService_AddToCart_ConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	seedProduct(t, db, "p1", "Lamp", 10)

	const adds = 10
	var wg sync.WaitGroup
	errs := make(chan error, adds)
	for i := 0; i < adds; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddToCart(ctx, "u1", "p1", 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("AddToCart() error = %v", err)
	}

	c, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.Equal(t, adds, c.Items[0].Quantity)
}

func TestService_GetCart_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetCart(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
