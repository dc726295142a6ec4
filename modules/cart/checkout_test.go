package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/shop-monolith/domain/apperr"
	domain "github.com/example/shop-monolith/domain/cart"
	"github.com/example/shop-monolith/domain/job"
	"github.com/example/shop-monolith/domain/user"
	"github.com/example/shop-monolith/modules/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[string]*user.User
	err   error
}

func (f *fakeUsers) GetUser(_ context.Context, userID string) (*user.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

type enqueued struct {
	jobType job.Type
	payload job.EmailPayload
}

type fakeEnqueuer struct {
	mu   sync.Mutex
	jobs []enqueued
	err  error
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, jobType job.Type, payload any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, enqueued{jobType: jobType, payload: payload.(job.EmailPayload)})
	return "job-1", nil
}

func newTestCheckout(t *testing.T) (*Checkout, *Service, *fakeEnqueuer) {
	t.Helper()
	svc, db := newTestService(t)
	seedProduct(t, db, "p1", "Lamp", 10)
	seedProduct(t, db, "p2", "Chair", 25.5)

	users := &fakeUsers{users: map[string]*user.User{
		"u1": {ID: "u1", Name: "Ann", Email: "ann@example.com", Role: user.RoleUser},
	}}
	enqueuer := &fakeEnqueuer{}
	checkout := NewCheckout(svc.repo, users, enqueuer, &mockLogger{})
	checkout.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return checkout, svc, enqueuer
}

func TestCheckout_PlacesOrderAndQueuesOneConfirmation(t *testing.T) {
	checkout, svc, enqueuer := newTestCheckout(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "u1", "p2", 1)
	require.NoError(t, err)

	order, err := checkout.Checkout(ctx, "u1", "  221B Baker St ")
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Len(t, order.Reference, referenceLength)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, "221B Baker St", order.ShippingAddress)
	assert.Len(t, order.Items, 2)
	assert.InDelta(t, 45.5, order.Total, 0.001)
	assert.True(t, order.NotificationQueued)
	assert.Equal(t, "job-1", order.JobID)

	require.Len(t, enqueuer.jobs, 1)
	sent := enqueuer.jobs[0]
	assert.Equal(t, job.TypeOrderConfirmation, sent.jobType)
	assert.Equal(t, "ann@example.com", sent.payload.To)
	assert.Equal(t, ConfirmationSubject, sent.payload.Subject)
	assert.Contains(t, sent.payload.Body, "221B Baker St")
	assert.Contains(t, sent.payload.Body, "Lamp")
	assert.Contains(t, sent.payload.Body, "$45.50")
	assert.Contains(t, sent.payload.Body, order.Reference)

	_, err = svc.GetCart(ctx, "u1")
	assert.ErrorIs(t, err, ErrCartNotFound, "checkout removes the cart")
}

func TestCheckout_SecondCheckoutFindsNoCart(t *testing.T) {
	checkout, svc, enqueuer := newTestCheckout(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", "p1", 1)
	require.NoError(t, err)

	_, err = checkout.Checkout(ctx, "u1", "221B Baker St")
	require.NoError(t, err)

	_, err = checkout.Checkout(ctx, "u1", "221B Baker St")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Len(t, enqueuer.jobs, 1)
}

func TestCheckout_MissingCartQueuesNothing(t *testing.T) {
	checkout, _, enqueuer := newTestCheckout(t)

	_, err := checkout.Checkout(context.Background(), "u1", "221B Baker St")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Empty(t, enqueuer.jobs)
}

func TestCheckout_EmptiedCartIsRejected(t *testing.T) {
	svc, db := newTestService(t)
	seedProduct(t, db, "p1", "Lamp", 10)
	enqueuer := &fakeEnqueuer{}
	checkout := NewCheckout(svc.repo, &fakeUsers{users: map[string]*user.User{
		"u1": {ID: "u1", Name: "Ann", Email: "ann@example.com", Role: user.RoleUser},
	}}, enqueuer, &mockLogger{})
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", "p1", 2)
	require.NoError(t, err)
	_, err = catalog.NewRepository(db).Delete(ctx, "p1")
	require.NoError(t, err)

	cart, err := svc.GetCart(ctx, "u1")
	require.NoError(t, err, "the cart row outlives its last product")
	assert.Empty(t, cart.Items)

	order, err := checkout.Checkout(ctx, "u1", "221B Baker St")
	assert.ErrorIs(t, err, ErrCartNotFound)
	assert.Nil(t, order)
	assert.Empty(t, enqueuer.jobs)
}

func TestCheckout_Validation(t *testing.T) {
	checkout, svc, enqueuer := newTestCheckout(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "u1", "p1", 1)
	require.NoError(t, err)

	_, err = checkout.Checkout(ctx, "u1", "   ")
	assert.ErrorIs(t, err, ErrAddressRequired)

	_, err = checkout.Checkout(ctx, "ghost", "221B Baker St")
	assert.ErrorIs(t, err, ErrUserNotFound)

	assert.Empty(t, enqueuer.jobs)
	_, err = svc.GetCart(ctx, "u1")
	assert.NoError(t, err, "a rejected checkout keeps the cart")
}

func TestCheckout_UserLookupFailureIsInternal(t *testing.T) {
	checkout, svc, _ := newTestCheckout(t)
	ctx := context.Background()
	checkout.users = &fakeUsers{err: errors.New("nats: timeout")}

	_, err := svc.AddToCart(ctx, "u1", "p1", 1)
	require.NoError(t, err)

	_, err = checkout.Checkout(ctx, "u1", "221B Baker St")
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestCheckout_EnqueueFailureStillSucceeds(t *testing.T) {
	checkout, svc, enqueuer := newTestCheckout(t)
	ctx := context.Background()
	enqueuer.err = job.ErrQueueUnavailable

	_, err := svc.AddToCart(ctx, "u1", "p1", 1)
	require.NoError(t, err)

	order, err := checkout.Checkout(ctx, "u1", "221B Baker St")
	require.NoError(t, err)
	assert.False(t, order.NotificationQueued)
	assert.Empty(t, order.JobID)

	_, err = svc.GetCart(ctx, "u1")
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestRenderConfirmation_EscapesHTML(t *testing.T) {
	body, err := renderConfirmation(
		&user.User{Name: "<script>x</script>"},
		&domain.Order{ID: "o1", Reference: "ABC234", ShippingAddress: "1 Main St", PlacedAt: time.Now()},
	)
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}
