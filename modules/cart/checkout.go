package cart

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/example/shop-monolith/domain/apperr"
	domain "github.com/example/shop-monolith/domain/cart"
	"github.com/example/shop-monolith/domain/job"
	"github.com/example/shop-monolith/domain/user"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

// ConfirmationSubject is the subject of the order confirmation email.
const ConfirmationSubject = "Order Confirmation"

// Order references are short codes customers can read out over the phone,
// so ambiguous characters are left out.
const (
	referenceAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
	referenceLength   = 10
)

var newReference = func() func() string {
	gen, err := nanoid.CustomASCII(referenceAlphabet, referenceLength)
	if err != nil {
		panic(err)
	}
	return gen
}()

// UserLookup resolves the customer placing an order.
type UserLookup interface {
	GetUser(ctx context.Context, userID string) (*user.User, error)
}

// Enqueuer hands a job to the background queue and returns its ID.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType job.Type, payload any) (string, error)
}

var confirmationTemplate = template.Must(template.New("confirmation").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"line": func(item domain.CartItem) float64 {
		if item.Product == nil {
			return 0
		}
		return item.Product.Price * float64(item.Quantity)
	},
}).Parse(`<h2>Thank you for your order, {{.Name}}!</h2>
<p>Order <strong>{{.Order.Reference}}</strong> placed on {{.Order.PlacedAt.Format "2006-01-02 15:04 MST"}}.</p>
<table>
<tr><th>Product</th><th>Qty</th><th>Price</th></tr>
{{- range .Order.Items}}
<tr><td>{{if .Product}}{{.Product.Title}}{{else}}{{.ProductID}}{{end}}</td><td>{{.Quantity}}</td><td>{{money (line .)}}</td></tr>
{{- end}}
</table>
<p>Total: <strong>{{money .Order.Total}}</strong></p>
<p>Shipping to: {{.Order.ShippingAddress}}</p>
`))

// Checkout turns a user's cart into an order. The cart is removed before the
// confirmation email is queued; a queue failure is logged and reported on
// the order but does not undo the checkout.
type Checkout struct {
	repo     *Repository
	users    UserLookup
	enqueuer Enqueuer
	logger   types.Logger
	now      func() time.Time
}

// NewCheckout creates a new checkout orchestrator.
func NewCheckout(repo *Repository, users UserLookup, enqueuer Enqueuer, logger types.Logger) *Checkout {
	return &Checkout{
		repo:     repo,
		users:    users,
		enqueuer: enqueuer,
		logger:   logger,
		now:      time.Now,
	}
}

// Checkout places the order for userID.
func (c *Checkout) Checkout(ctx context.Context, userID, shippingAddress string) (*domain.Order, error) {
	address := strings.TrimSpace(shippingAddress)
	if address == "" {
		return nil, ErrAddressRequired
	}

	customer, err := c.users.GetUser(ctx, userID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Internal(err)
	}

	cart, err := c.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, errCartNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, apperr.Internal(err)
	}
	// Deleting a product strips its lines but keeps the cart row.
	if len(cart.Items) == 0 {
		return nil, ErrCartNotFound
	}

	if err := c.repo.Delete(ctx, cart.ID); err != nil {
		if errors.Is(err, errCartNotFound) {
			return nil, ErrCartNotFound
		}
		return nil, apperr.Internal(err)
	}

	order := &domain.Order{
		ID:              uuid.New().String(),
		Reference:       newReference(),
		UserID:          userID,
		ShippingAddress: address,
		Items:           cart.Items,
		Total:           cart.Total(),
		PlacedAt:        c.now().UTC(),
	}

	c.queueConfirmation(ctx, customer, order)

	c.logger.Info("Checkout completed", "order_id", order.ID, "reference", order.Reference, "user_id", userID,
		"items", len(order.Items), "notification_queued", order.NotificationQueued)
	return order, nil
}

func (c *Checkout) queueConfirmation(ctx context.Context, customer *user.User, order *domain.Order) {
	body, err := renderConfirmation(customer, order)
	if err != nil {
		c.logger.Error("Failed to render order confirmation", "order_id", order.ID, "error", err)
		return
	}

	jobID, err := c.enqueuer.Enqueue(ctx, job.TypeOrderConfirmation, job.EmailPayload{
		To:      customer.Email,
		Subject: ConfirmationSubject,
		Body:    body,
	})
	if err != nil {
		c.logger.Error("Failed to enqueue order confirmation", "order_id", order.ID, "error", err)
		return
	}

	order.JobID = jobID
	order.NotificationQueued = true
}

func renderConfirmation(customer *user.User, order *domain.Order) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Name  string
		Order *domain.Order
	}{
		Name:  customer.Name,
		Order: order,
	}
	if err := confirmationTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render confirmation: %w", err)
	}
	return buf.String(), nil
}
