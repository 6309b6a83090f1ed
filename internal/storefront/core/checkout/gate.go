// Package checkout turns the cart into an order. The Gate validates locally,
// submits once per "place order" action and only clears the cart when the
// backend confirms the order.
package checkout

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/food-ordering/internal/storefront/core/cart"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/apperr"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/orders"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/ports"
)

const DefaultTimeout = 10 * time.Second

type Gate struct {
	cart     *cart.Store
	api      ports.OrderAPI
	book     *orders.Book
	logger   *slog.Logger
	timeout  time.Duration
	inFlight atomic.Bool
	newKey   func() string
}

type Option func(*Gate)

// WithTimeout bounds the submission call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(g *Gate) { g.timeout = d }
}

// WithKeyFunc replaces the generator used when the cart has no pending
// idempotency key.
func WithKeyFunc(f func() string) Option {
	return func(g *Gate) { g.newKey = f }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

func NewGate(c *cart.Store, api ports.OrderAPI, book *orders.Book, opts ...Option) *Gate {
	g := &Gate{
		cart:    c,
		api:     api,
		book:    book,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
		newKey:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// InFlight reports whether a submission is running, so a UI can disable its
// "place order" control.
func (g *Gate) InFlight() bool {
	return g.inFlight.Load()
}

// Submit places an order for the current cart contents.
//
// Validation failures return before any network call. While a submission is
// running, further calls fail with ErrSubmissionInFlight. On success the cart
// is cleared and the order book refreshed. On failure the lines are untouched
// and keep their idempotency key for the next attempt.
func (g *Gate) Submit(ctx context.Context, location string, cred entity.Credential) (*entity.Order, error) {
	if g.cart.IsEmpty() {
		return nil, apperr.ErrEmptyCart
	}
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, apperr.ErrMissingLocation
	}
	if cred.IsZero() {
		return nil, apperr.ErrUnauthenticated
	}

	if !g.inFlight.CompareAndSwap(false, true) {
		return nil, apperr.ErrSubmissionInFlight
	}
	defer g.inFlight.Store(false)

	req := g.cart.Snapshot(location)
	if len(req.Items) == 0 {
		return nil, apperr.ErrEmptyCart
	}
	// The key follows the cart contents, so retrying after a lost response is
	// deduplicated by the backend.
	key := g.cart.PendingKey(ctx, g.newKey)

	g.logger.InfoContext(ctx, "placing order", "lines", len(req.Items), "idempotency_key", key)

	order, err := g.send(ctx, cred, key, req)
	if err != nil {
		g.logger.WarnContext(ctx, "order placement failed", "idempotency_key", key, "kind", apperr.KindOf(err).String(), "error", err)
		return nil, err
	}

	// Lines added while the request was in flight are cleared too; the
	// storefront has a single writer per cart.
	if err := g.cart.ClearCart(ctx); err != nil {
		g.logger.ErrorContext(ctx, "order placed but cart not cleared", "order_id", order.ID, "error", err)
	}
	if g.book != nil {
		if err := g.book.Refresh(ctx, cred); err != nil {
			g.logger.WarnContext(ctx, "order placed but order list not refreshed", "order_id", order.ID, "error", err)
		}
	}

	g.logger.InfoContext(ctx, "order placed", "order_id", order.ID, "status", order.Status, "total", order.TotalPrice.StringFixed(2))
	return order, nil
}

func (g *Gate) send(ctx context.Context, cred entity.Credential, key string, req entity.OrderRequest) (*entity.Order, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	order, err := g.api.CreateOrder(ctx, cred, key, req)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnknown {
			return nil, apperr.Wrap(apperr.KindTransient, apperr.CodeBackend, apperr.GenericMessage, err)
		}
		return nil, err
	}
	if order == nil || order.ID == "" {
		return nil, apperr.New(apperr.KindUnknown, apperr.CodeBackend, apperr.GenericMessage)
	}
	return order, nil
}
