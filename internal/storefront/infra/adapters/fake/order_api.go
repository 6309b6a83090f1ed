// Package fake is an in-memory order backend for the storefront's tests. No
// binary wires it.
package fake

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/food-ordering/internal/money"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/apperr"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/orders"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/ports"
)

// Ensure Backend implements the ports at compile time.
var (
	_ ports.OrderAPI   = (*Backend)(nil)
	_ ports.CatalogAPI = (*Backend)(nil)
)

// Backend mimics the order service: it prices from its own catalog, keeps
// orders per credential and enforces the status table.
type Backend struct {
	mu          sync.Mutex
	products    map[string]entity.Product
	orders      map[string]*entity.Order
	owners      map[string]entity.Credential
	idempotency map[string]string

	// FailNext, when set, is returned by the next call and then cleared.
	FailNext error
	// Block, when non-nil, makes CreateOrder wait until it is closed.
	Block chan struct{}
	// OnList rewrites what ListOrders returns, to simulate server-side changes.
	OnList func([]entity.Order) []entity.Order

	CreateCalls int
	ListCalls   int
	CancelCalls int
}

func NewBackend(products ...entity.Product) *Backend {
	b := &Backend{
		products:    make(map[string]entity.Product),
		orders:      make(map[string]*entity.Order),
		owners:      make(map[string]entity.Credential),
		idempotency: make(map[string]string),
	}
	for _, p := range products {
		b.products[p.ID] = p
	}
	return b
}

func (b *Backend) takeFailure() error {
	err := b.FailNext
	b.FailNext = nil
	return err
}

func (b *Backend) ListProducts(ctx context.Context) ([]entity.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure(); err != nil {
		return nil, err
	}
	out := make([]entity.Product, 0, len(b.products))
	for _, p := range b.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b *Backend) CreateOrder(ctx context.Context, cred entity.Credential, idempotencyKey string, req entity.OrderRequest) (*entity.Order, error) {
	b.mu.Lock()
	b.CreateCalls++
	block := b.Block
	b.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, apperr.Wrap(apperr.KindTransient, apperr.CodeBackend, "The request timed out", ctx.Err())
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.takeFailure(); err != nil {
		return nil, err
	}
	if cred.IsZero() {
		return nil, apperr.ErrUnauthenticated
	}

	idemKey := string(cred) + ":" + idempotencyKey
	if id, ok := b.idempotency[idemKey]; ok && idempotencyKey != "" {
		o := *b.orders[id]
		return &o, nil
	}

	now := time.Now().UTC()
	order := &entity.Order{
		ID:        uuid.NewString(),
		Status:    entity.StatusPending,
		Location:  req.Location,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, it := range req.Items {
		p, ok := b.products[it.ProductID]
		if !ok {
			return nil, apperr.New(apperr.KindValidation, apperr.CodeBackend, fmt.Sprintf("Product %s not found", it.ProductID))
		}
		order.Items = append(order.Items, entity.OrderItem{Product: p, Quantity: it.Quantity, Price: p.Price})
	}
	br := money.Break(money.CartSubtotal(cartLines(order.Items)))
	order.Subtotal, order.VAT, order.TotalPrice = br.Subtotal, br.VAT, br.Total

	b.orders[order.ID] = order
	b.owners[order.ID] = cred
	if idempotencyKey != "" {
		b.idempotency[idemKey] = order.ID
	}

	out := *order
	return &out, nil
}

func cartLines(items []entity.OrderItem) []entity.CartLine {
	lines := make([]entity.CartLine, len(items))
	for i, it := range items {
		lines[i] = entity.CartLine{Product: entity.Product{Price: it.Price}, Quantity: it.Quantity}
	}
	return lines
}

func (b *Backend) ListOrders(ctx context.Context, cred entity.Credential) ([]entity.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ListCalls++
	if err := b.takeFailure(); err != nil {
		return nil, err
	}

	out := make([]entity.Order, 0)
	for id, o := range b.orders {
		if b.owners[id] == cred {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if b.OnList != nil {
		out = b.OnList(out)
	}
	return out, nil
}

func (b *Backend) CancelOrder(ctx context.Context, cred entity.Credential, orderID string) (*entity.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.CancelCalls++
	if err := b.takeFailure(); err != nil {
		return nil, err
	}

	o, ok := b.orders[orderID]
	if !ok || b.owners[orderID] != cred {
		return nil, apperr.New(apperr.KindConflict, apperr.CodeBackend, "Order not found")
	}
	if !orders.CanTransition(o.Status, entity.StatusCancelled) {
		return nil, apperr.New(apperr.KindConflict, apperr.CodeBackend, fmt.Sprintf("Cannot cancel an order that is %s", o.Status))
	}
	o.Status = entity.StatusCancelled
	o.UpdatedAt = time.Now().UTC()

	out := *o
	return &out, nil
}

// Advance moves an order the way the restaurant would.
func (b *Backend) Advance(orderID string, to entity.OrderStatus) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	o, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s not found", orderID)
	}
	if !orders.CanTransition(o.Status, to) {
		return fmt.Errorf("illegal transition %s -> %s", o.Status, to)
	}
	o.Status = to
	return nil
}

func (b *Backend) OrderCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}
