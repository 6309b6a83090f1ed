package app

import (
	"context"
	"time"

	"github.com/jcmexdev/food-ordering/internal/order-service/domain"
	"github.com/jcmexdev/food-ordering/internal/order-service/statuslog"
)

// Repository is the persistence port of the order service.
type Repository interface {
	CountProducts(ctx context.Context) (int, error)
	SaveProducts(ctx context.Context, products []domain.Product) error
	ListProducts(ctx context.Context) ([]domain.Product, error)
	ProductsByID(ctx context.Context, ids []string) (map[string]domain.Product, error)

	// CreateOrder stores the order, its items and the first status log row
	// atomically.
	CreateOrder(ctx context.Context, o *domain.Order, entry statuslog.Entry) error
	// GetOrder returns domain.ErrNotFound for an unknown id.
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	// ListOrders returns newest first; an empty userID lists every order.
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	// UpdateStatus moves id from -> to only if it is still in from, and
	// returns domain.ErrConcurrentUpdate otherwise.
	UpdateStatus(ctx context.Context, id string, from, to domain.Status, at time.Time, entry statuslog.Entry) error
	History(ctx context.Context, orderID string) ([]statuslog.Entry, error)

	Ping(ctx context.Context) error
}
