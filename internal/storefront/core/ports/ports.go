package ports

import (
	"context"

	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
)

// OrderAPI is the backend as seen by the submission gate and the order book.
type OrderAPI interface {
	// CreateOrder posts req once. idempotencyKey identifies the attempt so the
	// backend can recognise a resubmission whose first response was lost.
	CreateOrder(ctx context.Context, cred entity.Credential, idempotencyKey string, req entity.OrderRequest) (*entity.Order, error)
	ListOrders(ctx context.Context, cred entity.Credential) ([]entity.Order, error)
	CancelOrder(ctx context.Context, cred entity.Credential, orderID string) (*entity.Order, error)
}

type CatalogAPI interface {
	ListProducts(ctx context.Context) ([]entity.Product, error)
}

// CartSlot is the durable client-side home of one session's cart. Load
// returns (nil, nil) when nothing has been stored yet.
type CartSlot interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, payload []byte) error
	Clear(ctx context.Context) error
}
