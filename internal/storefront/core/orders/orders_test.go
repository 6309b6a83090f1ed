package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/apperr"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/orders"
	"github.com/jcmexdev/food-ordering/internal/storefront/infra/adapters/fake"
)

const token entity.Credential = "token-1"

var shawarma = entity.Product{ID: "p1", Name: "Shawarma", Price: decimal.RequireFromString("12.00")}

func TestCanCancel(t *testing.T) {
	cases := map[entity.OrderStatus]bool{
		entity.StatusPending:   true,
		entity.StatusReady:     true,
		entity.StatusAccepted:  false,
		entity.StatusCompleted: false,
		entity.StatusCancelled: false,
		"REFUNDED":             false,
	}
	for status, want := range cases {
		t.Run(string(status), func(t *testing.T) {
			assert.Equal(t, want, orders.CanCancel(status))
		})
	}
}

func TestTransitions(t *testing.T) {
	assert.True(t, orders.CanTransition(entity.StatusPending, entity.StatusAccepted))
	assert.True(t, orders.CanTransition(entity.StatusPending, entity.StatusCancelled))
	assert.True(t, orders.CanTransition(entity.StatusReady, entity.StatusCancelled))
	assert.False(t, orders.CanTransition(entity.StatusAccepted, entity.StatusCancelled))
	assert.False(t, orders.CanTransition(entity.StatusCompleted, entity.StatusPending))
	assert.False(t, orders.CanTransition(entity.StatusCancelled, entity.StatusPending))

	assert.True(t, orders.IsTerminal(entity.StatusCompleted))
	assert.True(t, orders.IsTerminal(entity.StatusCancelled))
	assert.False(t, orders.IsTerminal(entity.StatusReady))
}

func TestDisplayHelpers(t *testing.T) {
	assert.False(t, orders.IsPaidDisplay(entity.StatusPending))
	assert.True(t, orders.IsPaidDisplay(entity.StatusAccepted))
	assert.False(t, orders.IsPaidDisplay(entity.StatusCancelled))

	assert.Equal(t, "Ready for pickup", orders.Label(entity.StatusReady))
	assert.Equal(t, "ON_HOLD", orders.Label("ON_HOLD"))
}

func placeOrder(t *testing.T, b *fake.Backend) *entity.Order {
	t.Helper()
	o, err := b.CreateOrder(context.Background(), token, "", entity.OrderRequest{
		Items:    []entity.OrderItemRequest{{ProductID: shawarma.ID, Quantity: 1}},
		Location: "Main St",
	})
	require.NoError(t, err)
	return o
}

func TestRefreshRequiresCredential(t *testing.T) {
	backend := fake.NewBackend(shawarma)
	book := orders.NewBook(backend, time.Second, nil)

	err := book.Refresh(context.Background(), "")

	assert.True(t, apperr.IsAuth(err))
	assert.Zero(t, backend.ListCalls)
}

func TestRefreshKeepsOldListOnError(t *testing.T) {
	backend := fake.NewBackend(shawarma)
	placeOrder(t, backend)
	book := orders.NewBook(backend, time.Second, nil)
	require.NoError(t, book.Refresh(context.Background(), token))
	stamp := book.RefreshedAt()

	backend.FailNext = apperr.New(apperr.KindTransient, apperr.CodeBackend, "down")
	err := book.Refresh(context.Background(), token)

	assert.True(t, apperr.IsTransient(err))
	assert.Len(t, book.Orders(), 1)
	assert.Equal(t, stamp, book.RefreshedAt())
}

func TestCancelDefersToServer(t *testing.T) {
	backend := fake.NewBackend(shawarma)
	o := placeOrder(t, backend)
	book := orders.NewBook(backend, time.Second, nil)
	require.NoError(t, book.Refresh(context.Background(), token))

	// The backend reports a different status than the one it just applied.
	backend.OnList = func(list []entity.Order) []entity.Order {
		for i := range list {
			list[i].Status = entity.StatusReady
		}
		return list
	}

	require.NoError(t, book.Cancel(context.Background(), token, o.ID))

	got, ok := book.Find(o.ID)
	require.True(t, ok)
	assert.Equal(t, entity.StatusReady, got.Status)
	assert.Equal(t, 1, backend.CancelCalls)
}

func TestCancelNotCancellableSkipsNetwork(t *testing.T) {
	backend := fake.NewBackend(shawarma)
	o := placeOrder(t, backend)
	require.NoError(t, backend.Advance(o.ID, entity.StatusAccepted))
	book := orders.NewBook(backend, time.Second, nil)
	require.NoError(t, book.Refresh(context.Background(), token))

	err := book.Cancel(context.Background(), token, o.ID)

	assert.ErrorIs(t, err, apperr.ErrNotCancellable)
	assert.Zero(t, backend.CancelCalls)
}

func TestCancelConflictResyncs(t *testing.T) {
	backend := fake.NewBackend(shawarma)
	o := placeOrder(t, backend)
	book := orders.NewBook(backend, time.Second, nil)
	require.NoError(t, book.Refresh(context.Background(), token))

	// The restaurant accepts the order after our last fetch.
	require.NoError(t, backend.Advance(o.ID, entity.StatusAccepted))
	listsBefore := backend.ListCalls

	err := book.Cancel(context.Background(), token, o.ID)

	assert.True(t, apperr.IsConflict(err))
	assert.Equal(t, listsBefore+1, backend.ListCalls)
	got, _ := book.Find(o.ID)
	assert.Equal(t, entity.StatusAccepted, got.Status)
}

func TestUnreadCount(t *testing.T) {
	backend := fake.NewBackend(shawarma)
	first := placeOrder(t, backend)
	placeOrder(t, backend)
	book := orders.NewBook(backend, time.Second, nil)
	ctx := context.Background()

	require.NoError(t, book.Refresh(ctx, token))
	assert.Equal(t, 2, book.UnreadCount())

	book.MarkSeen()
	assert.Zero(t, book.UnreadCount())

	require.NoError(t, backend.Advance(first.ID, entity.StatusAccepted))
	require.NoError(t, book.Refresh(ctx, token))
	assert.Equal(t, 1, book.UnreadCount())

	restored := orders.NewBook(backend, time.Second, nil)
	restored.RestoreSeen(book.Seen())
	require.NoError(t, restored.Refresh(ctx, token))
	assert.Equal(t, 1, restored.UnreadCount())
}

// lostCancel applies the cancel on the backend and then reports a timeout.
type lostCancel struct {
	*fake.Backend
}

func (l *lostCancel) CancelOrder(ctx context.Context, cred entity.Credential, orderID string) (*entity.Order, error) {
	if _, err := l.Backend.CancelOrder(ctx, cred, orderID); err != nil {
		return nil, err
	}
	return nil, apperr.New(apperr.KindTransient, apperr.CodeBackend, "timed out")
}

func TestCancelResyncsOnAnyBackendError(t *testing.T) {
	t.Run("transient after the server applied it", func(t *testing.T) {
		backend := fake.NewBackend(shawarma)
		o := placeOrder(t, backend)
		book := orders.NewBook(&lostCancel{Backend: backend}, time.Second, nil)
		require.NoError(t, book.Refresh(context.Background(), token))
		listsBefore := backend.ListCalls

		err := book.Cancel(context.Background(), token, o.ID)

		assert.True(t, apperr.IsTransient(err))
		assert.Equal(t, listsBefore+1, backend.ListCalls)
		got, _ := book.Find(o.ID)
		assert.Equal(t, entity.StatusCancelled, got.Status)
	})

	t.Run("validation rejection", func(t *testing.T) {
		backend := fake.NewBackend(shawarma)
		o := placeOrder(t, backend)
		book := orders.NewBook(backend, time.Second, nil)
		require.NoError(t, book.Refresh(context.Background(), token))
		listsBefore := backend.ListCalls
		backend.FailNext = apperr.New(apperr.KindValidation, apperr.CodeBackend, "Invalid status")

		err := book.Cancel(context.Background(), token, o.ID)

		assert.Equal(t, "Invalid status", apperr.MessageOf(err))
		assert.Equal(t, listsBefore+1, backend.ListCalls)
		got, _ := book.Find(o.ID)
		assert.Equal(t, entity.StatusPending, got.Status)
	})
}

func TestIsUnread(t *testing.T) {
	backend := fake.NewBackend(shawarma)
	o := placeOrder(t, backend)
	book := orders.NewBook(backend, time.Second, nil)
	ctx := context.Background()
	require.NoError(t, book.Refresh(ctx, token))

	cached, _ := book.Find(o.ID)
	assert.True(t, book.IsUnread(cached))

	book.MarkSeen()
	assert.False(t, book.IsUnread(cached))

	cached.Status = entity.StatusAccepted
	assert.True(t, book.IsUnread(cached))
}
