package app_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/food-ordering/internal/order-service/adapters/sqlite"
	"github.com/jcmexdev/food-ordering/internal/order-service/app"
	"github.com/jcmexdev/food-ordering/internal/order-service/domain"
	"github.com/jcmexdev/food-ordering/internal/pkg/cache"
)

var (
	alice = domain.Principal{UserID: "alice"}
	bob   = domain.Principal{UserID: "bob"}
	ops   = domain.Principal{UserID: "ops", Admin: true}
)

type env struct {
	svc   *app.Service
	repo  *sqlite.Repository
	redis *miniredis.Miniredis
	cache cache.Cache
}

func setup(t *testing.T) *env {
	t.Helper()
	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "orders.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "order")
	t.Cleanup(func() { _ = c.Close() })

	svc := app.NewService(repo, c, nil)
	n, err := svc.SeedCatalog(context.Background(), app.DefaultCatalog())
	require.NoError(t, err)
	require.Equal(t, len(app.DefaultCatalog()), n)

	return &env{svc: svc, repo: repo, redis: mr, cache: c}
}

func basket() domain.CreateRequest {
	return domain.CreateRequest{
		Location: "12 Olive St",
		Items: []domain.ItemRequest{
			{ProductID: "p-shawarma", Quantity: 2},
			{ProductID: "p-hummus", Quantity: 1},
		},
	}
}

func TestSeedCatalogOnlyOnce(t *testing.T) {
	e := setup(t)

	n, err := e.svc.SeedCatalog(context.Background(), app.DefaultCatalog())
	require.NoError(t, err)
	assert.Zero(t, n)

	products, err := e.svc.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, products, len(app.DefaultCatalog()))
}

func TestCreateOrderPricesFromCatalog(t *testing.T) {
	e := setup(t)

	order, replayed, err := e.svc.CreateOrder(context.Background(), alice, "", basket())

	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, "alice", order.UserID)
	// 2 x 8.50 + 4.25 = 21.25; VAT 3.1875 -> 3.19
	assert.Equal(t, "21.25", order.Subtotal.StringFixed(2))
	assert.Equal(t, "3.19", order.VAT.StringFixed(2))
	assert.Equal(t, "24.44", order.TotalPrice.StringFixed(2))

	history, err := e.svc.History(context.Background(), alice, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "PENDING", history[0].To)
}

func TestCreateOrderRejectsMixedRestaurants(t *testing.T) {
	e := setup(t)
	req := basket()
	req.Items = append(req.Items, domain.ItemRequest{ProductID: "p-ramen", Quantity: 1})

	_, _, err := e.svc.CreateOrder(context.Background(), alice, "", req)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Details, "all items must come from the same restaurant")
}

func TestCreateOrderIdempotentReplay(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	first, replayed, err := e.svc.CreateOrder(ctx, alice, "key-1", basket())
	require.NoError(t, err)
	require.False(t, replayed)

	second, replayed, err := e.svc.CreateOrder(ctx, alice, "key-1", basket())
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)

	// The same key from another user is a different order.
	other, replayed, err := e.svc.CreateOrder(ctx, bob, "key-1", basket())
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.NotEqual(t, first.ID, other.ID)

	all, err := e.svc.ListOrders(ctx, ops)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	ttl := e.redis.TTL("order:create:alice:key-1")
	assert.Equal(t, app.DefaultIdempotencyTTL, ttl)
}

func TestCreateOrderReleasesKeyOnFailure(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	bad := domain.CreateRequest{Location: "x", Items: []domain.ItemRequest{{ProductID: "ghost", Quantity: 1}}}

	_, _, err := e.svc.CreateOrder(ctx, alice, "key-2", bad)
	require.Error(t, err)
	assert.False(t, e.redis.Exists("order:create:alice:key-2"))

	_, replayed, err := e.svc.CreateOrder(ctx, alice, "key-2", basket())
	require.NoError(t, err)
	assert.False(t, replayed)
}

func TestCreateOrderDuplicateInFlight(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	// Reserved by a request that has not committed yet.
	require.NoError(t, e.redis.Set("order:create:alice:key-3", "not-yet-stored"))

	_, _, err := e.svc.CreateOrder(ctx, alice, "key-3", basket())
	assert.ErrorIs(t, err, domain.ErrDuplicateInFlight)
}

func TestCreateOrderSurvivesRedisOutage(t *testing.T) {
	e := setup(t)
	e.redis.Close()

	order, _, err := e.svc.CreateOrder(context.Background(), alice, "key-4", basket())

	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Error(t, e.svc.Health(context.Background()))
}

func TestOrdersAreScopedToTheirOwner(t *testing.T) {
	e := setup(t)
	ctx := context.Background()
	order, _, err := e.svc.CreateOrder(ctx, alice, "", basket())
	require.NoError(t, err)

	_, err = e.svc.GetOrder(ctx, bob, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = e.svc.UpdateStatus(ctx, bob, order.ID, domain.StatusCancelled)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	mine, err := e.svc.ListOrders(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, mine)

	got, err := e.svc.GetOrder(ctx, ops, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("customer may cancel a pending order", func(t *testing.T) {
		e := setup(t)
		order, _, err := e.svc.CreateOrder(ctx, alice, "", basket())
		require.NoError(t, err)

		got, err := e.svc.UpdateStatus(ctx, alice, order.ID, domain.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status)
		assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
	})

	t.Run("customer may not advance an order", func(t *testing.T) {
		e := setup(t)
		order, _, err := e.svc.CreateOrder(ctx, alice, "", basket())
		require.NoError(t, err)

		_, err = e.svc.UpdateStatus(ctx, alice, order.ID, domain.StatusAccepted)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("accepted orders cannot be cancelled", func(t *testing.T) {
		e := setup(t)
		order, _, err := e.svc.CreateOrder(ctx, alice, "", basket())
		require.NoError(t, err)
		_, err = e.svc.UpdateStatus(ctx, ops, order.ID, domain.StatusAccepted)
		require.NoError(t, err)

		_, err = e.svc.UpdateStatus(ctx, alice, order.ID, domain.StatusCancelled)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)

		var terr *domain.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, domain.StatusAccepted, terr.From)
	})

	t.Run("ready orders can still be cancelled", func(t *testing.T) {
		e := setup(t)
		order, _, err := e.svc.CreateOrder(ctx, alice, "", basket())
		require.NoError(t, err)
		_, err = e.svc.UpdateStatus(ctx, ops, order.ID, domain.StatusReady)
		require.NoError(t, err)

		got, err := e.svc.UpdateStatus(ctx, alice, order.ID, domain.StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, got.Status)

		history, err := e.svc.History(ctx, alice, order.ID)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, "alice", history[2].Actor)
	})

	t.Run("terminal states stay terminal", func(t *testing.T) {
		e := setup(t)
		order, _, err := e.svc.CreateOrder(ctx, alice, "", basket())
		require.NoError(t, err)
		for _, st := range []domain.Status{domain.StatusAccepted, domain.StatusCompleted} {
			_, err = e.svc.UpdateStatus(ctx, ops, order.ID, st)
			require.NoError(t, err)
		}

		_, err = e.svc.UpdateStatus(ctx, ops, order.ID, domain.StatusReady)
		assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	})
}

func TestListOrdersNewestFirst(t *testing.T) {
	e := setup(t)
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	svc := app.NewService(e.repo, e.cache, nil, app.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()

	first, _, err := svc.CreateOrder(ctx, alice, "", basket())
	require.NoError(t, err)
	second, _, err := svc.CreateOrder(ctx, alice, "", basket())
	require.NoError(t, err)

	list, err := svc.ListOrders(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}
