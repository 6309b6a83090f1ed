package cart

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/apperr"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
)

type memSlot struct {
	mu      sync.Mutex
	payload []byte
	saves   int
	failErr error
}

func (m *memSlot) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.payload, nil
}

func (m *memSlot) Save(_ context.Context, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.saves++
	m.payload = append([]byte(nil), p...)
	return nil
}

func (m *memSlot) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payload = nil
	return nil
}

func product(id, price string) entity.Product {
	return entity.Product{
		ID:         id,
		Name:       "Product " + id,
		Price:      decimal.RequireFromString(price),
		Restaurant: entity.Restaurant{ID: "r1", Name: "Shawarma House"},
	}
}

func setup(t *testing.T) (*Store, *memSlot) {
	t.Helper()
	slot := &memSlot{}
	return Open(context.Background(), slot, nil), slot
}

func TestAddToCartMergesQuantities(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()
	p := product("p1", "10.00")

	require.NoError(t, s.AddToCart(ctx, p, 2))
	require.NoError(t, s.AddToCart(ctx, p, 3))

	lines := s.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, s.ItemCount())
}

func TestAddToCartRejectsNonPositiveQuantity(t *testing.T) {
	s, slot := setup(t)

	err := s.AddToCart(context.Background(), product("p1", "1"), 0)

	assert.ErrorIs(t, err, apperr.ErrInvalidQuantity)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.True(t, s.IsEmpty())
	assert.Zero(t, slot.saves)
}

func TestJustAddedIsConsumedOnce(t *testing.T) {
	s, _ := setup(t)

	_, ok := s.TakeJustAdded()
	assert.False(t, ok)

	require.NoError(t, s.AddToCart(context.Background(), product("p1", "1"), 1))
	l, ok := s.TakeJustAdded()
	require.True(t, ok)
	assert.Equal(t, "p1", l.Product.ID)

	_, ok = s.TakeJustAdded()
	assert.False(t, ok)
}

func TestRemoveFromCartIsIdempotent(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, product("p1", "1"), 1))
	require.NoError(t, s.AddToCart(ctx, product("p2", "1"), 1))

	require.NoError(t, s.RemoveFromCart(ctx, "p1"))
	after := s.Lines()
	require.NoError(t, s.RemoveFromCart(ctx, "p1"))

	assert.Equal(t, after, s.Lines())
	require.Len(t, after, 1)
	assert.Equal(t, "p2", after[0].Product.ID)
}

func TestUpdateQuantity(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, product("p1", "1"), 4))

	t.Run("absolute set", func(t *testing.T) {
		require.NoError(t, s.UpdateQuantity(ctx, "p1", 2))
		assert.Equal(t, 2, s.Lines()[0].Quantity)
	})

	t.Run("unknown product is a no-op", func(t *testing.T) {
		require.NoError(t, s.UpdateQuantity(ctx, "ghost", 7))
		assert.Equal(t, 1, s.LineCount())
	})

	t.Run("zero removes", func(t *testing.T) {
		require.NoError(t, s.UpdateQuantity(ctx, "p1", 0))
		assert.True(t, s.IsEmpty())
	})
}

func TestTotalPrice(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, product("a", "10.00"), 2))
	require.NoError(t, s.AddToCart(ctx, product("b", "5.50"), 3))

	assert.True(t, s.TotalPrice().Equal(decimal.RequireFromString("36.50")))

	totals := s.Totals()
	assert.Equal(t, "5.48", totals.VAT.StringFixed(2))
	assert.Equal(t, "41.98", totals.Total.StringFixed(2))
}

func TestPersistenceSurvivesReload(t *testing.T) {
	slot := &memSlot{}
	ctx := context.Background()
	first := Open(ctx, slot, nil)
	p := product("p1", "12.25")
	p.OriginalPrice = decimal.NewNullDecimal(decimal.RequireFromString("15"))
	require.NoError(t, first.AddToCart(ctx, p, 2))

	second := Open(ctx, slot, nil)

	lines := second.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
	assert.True(t, lines[0].Product.Price.Equal(p.Price))
	assert.True(t, lines[0].Product.OriginalPrice.Valid)
	r, ok := second.Restaurant()
	require.True(t, ok)
	assert.Equal(t, "r1", r.ID)
}

func TestCorruptPayloadFailsOpen(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		lines   int
	}{
		{"garbage", "{not json", 0},
		{"wrong shape", `{"items": 3}`, 0},
		{"drops bad lines", `[{"product":{"id":"p1","price":"1"},"quantity":0},{"product":{"id":"p2","price":"1"},"quantity":2}]`, 1},
		{"merges duplicates", `[{"product":{"id":"p1","price":"1"},"quantity":1},{"product":{"id":"p1","price":"1"},"quantity":2}]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Open(context.Background(), &memSlot{payload: []byte(tt.payload)}, nil)
			assert.Equal(t, tt.lines, s.LineCount())
		})
	}
}

func TestClearCartRemovesPersistedState(t *testing.T) {
	s, slot := setup(t)
	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, product("p1", "1"), 1))

	require.NoError(t, s.ClearCart(ctx))

	assert.True(t, s.IsEmpty())
	assert.Nil(t, slot.payload)
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	s, slot := setup(t)
	slot.failErr = errors.New("disk full")

	err := s.AddToCart(context.Background(), product("p1", "1"), 1)

	assert.True(t, apperr.IsTransient(err))
	assert.Equal(t, 1, s.ItemCount())
}

func TestSnapshotCarriesNoPrices(t *testing.T) {
	s, _ := setup(t)
	ctx := context.Background()
	require.NoError(t, s.AddToCart(ctx, product("a", "10"), 2))
	require.NoError(t, s.AddToCart(ctx, product("b", "3"), 1))

	req := s.Snapshot("Main St 1")

	assert.Equal(t, "Main St 1", req.Location)
	assert.Equal(t, []entity.OrderItemRequest{{ProductID: "a", Quantity: 2}, {ProductID: "b", Quantity: 1}}, req.Items)
}

func TestConcurrentAddsDoNotLoseUpdates(t *testing.T) {
	s, _ := setup(t)
	p := product("p1", "1")

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.AddToCart(context.Background(), p, 1)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.ItemCount())
	assert.Equal(t, 1, s.LineCount())
}

func counter() func() string {
	n := 0
	return func() string {
		n++
		return "key-" + strconv.Itoa(n)
	}
}

func TestPendingKey(t *testing.T) {
	ctx := context.Background()

	t.Run("reused until the cart changes", func(t *testing.T) {
		s, _ := setup(t)
		next := counter()
		require.NoError(t, s.AddToCart(ctx, product("p1", "1"), 1))

		assert.Equal(t, "key-1", s.PendingKey(ctx, next))
		assert.Equal(t, "key-1", s.PendingKey(ctx, next))

		require.NoError(t, s.UpdateQuantity(ctx, "p1", 1))
		assert.Equal(t, "key-1", s.PendingKey(ctx, next), "same quantity is not a change")

		require.NoError(t, s.AddToCart(ctx, product("p2", "1"), 1))
		assert.Equal(t, "key-2", s.PendingKey(ctx, next))

		require.NoError(t, s.RemoveFromCart(ctx, "p2"))
		assert.Equal(t, "key-3", s.PendingKey(ctx, next))
	})

	t.Run("survives a restart", func(t *testing.T) {
		s, slot := setup(t)
		require.NoError(t, s.AddToCart(ctx, product("p1", "1"), 2))
		key := s.PendingKey(ctx, counter())

		reopened := Open(ctx, slot, nil)

		assert.Equal(t, key, reopened.PendingKey(ctx, func() string { return "fresh" }))
		assert.Equal(t, 2, reopened.ItemCount())
	})

	t.Run("dropped by clear", func(t *testing.T) {
		s, slot := setup(t)
		require.NoError(t, s.AddToCart(ctx, product("p1", "1"), 1))
		s.PendingKey(ctx, counter())

		require.NoError(t, s.ClearCart(ctx))
		require.NoError(t, s.AddToCart(ctx, product("p1", "1"), 1))

		assert.Equal(t, "fresh", Open(ctx, slot, nil).PendingKey(ctx, func() string { return "fresh" }))
	})
}
