// Package orders holds what the storefront knows about placed orders: the
// status rules used for rendering and the Book, a cache of the user's orders
// that is only ever replaced by a fresh fetch from the backend.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/apperr"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/ports"
)

// Book caches the authenticated user's orders. Nothing in the Book writes a
// status locally: every mutation goes to the backend and is followed by
// Refresh.
type Book struct {
	api     ports.OrderAPI
	logger  *slog.Logger
	timeout time.Duration

	mu          sync.RWMutex
	orders      []entity.Order
	seen        map[string]entity.OrderStatus
	refreshedAt time.Time
}

func NewBook(api ports.OrderAPI, timeout time.Duration, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	return &Book{
		api:     api,
		logger:  logger,
		timeout: timeout,
		seen:    make(map[string]entity.OrderStatus),
	}
}

func (b *Book) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

// Refresh re-fetches the full order list and swaps it in wholesale. On error
// the previous list stays in place.
func (b *Book) Refresh(ctx context.Context, cred entity.Credential) error {
	if cred.IsZero() {
		return apperr.ErrUnauthenticated
	}

	ctx, cancel := b.withTimeout(ctx)
	defer cancel()

	list, err := b.api.ListOrders(ctx, cred)
	if err != nil {
		return fmt.Errorf("refresh orders: %w", err)
	}

	b.mu.Lock()
	b.orders = list
	b.refreshedAt = time.Now()
	b.mu.Unlock()

	b.logger.DebugContext(ctx, "orders refreshed", "count", len(list))
	return nil
}

// Cancel asks the backend to cancel orderID and re-syncs afterwards whatever
// the answer, including errors. Only the local checks skip the network. The cached status is never set to CANCELLED by hand.
func (b *Book) Cancel(ctx context.Context, cred entity.Credential, orderID string) error {
	if cred.IsZero() {
		return apperr.ErrUnauthenticated
	}
	if o, ok := b.Find(orderID); ok && !CanCancel(o.Status) {
		return apperr.ErrNotCancellable
	}

	callCtx, cancel := b.withTimeout(ctx)
	_, err := b.api.CancelOrder(callCtx, cred, orderID)
	cancel()

	if err != nil {
		// A rejection or a lost reply both leave the cache unknown: the
		// backend may have applied the cancel anyway.
		b.logger.WarnContext(ctx, "cancel failed", "order_id", orderID, "kind", apperr.KindOf(err).String(), "error", err)
		if rerr := b.Refresh(ctx, cred); rerr != nil {
			b.logger.WarnContext(ctx, "re-sync after failed cancel failed", "order_id", orderID, "error", rerr)
		}
		return err
	}

	b.logger.InfoContext(ctx, "cancel accepted", "order_id", orderID)
	if err := b.Refresh(ctx, cred); err != nil {
		return fmt.Errorf("order %s cancelled but the list is stale: %w", orderID, err)
	}
	return nil
}

// Orders returns a copy of the cached list, in the order the backend sent it.
func (b *Book) Orders() []entity.Order {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]entity.Order, len(b.orders))
	copy(out, b.orders)
	return out
}

func (b *Book) Find(orderID string) (entity.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, o := range b.orders {
		if o.ID == orderID {
			return o, true
		}
	}
	return entity.Order{}, false
}

// RefreshedAt is the time of the last successful Refresh, zero if none.
func (b *Book) RefreshedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.refreshedAt
}

// UnreadCount is the number of cached orders whose status changed since the
// last MarkSeen. Orders never acknowledged count as unread.
func (b *Book) UnreadCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	n := 0
	for _, o := range b.orders {
		if b.unreadLocked(o) {
			n++
		}
	}
	return n
}

// IsUnread reports whether o's status differs from the one last acknowledged.
func (b *Book) IsUnread(o entity.Order) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.unreadLocked(o)
}

func (b *Book) unreadLocked(o entity.Order) bool {
	st, ok := b.seen[o.ID]
	return !ok || st != o.Status
}

// MarkSeen acknowledges the statuses currently in the cache.
func (b *Book) MarkSeen() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, o := range b.orders {
		b.seen[o.ID] = o.Status
	}
}

// Seen exposes the acknowledged statuses so a caller can persist them.
func (b *Book) Seen() map[string]entity.OrderStatus {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make(map[string]entity.OrderStatus, len(b.seen))
	for k, v := range b.seen {
		out[k] = v
	}
	return out
}

// RestoreSeen loads acknowledged statuses saved by an earlier session.
func (b *Book) RestoreSeen(seen map[string]entity.OrderStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for k, v := range seen {
		b.seen[k] = v
	}
}
