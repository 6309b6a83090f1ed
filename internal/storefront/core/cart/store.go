// Package cart holds the client-side cart: one line per product, persisted to
// a CartSlot after every mutation and restored on start-up.
package cart

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/jcmexdev/food-ordering/internal/money"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/apperr"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/ports"
)

// Store is the single cart of a session. All methods are safe for concurrent
// use; a single mutex covers every read-modify-write of the lines.
type Store struct {
	mu        sync.Mutex
	lines     []entity.CartLine
	slot      ports.CartSlot
	logger    *slog.Logger
	justAdded *entity.CartLine
	// pendingKey is the idempotency key of a submission that has not been
	// confirmed yet. Any change to the lines drops it.
	pendingKey string
}

// payload is the persisted form. Older carts were stored as a bare array of
// lines; Open still reads those.
type payload struct {
	Lines      []entity.CartLine `json:"lines"`
	PendingKey string            `json:"pendingKey,omitempty"`
}

func decode(raw []byte) (payload, error) {
	var p payload
	if trimmed := strings.TrimSpace(string(raw)); strings.HasPrefix(trimmed, "[") {
		err := json.Unmarshal(raw, &p.Lines)
		return p, err
	}
	err := json.Unmarshal(raw, &p)
	return p, err
}

// Open restores the cart persisted in slot. A missing or unreadable payload
// yields an empty cart; Open never fails because of what is in the slot.
func Open(ctx context.Context, slot ports.CartSlot, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{slot: slot, logger: logger}

	raw, err := slot.Load(ctx)
	if err != nil {
		logger.WarnContext(ctx, "cart slot unreadable, starting empty", "error", err)
		return s
	}
	if len(raw) == 0 {
		return s
	}

	stored, err := decode(raw)
	if err != nil {
		logger.WarnContext(ctx, "cart payload corrupt, starting empty", "error", err)
		return s
	}
	s.lines = sanitize(stored.Lines)
	if len(s.lines) > 0 {
		s.pendingKey = stored.PendingKey
	}
	return s
}

// sanitize drops lines that could only come from a hand-edited or stale
// payload and merges duplicates.
func sanitize(stored []entity.CartLine) []entity.CartLine {
	out := make([]entity.CartLine, 0, len(stored))
	for _, l := range stored {
		if l.Product.ID == "" || l.Quantity < 1 {
			continue
		}
		if i := indexOf(out, l.Product.ID); i >= 0 {
			out[i].Quantity += l.Quantity
			continue
		}
		out = append(out, l)
	}
	return out
}

func indexOf(lines []entity.CartLine, productID string) int {
	for i := range lines {
		if lines[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// AddToCart merges quantity into the line for product, creating it if needed.
func (s *Store) AddToCart(ctx context.Context, product entity.Product, quantity int) error {
	if quantity < 1 {
		return apperr.ErrInvalidQuantity
	}
	if strings.TrimSpace(product.ID) == "" {
		return apperr.New(apperr.KindValidation, apperr.CodeInvalidProduct, "Unknown product")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var added entity.CartLine
	if i := indexOf(s.lines, product.ID); i >= 0 {
		s.lines[i].Quantity += quantity
		added = s.lines[i]
	} else {
		added = entity.CartLine{Product: product, Quantity: quantity}
		s.lines = append(s.lines, added)
	}
	s.justAdded = &added
	s.pendingKey = ""

	return s.persistLocked(ctx)
}

// RemoveFromCart deletes the line for productID. Removing an absent product
// is not an error.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.lines, productID)
	if i < 0 {
		return nil
	}
	s.lines = append(s.lines[:i], s.lines[i+1:]...)
	s.pendingKey = ""
	return s.persistLocked(ctx)
}

// UpdateQuantity sets an absolute quantity. quantity <= 0 removes the line;
// an absent product is left alone.
func (s *Store) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, productID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := indexOf(s.lines, productID)
	if i < 0 || s.lines[i].Quantity == quantity {
		return nil
	}
	s.lines[i].Quantity = quantity
	s.pendingKey = ""
	return s.persistLocked(ctx)
}

// ClearCart empties the cart and removes its persisted payload.
func (s *Store) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.justAdded = nil
	s.pendingKey = ""
	if err := s.slot.Clear(ctx); err != nil {
		return apperr.Wrap(apperr.KindTransient, apperr.CodeStorage, "Could not save your cart", err)
	}
	return nil
}

// persistLocked writes the current lines. On failure the in-memory cart keeps
// the mutation; the caller gets a transient error to report.
func (s *Store) persistLocked(ctx context.Context) error {
	raw, err := json.Marshal(payload{Lines: s.lines, PendingKey: s.pendingKey})
	if err != nil {
		return apperr.Wrap(apperr.KindUnknown, apperr.CodeStorage, "Could not save your cart", err)
	}
	if err := s.slot.Save(ctx, raw); err != nil {
		s.logger.ErrorContext(ctx, "cart persist failed", "lines", len(s.lines), "error", err)
		return apperr.Wrap(apperr.KindTransient, apperr.CodeStorage, "Could not save your cart", err)
	}
	return nil
}

// PendingKey returns the idempotency key for submitting the current lines,
// minting one with newKey on first use. Retrying an unconfirmed submission
// therefore reuses the key until the cart changes or is cleared. A failure to
// persist the key is logged; the key still holds for this process.
func (s *Store) PendingKey(ctx context.Context, newKey func() string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pendingKey != "" {
		return s.pendingKey
	}
	s.pendingKey = newKey()
	if err := s.persistLocked(ctx); err != nil {
		s.logger.WarnContext(ctx, "pending submission key not persisted", "error", err)
	}
	return s.pendingKey
}

// TakeJustAdded reports the line touched by the last AddToCart, once.
func (s *Store) TakeJustAdded() (entity.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.justAdded == nil {
		return entity.CartLine{}, false
	}
	l := *s.justAdded
	s.justAdded = nil
	return l, true
}

// Lines returns a copy of the current lines in insertion order.
func (s *Store) Lines() []entity.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]entity.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return money.CartSubtotal(s.lines)
}

// Totals is the display-only breakdown shown before submission.
func (s *Store) Totals() money.Breakdown {
	return money.Break(s.TotalPrice())
}

// ItemCount is the number of units across all lines.
func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

func (s *Store) LineCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

func (s *Store) IsEmpty() bool {
	return s.LineCount() == 0
}

// Restaurant is the restaurant of the first line, which is taken as the
// restaurant of the whole cart.
func (s *Store) Restaurant() (entity.Restaurant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return entity.Restaurant{}, false
	}
	return s.lines[0].Product.Restaurant, true
}

// Snapshot builds the outbound order request for the current lines.
func (s *Store) Snapshot(location string) entity.OrderRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]entity.OrderItemRequest, 0, len(s.lines))
	for _, l := range s.lines {
		items = append(items, entity.OrderItemRequest{
			ProductID: l.Product.ID,
			Quantity:  l.Quantity,
		})
	}
	return entity.OrderRequest{Items: items, Location: location}
}
