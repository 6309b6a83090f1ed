// Package app is the order service's use-case layer.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jcmexdev/food-ordering/internal/coordinator"
	"github.com/jcmexdev/food-ordering/internal/order-service/domain"
	"github.com/jcmexdev/food-ordering/internal/order-service/statuslog"
	"github.com/jcmexdev/food-ordering/internal/pkg/cache"
	"github.com/jcmexdev/food-ordering/internal/pkg/interceptors"
)

const DefaultIdempotencyTTL = 24 * time.Hour

type Service struct {
	repo    Repository
	cache   cache.Cache
	logger  *slog.Logger
	idemTTL time.Duration
	now     func() time.Time
}

type Option func(*Service)

func WithIdempotencyTTL(d time.Duration) Option {
	return func(s *Service) { s.idemTTL = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the use cases. idem may be nil, in which case the
// idempotency key is ignored.
func NewService(repo Repository, idem cache.Cache, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:    repo,
		cache:   idem,
		logger:  logger,
		idemTTL: DefaultIdempotencyTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// errKeyTaken signals that another request already holds the idempotency key.
var errKeyTaken = errors.New("idempotency key already reserved")

// CreateOrder prices and persists a new PENDING order. A repeated
// idempotency key from the same user returns the order created the first
// time, with replayed set.
func (s *Service) CreateOrder(ctx context.Context, p domain.Principal, idemKey string, req domain.CreateRequest) (*domain.Order, bool, error) {
	req, err := req.Validate()
	if err != nil {
		return nil, false, err
	}

	var (
		order = &domain.Order{ID: uuid.NewString(), UserID: p.UserID, Status: domain.StatusPending, Location: req.Location}
		steps []coordinator.Step
		key   string
	)
	if idemKey != "" && s.cache != nil {
		key = s.cache.GenerateKey("create", p.UserID+":"+idemKey)
		steps = append(steps, s.reserveKeyStep(key, order.ID))
	}
	steps = append(steps,
		coordinator.StepFunc{Label: "price_order", Do: func(ctx context.Context) error {
			return s.price(ctx, order, req)
		}},
		coordinator.StepFunc{Label: "store_order", Do: func(ctx context.Context) error {
			entry := statuslog.NewEntry(ctx, order.ID, "", string(order.Status), p.UserID, interceptors.RequestID(ctx), order.CreatedAt)
			if err := s.repo.CreateOrder(ctx, order, entry); err != nil {
				return fmt.Errorf("create order: %w", err)
			}
			return nil
		}},
	)

	err = coordinator.NewOrchestrator(s.logger, steps...).Start(ctx)
	if errors.Is(err, errKeyTaken) {
		return s.replay(ctx, p, key)
	}
	if err != nil {
		return nil, false, err
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"user_id", p.UserID,
		"total", order.TotalPrice.StringFixed(2),
		"request_id", interceptors.RequestID(ctx),
	)
	return order, false, nil
}

// reserveKeyStep claims key for orderID. The key is released again if a
// later step fails. An unreachable store only costs deduplication.
func (s *Service) reserveKeyStep(key, orderID string) coordinator.Step {
	var reserved bool
	return coordinator.StepFunc{
		Label: "reserve_idempotency_key",
		Do: func(ctx context.Context) error {
			ok, err := s.cache.SetNX(ctx, key, orderID, s.idemTTL)
			switch {
			case err != nil:
				s.logger.WarnContext(ctx, "idempotency store unavailable", "error", err)
				return nil
			case !ok:
				return errKeyTaken
			}
			reserved = true
			return nil
		},
		Undo: func(ctx context.Context) error {
			if !reserved {
				return nil
			}
			return s.cache.Delete(ctx, key)
		},
	}
}

func (s *Service) price(ctx context.Context, order *domain.Order, req domain.CreateRequest) error {
	ids := make([]string, len(req.Items))
	for i, it := range req.Items {
		ids[i] = it.ProductID
	}
	catalog, err := s.repo.ProductsByID(ctx, ids)
	if err != nil {
		return fmt.Errorf("load products: %w", err)
	}

	items, totals, err := domain.Price(req, catalog)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	order.Items = items
	order.Subtotal, order.VAT, order.TotalPrice = totals.Subtotal, totals.VAT, totals.Total
	order.CreatedAt, order.UpdatedAt = now, now
	return nil
}

func (s *Service) replay(ctx context.Context, p domain.Principal, key string) (*domain.Order, bool, error) {
	id, err := s.cache.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read idempotency record: %w", err)
	}
	if id == "" {
		return nil, false, domain.ErrDuplicateInFlight
	}
	order, err := s.repo.GetOrder(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		// Reserved but not yet committed by the first request.
		return nil, false, domain.ErrDuplicateInFlight
	}
	if err != nil {
		return nil, false, err
	}
	s.logger.InfoContext(ctx, "order replayed", "order_id", order.ID, "user_id", p.UserID)
	return order, true, nil
}

func (s *Service) ListOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error) {
	userID := p.UserID
	if p.Admin {
		userID = ""
	}
	return s.repo.ListOrders(ctx, userID)
}

// GetOrder hides orders of other users behind ErrNotFound.
func (s *Service) GetOrder(ctx context.Context, p domain.Principal, id string) (*domain.Order, error) {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanSee(order) {
		return nil, domain.ErrNotFound
	}
	return order, nil
}

// UpdateStatus applies one transition. Customers may only cancel their own
// orders; staff may apply any legal transition.
func (s *Service) UpdateStatus(ctx context.Context, p domain.Principal, id string, to domain.Status) (*domain.Order, error) {
	order, err := s.GetOrder(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if !p.Admin && to != domain.StatusCancelled {
		return nil, domain.ErrForbidden
	}
	if !domain.CanTransition(order.Status, to) {
		return nil, &domain.TransitionError{From: order.Status, To: to}
	}

	now := s.now().UTC()
	entry := statuslog.NewEntry(ctx, id, string(order.Status), string(to), p.UserID, interceptors.RequestID(ctx), now)
	if err := s.repo.UpdateStatus(ctx, id, order.Status, to, now, entry); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "order status changed", "order_id", id, "from", order.Status, "to", to, "actor", p.UserID)
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) History(ctx context.Context, p domain.Principal, id string) ([]statuslog.Entry, error) {
	if _, err := s.GetOrder(ctx, p, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

// SeedCatalog stores products only when the catalog is empty and reports how
// many were written.
func (s *Service) SeedCatalog(ctx context.Context, products []domain.Product) (int, error) {
	n, err := s.repo.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	if err := s.repo.SaveProducts(ctx, products); err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "catalog seeded", "products", len(products))
	return len(products), nil
}

// Health pings every backing store.
func (s *Service) Health(ctx context.Context) error {
	if err := s.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
