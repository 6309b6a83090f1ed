package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jcmexdev/food-ordering/internal/pkg/cache"
	"github.com/jcmexdev/food-ordering/internal/pkg/telemetry"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/cart"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/checkout"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/orders"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/ports"
	"github.com/jcmexdev/food-ordering/internal/storefront/infra/adapters/rest"
	"github.com/jcmexdev/food-ordering/internal/storefront/infra/adapters/slot"
)

// deps is everything a command needs, built once per invocation.
type deps struct {
	cart    *cart.Store
	gate    *checkout.Gate
	book    *orders.Book
	catalog ports.CatalogAPI
	seen    ports.CartSlot
	cred    entity.Credential
	logger  *slog.Logger
	out     io.Writer
	in      io.Reader
	closers []func() error
}

type depsFactory func(c *cli.Context) (*deps, error)

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		_ = d.closers[i]()
	}
}

func buildDeps(c *cli.Context) (*deps, error) {
	logger := telemetry.NewLogger(c.App.ErrWriter, c.String("log-level"))
	timeout := c.Duration("timeout")

	client, err := rest.NewClient(c.String("api-url"), timeout, logger)
	if err != nil {
		return nil, err
	}

	var cartSlot, seenSlot ports.CartSlot
	var closers []func() error
	if addr := c.String("redis-addr"); addr != "" {
		rc := cache.NewRedisCache(addr, "storefront")
		closers = append(closers, rc.Close)
		cartSlot = slot.NewRedisSlot(rc, c.String("session"), c.Duration("cart-ttl"))
		seenSlot = slot.NewNamedRedisSlot(rc, "seen", c.String("session"), 0)
	} else {
		cartSlot = slot.NewFileSlot(c.String("cart-dir"), c.String("session"))
		seenSlot = slot.NewNamedFileSlot(c.String("cart-dir"), "seen", c.String("session"))
	}

	d := assemble(c.Context, client, client, cartSlot, seenSlot, timeout, logger)
	d.cred = entity.Credential(c.String("token"))
	d.out = c.App.Writer
	d.in = c.App.Reader
	d.closers = closers
	return d, nil
}

// assemble wires the core around whatever adapters it is given.
func assemble(ctx context.Context, api ports.OrderAPI, catalog ports.CatalogAPI, cartSlot, seenSlot ports.CartSlot, timeout time.Duration, logger *slog.Logger) *deps {
	store := cart.Open(ctx, cartSlot, logger)
	book := orders.NewBook(api, timeout, logger)
	restoreSeen(ctx, book, seenSlot, logger)

	return &deps{
		cart:    store,
		book:    book,
		gate:    checkout.NewGate(store, api, book, checkout.WithTimeout(timeout), checkout.WithLogger(logger)),
		catalog: catalog,
		seen:    seenSlot,
		logger:  logger,
	}
}

func restoreSeen(ctx context.Context, book *orders.Book, s ports.CartSlot, logger *slog.Logger) {
	raw, err := s.Load(ctx)
	if err != nil || len(raw) == 0 {
		return
	}
	var seen map[string]entity.OrderStatus
	if err := json.Unmarshal(raw, &seen); err != nil {
		logger.WarnContext(ctx, "seen statuses unreadable, starting fresh", "error", err)
		return
	}
	book.RestoreSeen(seen)
}

func saveSeen(ctx context.Context, book *orders.Book, s ports.CartSlot) error {
	raw, err := json.Marshal(book.Seen())
	if err != nil {
		return err
	}
	return s.Save(ctx, raw)
}
