package main

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/jcmexdev/food-ordering/internal/pkg/config"
	"github.com/jcmexdev/food-ordering/internal/pkg/telemetry"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/apperr"
)

func newApp(cfg *config.Storefront, factory depsFactory) *cli.App {
	var shutdownTracer telemetry.ShutdownFunc

	run := func(action func(c *cli.Context, d *deps) error) cli.ActionFunc {
		return func(c *cli.Context) error {
			d, err := factory(c)
			if err != nil {
				return err
			}
			defer d.Close()
			return present(action(c, d))
		}
	}

	return &cli.App{
		Name:  "storefront",
		Usage: "order food from the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: cfg.APIURL, Usage: "order service base URL", EnvVars: []string{"STOREFRONT_API_URL"}},
			&cli.StringFlag{Name: "token", Value: cfg.Token, Usage: "bearer token of the signed-in user", EnvVars: []string{"STOREFRONT_TOKEN"}},
			&cli.StringFlag{Name: "session", Value: cfg.Session, Usage: "name of the cart to use"},
			&cli.StringFlag{Name: "cart-dir", Value: cfg.CartDir, Usage: "directory holding file-backed carts"},
			&cli.StringFlag{Name: "redis-addr", Value: cfg.RedisAddr, Usage: "keep the cart in Redis instead of a file"},
			&cli.DurationFlag{Name: "cart-ttl", Value: cfg.CartTTL, Usage: "expiry of a Redis-backed cart"},
			&cli.DurationFlag{Name: "timeout", Value: cfg.Timeout, Usage: "bound on every request to the order service"},
			&cli.StringFlag{Name: "log-level", Value: cfg.LogLevel, Usage: "debug, info, warn or error"},
		},
		Before: func(c *cli.Context) error {
			if cfg.OTLPEndpoint == "" {
				return nil
			}
			var err error
			shutdownTracer, err = telemetry.SetupTracer(c.Context, "storefront", cfg.OTLPEndpoint, "local")
			return err
		},
		After: func(c *cli.Context) error {
			if shutdownTracer == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return shutdownTracer(ctx)
		},
		Commands: []*cli.Command{
			{
				Name:   "products",
				Usage:  "list the catalog",
				Action: run(listProducts),
			},
			{
				Name:  "cart",
				Usage: "inspect or change the cart",
				Subcommands: []*cli.Command{
					{
						Name:      "add",
						Usage:     "add a product",
						ArgsUsage: "<product-id>",
						Flags:     []cli.Flag{&cli.IntFlag{Name: "qty", Aliases: []string{"q"}, Value: 1}},
						Action:    run(cartAdd),
					},
					{Name: "remove", Usage: "remove a product", ArgsUsage: "<product-id>", Action: run(cartRemove)},
					{Name: "update", Usage: "set the quantity of a product, 0 removes it", ArgsUsage: "<product-id> <quantity>", Action: run(cartUpdate)},
					{Name: "show", Usage: "show lines and totals", Action: run(cartShow)},
					{Name: "clear", Usage: "empty the cart", Action: run(cartClear)},
				},
			},
			{
				Name:  "checkout",
				Usage: "place an order for the cart",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "location", Aliases: []string{"l"}, Usage: "delivery location"},
					&cli.BoolFlag{Name: "pickup", Usage: "collect from the restaurant instead"},
				},
				Action: run(checkoutCart),
			},
			{
				Name:  "orders",
				Usage: "follow placed orders",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "show your orders", Action: run(ordersList)},
					{
						Name:      "cancel",
						Usage:     "cancel an order that has not been accepted",
						ArgsUsage: "<order-id>",
						Flags:     []cli.Flag{&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"}},
						Action:    run(ordersCancel),
					},
					{Name: "seen", Usage: "mark every status update as read", Action: run(ordersSeen)},
				},
			},
		},
		Writer:    os.Stdout,
		ErrWriter: os.Stderr,
		Reader:    os.Stdin,
	}
}

// presentedError carries the message meant for the user while keeping the
// original error reachable through errors.Is/As.
type presentedError struct {
	msg string
	err error
}

func (e *presentedError) Error() string { return e.msg }
func (e *presentedError) Unwrap() error { return e.err }

func present(err error) error {
	if err == nil {
		return nil
	}
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		return err
	}
	msg := ae.Message
	if msg == "" {
		msg = apperr.GenericMessage
	}
	for _, d := range ae.Details {
		msg += "\n  - " + d
	}
	if ae.Kind == apperr.KindAuth {
		msg += " (pass --token or set STOREFRONT_TOKEN)"
	}
	return &presentedError{msg: msg, err: err}
}
