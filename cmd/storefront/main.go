// Command storefront is a terminal client for the order service: browse the
// catalog, fill a cart, place the order and follow or cancel it.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/jcmexdev/food-ordering/internal/pkg/config"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadStorefront()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := newApp(cfg, buildDeps)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
