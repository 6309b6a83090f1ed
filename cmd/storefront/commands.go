package main

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/orders"
)

func listProducts(c *cli.Context, d *deps) error {
	products, err := d.catalog.ListProducts(c.Context)
	if err != nil {
		return err
	}
	renderProducts(d.out, products)
	return nil
}

func findProduct(c *cli.Context, d *deps, id string) (entity.Product, error) {
	products, err := d.catalog.ListProducts(c.Context)
	if err != nil {
		return entity.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return entity.Product{}, fmt.Errorf("no product with id %q", id)
}

func requireArg(c *cli.Context, i int, name string) (string, error) {
	v := strings.TrimSpace(c.Args().Get(i))
	if v == "" {
		return "", fmt.Errorf("missing %s", name)
	}
	return v, nil
}

func cartAdd(c *cli.Context, d *deps) error {
	id, err := requireArg(c, 0, "product id")
	if err != nil {
		return err
	}
	p, err := findProduct(c, d, id)
	if err != nil {
		return err
	}
	if err := d.cart.AddToCart(c.Context, p, c.Int("qty")); err != nil {
		return err
	}
	if line, ok := d.cart.TakeJustAdded(); ok {
		fmt.Fprintf(d.out, "Added %d x %s to your cart (%d items)\n", c.Int("qty"), line.Product.Name, d.cart.ItemCount())
	}
	return nil
}

func cartRemove(c *cli.Context, d *deps) error {
	id, err := requireArg(c, 0, "product id")
	if err != nil {
		return err
	}
	if err := d.cart.RemoveFromCart(c.Context, id); err != nil {
		return err
	}
	renderCart(d.out, d.cart)
	return nil
}

func cartUpdate(c *cli.Context, d *deps) error {
	id, err := requireArg(c, 0, "product id")
	if err != nil {
		return err
	}
	raw, err := requireArg(c, 1, "quantity")
	if err != nil {
		return err
	}
	qty, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("quantity %q is not a number", raw)
	}
	if err := d.cart.UpdateQuantity(c.Context, id, qty); err != nil {
		return err
	}
	renderCart(d.out, d.cart)
	return nil
}

func cartShow(c *cli.Context, d *deps) error {
	renderCart(d.out, d.cart)
	return nil
}

func cartClear(c *cli.Context, d *deps) error {
	if err := d.cart.ClearCart(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(d.out, "Your cart is empty")
	return nil
}

func checkoutCart(c *cli.Context, d *deps) error {
	location := c.String("location")
	if c.Bool("pickup") {
		if r, ok := d.cart.Restaurant(); ok && r.Address != "" {
			location = r.Address
		}
	}

	order, err := d.gate.Submit(c.Context, location, d.cred)
	if err != nil {
		return err
	}
	fmt.Fprintf(d.out, "Order %s placed: %s, total %s\n", order.ID, orders.Label(order.Status), order.TotalPrice.StringFixed(2))
	return nil
}

func ordersList(c *cli.Context, d *deps) error {
	if err := d.book.Refresh(c.Context, d.cred); err != nil {
		return err
	}
	renderOrders(d.out, d.book)
	if n := d.book.UnreadCount(); n > 0 {
		fmt.Fprintf(d.out, "%d unread update(s), run `storefront orders seen` to clear\n", n)
	}
	return nil
}

func ordersCancel(c *cli.Context, d *deps) error {
	id, err := requireArg(c, 0, "order id")
	if err != nil {
		return err
	}
	if err := d.book.Refresh(c.Context, d.cred); err != nil {
		return err
	}
	if o, ok := d.book.Find(id); ok {
		switch {
		case orders.IsTerminal(o.Status):
			return fmt.Errorf("order %s is already %s", id, strings.ToLower(orders.Label(o.Status)))
		case !orders.CanCancel(o.Status):
			return fmt.Errorf("order %s is %s and can no longer be cancelled", id, orders.Label(o.Status))
		}
	}

	if !c.Bool("yes") && !confirm(d, fmt.Sprintf("Cancel order %s? [y/N] ", id)) {
		fmt.Fprintln(d.out, "Kept the order")
		return nil
	}

	if err := d.book.Cancel(c.Context, d.cred, id); err != nil {
		return err
	}
	if o, ok := d.book.Find(id); ok {
		fmt.Fprintf(d.out, "Order %s is now %s\n", id, orders.Label(o.Status))
	}
	return nil
}

func confirm(d *deps, prompt string) bool {
	fmt.Fprint(d.out, prompt)
	answer, _ := bufio.NewReader(d.in).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func ordersSeen(c *cli.Context, d *deps) error {
	if err := d.book.Refresh(c.Context, d.cred); err != nil {
		return err
	}
	d.book.MarkSeen()
	if err := saveSeen(c.Context, d.book, d.seen); err != nil {
		return fmt.Errorf("save seen statuses: %w", err)
	}
	fmt.Fprintln(d.out, "All caught up")
	return nil
}
