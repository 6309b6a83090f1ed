package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/jcmexdev/food-ordering/internal/money"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/cart"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/orders"
)

func renderProducts(w io.Writer, products []entity.Product) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tRESTAURANT\tPRICE\tDEAL")
	for _, p := range products {
		deal := ""
		if pct, ok := money.CalculateDiscount(p.Price, p.OriginalPrice); ok {
			deal = fmt.Sprintf("-%d%% (was %s)", pct, money.Format(p.OriginalPrice.Decimal))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Restaurant.Name, money.Format(p.Price), deal)
	}
	_ = tw.Flush()
}

func renderCart(w io.Writer, c *cart.Store) {
	if c.IsEmpty() {
		fmt.Fprintln(w, "Your cart is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE\tSUBTOTAL")
	for _, l := range c.Lines() {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", l.Product.ID, l.Product.Name, l.Quantity,
			money.Format(l.Product.Price), money.Format(money.LineSubtotal(l.Product.Price, l.Quantity)))
	}
	_ = tw.Flush()

	t := c.Totals()
	fmt.Fprintf(w, "Subtotal %s\nVAT      %s\nTotal    %s\n", money.Format(t.Subtotal), money.Format(t.VAT), money.Format(t.Total))
}

func renderOrders(w io.Writer, book *orders.Book) {
	list := book.Orders()
	if len(list) == 0 {
		fmt.Fprintln(w, "No orders yet")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "\tID\tPLACED\tSTATUS\tTOTAL\t\t")
	for _, o := range list {
		marker := ""
		if book.IsUnread(o) {
			marker = "*"
		}
		badge := ""
		if orders.IsPaidDisplay(o.Status) {
			badge = "paid"
		}
		hint := ""
		if orders.CanCancel(o.Status) {
			hint = "cancellable"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", marker, o.ID, o.CreatedAt.Local().Format("Jan 2 15:04"),
			orders.Label(o.Status), money.Format(o.TotalPrice), badge, hint)
	}
	_ = tw.Flush()
	if at := book.RefreshedAt(); !at.IsZero() {
		fmt.Fprintf(w, "Updated %s\n", at.Local().Format("15:04:05"))
	}
}
