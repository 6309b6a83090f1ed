// Package money holds the price arithmetic shared by the storefront and the
// order service. Every amount is a decimal.Decimal; floats never touch a total.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VATRate is the flat value-added tax applied to every subtotal.
var VATRate = decimal.RequireFromString("0.15")

var hundred = decimal.NewFromInt(100)

// Breakdown is what a checkout screen or an order record shows.
type Breakdown struct {
	Subtotal decimal.Decimal
	VAT      decimal.Decimal
	Total    decimal.Decimal
}

// CalculateDiscount returns the whole-number percentage saved against
// originalPrice. ok is false when there is no original price or it does not
// exceed price.
func CalculateDiscount(price decimal.Decimal, originalPrice decimal.NullDecimal) (percent int64, ok bool) {
	if !originalPrice.Valid || originalPrice.Decimal.LessThanOrEqual(price) || !originalPrice.Decimal.IsPositive() {
		return 0, false
	}
	pct := originalPrice.Decimal.Sub(price).Mul(hundred).Div(originalPrice.Decimal).Round(0)
	return pct.IntPart(), true
}

// ParseDiscount is CalculateDiscount over the string prices found in catalog
// payloads. An empty or unparseable price means "no discount".
func ParseDiscount(price, originalPrice string) (int64, bool) {
	p, err := decimal.NewFromString(strings.TrimSpace(price))
	if err != nil {
		return 0, false
	}
	var orig decimal.NullDecimal
	if s := strings.TrimSpace(originalPrice); s != "" {
		d, err := decimal.NewFromString(s)
		if err != nil {
			return 0, false
		}
		orig = decimal.NewNullDecimal(d)
	}
	return CalculateDiscount(p, orig)
}

// LineSubtotal is unit price times quantity.
func LineSubtotal(price decimal.Decimal, quantity int) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(int64(quantity)))
}

// Line is anything that can be priced as price × quantity.
type Line interface {
	UnitPrice() decimal.Decimal
	Units() int
}

// CartSubtotal sums LineSubtotal over lines.
func CartSubtotal[L Line](lines []L) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineSubtotal(l.UnitPrice(), l.Units()))
	}
	return total
}

func VAT(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(VATRate)
}

func GrandTotal(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(VAT(subtotal))
}

// Break computes the display breakdown for subtotal, rounded to cents.
func Break(subtotal decimal.Decimal) Breakdown {
	vat := VAT(subtotal).Round(2)
	sub := subtotal.Round(2)
	return Breakdown{
		Subtotal: sub,
		VAT:      vat,
		Total:    sub.Add(vat),
	}
}

// Format renders d with exactly two decimals, e.g. "36.50".
func Format(d decimal.Decimal) string {
	return d.StringFixed(2)
}
