package entity

import (
	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

// Product is read-only from the storefront's point of view.
type Product struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	Restaurant    Restaurant          `json:"restaurant"`
	Rate          float64             `json:"rate,omitempty"`
}

// CartLine is one product held in the cart. Quantity is always >= 1 while
// the line exists.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

func (l CartLine) UnitPrice() decimal.Decimal { return l.Product.Price }
func (l CartLine) Units() int                 { return l.Quantity }
