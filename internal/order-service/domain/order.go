// Package domain holds the order service's business types and rules.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Restaurant struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

type Product struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.Decimal     `json:"price"`
	OriginalPrice decimal.NullDecimal `json:"originalPrice"`
	Restaurant    Restaurant          `json:"restaurant"`
	Rate          float64             `json:"rate,omitempty"`
}

// OrderItem freezes the product and its price at the time of ordering.
type OrderItem struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (i OrderItem) UnitPrice() decimal.Decimal { return i.Price }
func (i OrderItem) Units() int                 { return i.Quantity }

type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId"`
	Status     Status          `json:"status"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	VAT        decimal.Decimal `json:"vat"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Location   string          `json:"location"`
	Items      []OrderItem     `json:"items"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// ItemRequest is one requested line; the client never supplies a price.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

type CreateRequest struct {
	Items    []ItemRequest
	Location string
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Admin  bool
}

// CanSee reports whether p may read or act on o.
func (p Principal) CanSee(o *Order) bool {
	return p.Admin || o.UserID == p.UserID
}
