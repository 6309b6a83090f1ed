package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "PENDING"
	StatusAccepted  OrderStatus = "ACCEPTED"
	StatusReady     OrderStatus = "READY"
	StatusCompleted OrderStatus = "COMPLETED"
	StatusCancelled OrderStatus = "CANCELLED"
)

// OrderItemRequest is one line of an outbound order. Prices are never sent;
// the backend prices the order from its own catalog.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderRequest is the snapshot of a cart at submission time.
type OrderRequest struct {
	Items    []OrderItemRequest `json:"items"`
	Location string             `json:"location"`
}

type OrderItem struct {
	Product  Product         `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// Order is the server-authoritative record. TotalPrice is whatever the backend
// said; the client never recomputes it.
type Order struct {
	ID         string          `json:"id"`
	UserID     string          `json:"userId,omitempty"`
	Status     OrderStatus     `json:"status"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	VAT        decimal.Decimal `json:"vat"`
	TotalPrice decimal.Decimal `json:"totalPrice"`
	Location   string          `json:"location"`
	Items      []OrderItem     `json:"items"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Credential is an opaque bearer token minted by the auth provider.
type Credential string

func (c Credential) IsZero() bool {
	return strings.TrimSpace(string(c)) == ""
}
