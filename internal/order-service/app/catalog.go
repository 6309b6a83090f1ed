package app

import (
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/food-ordering/internal/order-service/domain"
)

func price(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func was(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: price(s), Valid: true}
}

// DefaultCatalog is written on first start so a fresh database can take orders.
func DefaultCatalog() []domain.Product {
	alQuds := domain.Restaurant{ID: "r-al-quds", Name: "Al Quds Grill", Address: "12 Olive St"}
	bamboo := domain.Restaurant{ID: "r-bamboo", Name: "Bamboo House", Address: "3 Harbour Rd"}

	return []domain.Product{
		{ID: "p-shawarma", Name: "Chicken Shawarma", Price: price("8.50"), OriginalPrice: was("10.00"), Restaurant: alQuds, Rate: 4.7},
		{ID: "p-falafel", Name: "Falafel Plate", Price: price("6.00"), Restaurant: alQuds, Rate: 4.5},
		{ID: "p-hummus", Name: "Hummus", Price: price("4.25"), Restaurant: alQuds, Rate: 4.2},
		{ID: "p-ramen", Name: "Tonkotsu Ramen", Price: price("12.00"), OriginalPrice: was("14.50"), Restaurant: bamboo, Rate: 4.8},
		{ID: "p-gyoza", Name: "Pork Gyoza", Price: price("5.50"), Restaurant: bamboo, Rate: 4.4},
	}
}
