package domain

import (
	"fmt"
	"strings"

	"github.com/jcmexdev/food-ordering/internal/money"
)

// Validate checks the shape of req without touching the catalog. Duplicate
// product lines are merged.
func (req CreateRequest) Validate() (CreateRequest, error) {
	verr := &ValidationError{}
	out := CreateRequest{Location: strings.TrimSpace(req.Location)}

	if out.Location == "" {
		verr.add("location is required")
	}
	if len(req.Items) == 0 {
		verr.add("items must not be empty")
	}

	index := make(map[string]int)
	for i, it := range req.Items {
		id := strings.TrimSpace(it.ProductID)
		switch {
		case id == "":
			verr.add(fmt.Sprintf("items[%d].productId is required", i))
			continue
		case it.Quantity < 1:
			verr.add(fmt.Sprintf("items[%d].quantity must be at least 1", i))
			continue
		}
		if j, ok := index[id]; ok {
			out.Items[j].Quantity += it.Quantity
			continue
		}
		index[id] = len(out.Items)
		out.Items = append(out.Items, ItemRequest{ProductID: id, Quantity: it.Quantity})
	}
	return out, verr.orNil()
}

// Price builds the order lines from the catalog and totals them. Every item
// must be known and all of them must come from one restaurant.
func Price(req CreateRequest, catalog map[string]Product) ([]OrderItem, money.Breakdown, error) {
	verr := &ValidationError{}
	items := make([]OrderItem, 0, len(req.Items))
	restaurant := ""

	for _, it := range req.Items {
		p, ok := catalog[it.ProductID]
		if !ok {
			verr.add(fmt.Sprintf("product %s not found", it.ProductID))
			continue
		}
		if restaurant == "" {
			restaurant = p.Restaurant.ID
		} else if p.Restaurant.ID != restaurant {
			verr.add("all items must come from the same restaurant")
			break
		}
		items = append(items, OrderItem{Product: p, Quantity: it.Quantity, Price: p.Price})
	}
	if err := verr.orNil(); err != nil {
		return nil, money.Breakdown{}, err
	}
	return items, money.Break(money.CartSubtotal(items)), nil
}
