package httpx

import "github.com/jcmexdev/food-ordering/internal/order-service/domain"

type CreateOrderRequest struct {
	Items    []CreateOrderItemDTO `json:"items"`
	Location string               `json:"location"`
}

type CreateOrderItemDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

func (r CreateOrderRequest) toDomain() domain.CreateRequest {
	items := make([]domain.ItemRequest, len(r.Items))
	for i, it := range r.Items {
		items[i] = domain.ItemRequest{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return domain.CreateRequest{Items: items, Location: r.Location}
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// DataResponse and ErrorResponse are the two shapes every endpoint answers with.
type DataResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
