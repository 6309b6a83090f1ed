package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/food-ordering/internal/pkg/interceptors"
)

func NewRouter(handler *Handler, verifier TokenVerifier) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(interceptors.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", handler.Health)
	r.Get("/products", handler.ListProducts)

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(verifier))
		r.Post("/orders", handler.CreateOrder)
		r.Get("/orders", handler.ListOrders)
		r.Get("/orders/{id}", handler.GetOrder)
		r.Patch("/orders/{id}", handler.UpdateStatus)
		r.Get("/orders/{id}/history", handler.History)
	})
	return r
}
