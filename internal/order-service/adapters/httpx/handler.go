package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/food-ordering/internal/order-service/domain"
	"github.com/jcmexdev/food-ordering/internal/order-service/statuslog"
	"github.com/jcmexdev/food-ordering/internal/pkg/interceptors"
)

const maxBodyBytes = 1 << 20

// OrderService is what the handler needs from the app layer.
type OrderService interface {
	CreateOrder(ctx context.Context, p domain.Principal, idemKey string, req domain.CreateRequest) (*domain.Order, bool, error)
	ListOrders(ctx context.Context, p domain.Principal) ([]domain.Order, error)
	GetOrder(ctx context.Context, p domain.Principal, id string) (*domain.Order, error)
	UpdateStatus(ctx context.Context, p domain.Principal, id string, to domain.Status) (*domain.Order, error)
	History(ctx context.Context, p domain.Principal, id string) ([]statuslog.Entry, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	Health(ctx context.Context) error
}

type Handler struct {
	svc    OrderService
	logger *slog.Logger
}

func NewHandler(svc OrderService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// CreateOrder prices and stores an order. A replayed idempotency key answers
// 200 with the original order instead of 201.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	var req CreateOrderRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", []string{err.Error()})
		return
	}

	order, replayed, err := h.svc.CreateOrder(r.Context(), p, interceptors.IdempotencyKey(r.Context()), req.toDomain())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	status := http.StatusCreated
	if replayed {
		status = http.StatusOK
	}
	writeData(w, status, order)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	orders, err := h.svc.ListOrders(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	order, err := h.svc.GetOrder(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, order)
}

func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	var req UpdateStatusRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", []string{err.Error()})
		return
	}
	to, ok := domain.ParseStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown order status", []string{"status: " + req.Status})
		return
	}

	order, err := h.svc.UpdateStatus(r.Context(), p, chi.URLParam(r, "id"), to)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, order)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())

	entries, err := h.svc.History(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, entries)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.svc.ListProducts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, products)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Health(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unhealthy", Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// fail maps domain errors onto statuses and user-facing messages.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	var terr *domain.TransitionError

	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "Invalid order", verr.Details)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found", nil)
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, "You can only cancel your orders", nil)
	case errors.As(err, &terr):
		writeError(w, http.StatusConflict, "This order is "+string(terr.From)+" and cannot become "+string(terr.To), nil)
	case errors.Is(err, domain.ErrConcurrentUpdate):
		writeError(w, http.StatusConflict, "The order was updated in the meantime, please refresh", nil)
	case errors.Is(err, domain.ErrDuplicateInFlight):
		writeError(w, http.StatusConflict, "This order is already being placed", nil)
	default:
		h.logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", interceptors.RequestID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Something went wrong, please try again", nil)
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, DataResponse{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string, details []string) {
	writeJSON(w, status, ErrorResponse{Success: false, Message: msg, Details: details})
}
