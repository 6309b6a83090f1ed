// Package rest talks to the order service over HTTP/JSON.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/food-ordering/internal/pkg/interceptors/constants"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/apperr"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/domain/entity"
	"github.com/jcmexdev/food-ordering/internal/storefront/core/ports"
)

// Ensure Client implements the ports at compile time.
var (
	_ ports.OrderAPI   = (*Client)(nil)
	_ ports.CatalogAPI = (*Client)(nil)
)

const maxBody = 1 << 20

type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient builds a client for the service rooted at baseURL. timeout bounds
// every request, including reading the body.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("rest: invalid base url %q", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Details []string        `json:"details"`
	Data    json.RawMessage `json:"data"`
}

type statusPatch struct {
	Status entity.OrderStatus `json:"status"`
}

func (c *Client) ListProducts(ctx context.Context) ([]entity.Product, error) {
	var out []entity.Product
	if err := c.do(ctx, http.MethodGet, "/products", "", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateOrder(ctx context.Context, cred entity.Credential, idempotencyKey string, req entity.OrderRequest) (*entity.Order, error) {
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers[constants.HeaderXIdempotencyKey] = idempotencyKey
	}
	var out entity.Order
	if err := c.do(ctx, http.MethodPost, "/orders", cred, headers, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListOrders(ctx context.Context, cred entity.Credential) ([]entity.Order, error) {
	out := make([]entity.Order, 0)
	if err := c.do(ctx, http.MethodGet, "/orders", cred, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CancelOrder(ctx context.Context, cred entity.Credential, orderID string) (*entity.Order, error) {
	var out entity.Order
	path := "/orders/" + url.PathEscape(orderID)
	if err := c.do(ctx, http.MethodPatch, path, cred, nil, statusPatch{Status: entity.StatusCancelled}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, cred entity.Credential, headers map[string]string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("rest: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("rest: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !cred.IsZero() {
		req.Header.Set("Authorization", "Bearer "+string(cred))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "request failed", "method", method, "path", path, "error", err)
		return transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return transportError(err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= 300 || (decodeErr == nil && !env.Success) {
		c.logger.DebugContext(ctx, "request rejected", "method", method, "path", path, "status", resp.StatusCode)
		return statusError(resp.StatusCode, env)
	}
	if decodeErr != nil {
		return apperr.Wrap(apperr.KindUnknown, apperr.CodeBackend, apperr.GenericMessage, fmt.Errorf("decode %s %s: %w", method, path, decodeErr))
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Wrap(apperr.KindUnknown, apperr.CodeBackend, apperr.GenericMessage, fmt.Errorf("decode %s %s data: %w", method, path, err))
	}
	return nil
}

// statusError maps an HTTP status onto an error kind. The envelope message,
// when there is one, is what the user gets to see.
func statusError(code int, env envelope) error {
	msg := strings.TrimSpace(env.Message)
	if msg == "" {
		msg = apperr.GenericMessage
	}

	var kind apperr.Kind
	switch {
	case code == http.StatusBadRequest, code == http.StatusUnprocessableEntity:
		kind = apperr.KindValidation
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		kind = apperr.KindAuth
	case code == http.StatusNotFound, code == http.StatusConflict:
		kind = apperr.KindConflict
	case code >= 500, code == http.StatusRequestTimeout, code == http.StatusTooManyRequests:
		kind = apperr.KindTransient
	default:
		kind = apperr.KindUnknown
	}

	e := apperr.Wrap(kind, apperr.CodeBackend, msg, fmt.Errorf("http status %d", code))
	e.Details = env.Details
	return e
}

func transportError(err error) error {
	msg := "Could not reach the server, please try again"
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		msg = "The request timed out, please try again"
	}
	return apperr.Wrap(apperr.KindTransient, apperr.CodeBackend, msg, err)
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
