// Package interceptors carries the request id and idempotency key from the
// wire (HTTP headers or gRPC metadata) into the request context.
package interceptors

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/food-ordering/internal/pkg/interceptors/constants"
)

func withMetadata(ctx context.Context, requestID, idempotencyKey string) context.Context {
	ctx = context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
	return context.WithValue(ctx, constants.ContextKeyIdempotencyKey, idempotencyKey)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(constants.ContextKeyRequestID).(string)
	return v
}

// IdempotencyKey is "" when the caller sent none.
func IdempotencyKey(ctx context.Context) string {
	v, _ := ctx.Value(constants.ContextKeyIdempotencyKey).(string)
	return v
}

// AttachRequestMetadata must run after chi's RequestID middleware; it reuses
// the id chi assigned, or the one the client sent in X-Request-Id.
func AttachRequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(constants.HeaderXRequestId)
		if requestID == "" {
			requestID = middleware.GetReqID(r.Context())
		}
		idempotencyKey := r.Header.Get(constants.HeaderXIdempotencyKey)

		w.Header().Set(constants.HeaderXRequestId, requestID)
		next.ServeHTTP(w, r.WithContext(withMetadata(r.Context(), requestID, idempotencyKey)))
	})
}

func firstValue(md metadata.MD, key string) string {
	if vals := md.Get(key); len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// UnaryServerInterceptor lifts x-request-id and x-idempotency-key out of the
// incoming gRPC metadata and logs the call.
func UnaryServerInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		var requestID, idempotencyKey string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			requestID = firstValue(md, constants.HeaderXRequestId)
			idempotencyKey = firstValue(md, constants.HeaderXIdempotencyKey)
		}
		ctx = withMetadata(ctx, requestID, idempotencyKey)

		resp, err := handler(ctx, req)
		if err != nil {
			logger.WarnContext(ctx, "grpc call failed", "method", info.FullMethod, "request_id", requestID, "error", err)
		} else {
			logger.DebugContext(ctx, "grpc call", "method", info.FullMethod, "request_id", requestID)
		}
		return resp, err
	}
}
