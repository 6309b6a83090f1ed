// Package grpc exposes the order service's health over the standard gRPC
// health protocol, for orchestrators that probe gRPC rather than HTTP.
package grpc

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jcmexdev/food-ordering/internal/pkg/interceptors"
)

// ServiceName is the name probes ask for; "" reports the server as a whole.
const ServiceName = "order.v1.OrderService"

type Checker interface {
	Health(ctx context.Context) error
}

type HealthServer struct {
	srv    *health.Server
	check  Checker
	logger *slog.Logger
}

func NewHealthServer(check Checker, logger *slog.Logger) *HealthServer {
	if logger == nil {
		logger = slog.Default()
	}
	srv := health.NewServer()
	srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	srv.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{srv: srv, check: check, logger: logger}
}

// NewServer builds a gRPC server with tracing and request metadata wired in
// and the health service registered.
func NewServer(h *HealthServer, logger *slog.Logger) *grpc.Server {
	if logger == nil {
		logger = h.logger
	}
	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(interceptors.UnaryServerInterceptor(logger)),
	)
	healthpb.RegisterHealthServer(s, h.srv)
	return s
}

// Probe runs one check and publishes the result.
func (h *HealthServer) Probe(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	status := healthpb.HealthCheckResponse_SERVING
	if err := h.check.Health(ctx); err != nil {
		h.logger.WarnContext(ctx, "health probe failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus("", status)
	h.srv.SetServingStatus(ServiceName, status)
	return status
}

// Watch probes every interval until ctx is done, then marks the server as
// shutting down so clients stop routing to it.
func (h *HealthServer) Watch(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}
