package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/food-ordering/internal/order-service/adapters/grpc"
	"github.com/jcmexdev/food-ordering/internal/order-service/adapters/httpx"
	"github.com/jcmexdev/food-ordering/internal/order-service/adapters/sqlite"
	"github.com/jcmexdev/food-ordering/internal/order-service/app"
	"github.com/jcmexdev/food-ordering/internal/pkg/cache"
	"github.com/jcmexdev/food-ordering/internal/pkg/config"
	"github.com/jcmexdev/food-ordering/internal/pkg/telemetry"
)

func main() {
	if err := run(); err != nil {
		slog.Error("order service stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.LoadOrderService()
	if err != nil {
		return err
	}
	logger := telemetry.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := telemetry.SetupTracer(ctx, "order-service", cfg.OTLPEndpoint, cfg.Environment)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracer(shutdownCtx); err != nil {
			logger.Error("tracer shutdown error", "error", err)
		}
	}()

	repo, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	redisCache := cache.NewRedisCache(cfg.RedisAddr, "order")
	defer redisCache.Close()

	tokens, err := config.ParseTokens(cfg.Tokens)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		logger.Warn("no AUTH_TOKENS configured, every order request will be rejected")
	}

	svc := app.NewService(repo, redisCache, logger, app.WithIdempotencyTTL(cfg.IdemTTL))
	if _, err := svc.SeedCatalog(ctx, app.DefaultCatalog()); err != nil {
		return err
	}

	router := httpx.NewRouter(httpx.NewHandler(svc, logger), httpx.NewStaticTokens(tokens))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, "order-service"),
		ReadHeaderTimeout: 5 * time.Second,
	}

	health := grpc.NewHealthServer(svc, logger)
	grpcServer := grpc.NewServer(health, logger)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return err
	}
	go health.Watch(ctx, 10*time.Second)

	errCh := make(chan error, 2)
	go func() {
		logger.Info("order service HTTP running", "addr", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		logger.Info("order service gRPC health running", "addr", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		stop()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	grpcServer.GracefulStop()
	return httpServer.Shutdown(shutdownCtx)
}
