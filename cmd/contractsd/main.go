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
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/contracts-tracker/internal/bootstrap"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/httpapi"
	svc "github.com/joseph-ayodele/contracts-tracker/internal/server"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	logger := bootstrap.NewLogger(os.Stdout, os.Getenv("LOG_LEVEL") == "debug")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := common.LoadConfig()
	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to start", "error", err)
		os.Exit(1)
	}

	// Fail fast when the ledger header is unusable; sessions would all be rejected.
	if err := app.Ledger.ValidateHeader(ctx); err != nil {
		logger.Error("ledger header check failed", "error", err)
		app.Close(context.Background())
		os.Exit(1)
	}

	// gRPC server
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer(grpc.ChainUnaryInterceptor(requestIDInterceptor(logger)))
	svc.RegisterIntakeServer(grpcServer, svc.NewIntakeService(app.Intake, logger))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(svc.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	logger.Info("contracts-tracker gRPC listening", "addr", cfg.Server.GRPCAddr)
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC serve error", "error", err)
			stop()
		}
	}()

	// HTTP gateway
	var httpServer *http.Server
	if cfg.Server.HTTPAddr != "" {
		router := httpapi.NewRouter(
			httpapi.NewHandler(app.Intake, app.Reader, app.Catalog.PreviewPage, logger),
			cfg.Server.CORSOrigins,
		)
		httpServer = &http.Server{
			Addr:              cfg.Server.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("contracts-tracker HTTP listening", "addr", cfg.Server.HTTPAddr)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("HTTP serve error", "error", err)
				stop()
			}
		}()
	}

	go sweepSessions(ctx, app, logger)

	<-ctx.Done()
	logger.Info("shutting down")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", "error", err)
		}
	}
	grpcServer.GracefulStop()
	app.Close(shutdownCtx)
	logger.Info("stopped")
}

func sweepSessions(ctx context.Context, app *bootstrap.App, logger *slog.Logger) {
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := app.Sessions.Sweep(); n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}

func requestIDInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		ctx = common.EnsureRequestID(ctx)
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"method", info.FullMethod,
			"request_id", common.RequestIDFromContext(ctx),
			"ok", err == nil,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
