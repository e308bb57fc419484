package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/joseph-ayodele/doc-classifier/internal/app"
	"github.com/joseph-ayodele/doc-classifier/internal/common"
	"github.com/joseph-ayodele/doc-classifier/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a shared service has no per-file cassette to replay from
	if cfg.Cassette.Mode != "disabled" {
		logger.Warn("classifyd.cassettes_ignored", "mode", cfg.Cassette.Mode)
		cfg.Cassette.Mode = "disabled"
	}
	a, err := app.Build(ctx, cfg, logger, true)
	if err != nil {
		logger.Error("classifyd.setup_failed", "error", err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           server.New(a.Service, a.Normalizer, server.OptionsFromConfig(cfg.Server), logger).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("classifyd.grpc_listen_failed", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	// empty service name means overall server health
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	go func() {
		logger.Info("classifyd.grpc.listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("classifyd.grpc.serve_failed", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("classifyd.http.listening", "addr", cfg.Server.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("classifyd.http.serve_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("classifyd.shutting_down")
	healthServer.Shutdown()

	sctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(sctx); err != nil {
		logger.Error("classifyd.http.shutdown_failed", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("classifyd.stopped")
}
