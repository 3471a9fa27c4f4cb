package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"clinic-booking-api/internal/auth"
	"clinic-booking-api/internal/config"
	gweb "clinic-booking-api/internal/grpcweb"
	"clinic-booking-api/internal/handler"
	"clinic-booking-api/internal/logger"
	"clinic-booking-api/internal/metrics"
	"clinic-booking-api/internal/middleware"
	"clinic-booking-api/internal/scheduler"
	"clinic-booking-api/internal/tracer"
	"clinic-booking-api/internal/web"
	"clinic-booking-api/internal/wire"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg, err := logger.New(cfg.LogLevel, cfg.AppEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	be, err := openBackend(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("open store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer be.close()

	tp, err := tracer.Init(ctx, cfg.Tracing)
	if err != nil {
		lg.Fatal("tracer", zap.String("exporter", cfg.Tracing.Exporter), zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(flushCtx); err != nil {
			lg.Warn("tracer shutdown", zap.Error(err))
		}
	}()

	m := metrics.NewBooking(nil)
	sched := scheduler.New(be.store, be.store,
		scheduler.WithLocation(cfg.Location),
		scheduler.WithLogger(lg.Named("scheduler")),
		scheduler.WithMetrics(m),
		scheduler.WithTracerProvider(tp),
	)
	iss := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	h := handler.New(be.store, sched, iss,
		handler.WithLogger(lg.Named("handler")),
		handler.WithRefreshTTL(cfg.RefreshTokenTTL),
	)
	if err := h.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName); err != nil {
		lg.Fatal("bootstrap admin", zap.Error(err))
	}

	// grpc server
	// only the in-process bridge knows this token
	relayToken := uuid.NewString()
	rl := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, relayToken)
	defer rl.Close()
	srv := grpc.NewServer(
		grpc.ForceServerCodec(wire.Codec{}),
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(rl),
			middleware.Logging(lg.Named("rpc"), m),
			middleware.Auth(iss),
		),
	)
	wire.RegisterBookingServiceServer(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		lg.Fatal("listen", zap.Error(err))
	}
	go func() {
		lg.Info("grpc listening", zap.String("port", cfg.GRPCPort))
		if err := srv.Serve(lis); err != nil {
			lg.Error("grpc", zap.Error(err))
		}
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.GRPCPort, relayToken, lg.Named("grpcweb"))
	if err != nil {
		lg.Fatal("bridge", zap.Error(err))
	}
	defer bridge.Close()

	httpSrv := &http.Server{
		Addr: ":" + cfg.WebPort,
		Handler: web.NewRouter(bridge.Handler(), web.Options{
			CORSOrigins:   cfg.CORSOrigins,
			RatePerMinute: cfg.HTTPRateLimitPerMinute,
			Ready:         be.ready,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		lg.Info("http listening", zap.String("port", cfg.WebPort))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error("http", zap.Error(err))
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("http shutdown", zap.Error(err))
	}
	srv.GracefulStop()
}
