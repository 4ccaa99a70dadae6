package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nekogravitycat/consult-booking-backend/internal/api"
	"github.com/nekogravitycat/consult-booking-backend/internal/app"
	"github.com/nekogravitycat/consult-booking-backend/internal/booking"
	"github.com/nekogravitycat/consult-booking-backend/internal/config"
	"github.com/nekogravitycat/consult-booking-backend/internal/db"
	"github.com/nekogravitycat/consult-booking-backend/internal/metrics"
	"github.com/nekogravitycat/consult-booking-backend/internal/notify"
	"github.com/nekogravitycat/consult-booking-backend/internal/pkg/logger"
	"github.com/nekogravitycat/consult-booking-backend/internal/pkg/tracing"
)

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel, cfg.IsProduction)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	shutdownTracing, err := tracing.Setup(ctx, cfg.OtelEndpoint)
	if err != nil {
		zl.Fatal("failed to init tracing", zap.Error(err))
	}

	// Connect DB (optional)
	var pool *pgxpool.Pool
	if cfg.DBDSN != "" {
		pool, err = db.NewPool(ctx, cfg.DBDSN, cfg.DBMaxConns)
		if err != nil {
			zl.Fatal("failed to connect to db", zap.Error(err))
		}
		defer pool.Close()

		if err := db.Migrate(ctx, pool); err != nil {
			zl.Fatal("failed to migrate db", zap.Error(err))
		}
	}

	// Rate limiter: shared through Redis when configured
	var rateLimiter gin.HandlerFunc
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
		defer func() { _ = rdb.Close() }()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Warn("redis unreachable, rate limit checks will fail open", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		rateLimiter = api.RedisRateLimit(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, cfg.RateLimit.Window, zl.Named("ratelimit"))
	} else {
		rateLimiter = api.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	gateway, closeGateway, err := app.NewGateway(cfg.Mail, zl.Named("mail"))
	if err != nil {
		zl.Fatal("failed to init mail gateway", zap.String("gateway", cfg.Mail.Gateway), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(reg)

	container := app.NewContainer(app.Config{
		IsProduction:      cfg.IsProduction,
		ProdOrigins:       cfg.ProdOrigins,
		Logger:            zl,
		DBPool:            pool,
		JWTSecret:         cfg.JWTSecret,
		JWTTTL:            cfg.JWTAccessTokenTTL,
		AdminEmail:        cfg.AdminEmail,
		AdminPasswordHash: cfg.AdminPasswordHash,
		Booking: booking.Config{
			DefaultCity: cfg.DefaultCity,
			Location:    cfg.Location,
		},
		Notify: notify.Config{
			AppName: cfg.AppName,
			AdminTo: cfg.Mail.AdminTo,
			Support: cfg.Mail.Support,
		},
		Gateway:     gateway,
		RateLimiter: rateLimiter,
		Gatherer:    reg,
	})

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           container.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server in separate goroutine
	go func() {
		zl.Info("server running", zap.String("addr", cfg.HTTPAddr), zap.String("mail_gateway", cfg.Mail.Gateway), zap.Bool("database", pool != nil))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("server error", zap.Error(err))
		}
	}()

	// Wait for Ctrl+C
	<-ctx.Done()
	zl.Info("shutdown signal received")

	// Create a shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
	}

	// Let in-flight notifications finish before closing the gateway
	if err := container.Dispatcher.Shutdown(shutdownCtx); err != nil {
		zl.Warn("notifications still in flight at shutdown", zap.Error(err))
	}
	if err := closeGateway(); err != nil {
		zl.Warn("failed to close mail gateway", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		zl.Warn("failed to flush traces", zap.Error(err))
	}

	zl.Info("server exited gracefully")
}
