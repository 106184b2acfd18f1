package adminservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"ride-share/internal/general/config"
	"ride-share/internal/general/httpx"
	"ride-share/internal/general/jwt"
	"ride-share/internal/general/logger"
	"ride-share/internal/general/postgres"
	"ride-share/internal/software/adminboard/handler"
	"ride-share/internal/software/adminboard/service"
)

// Run wires the admin dashboard API and blocks until ctx is cancelled.
func Run(ctx context.Context, cfgPath string, maxConcurrent int) error {
	logger := logger.New("admin-service")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg, logger, int32(min(maxConcurrent, 10)))
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	svc := service.NewAdminService(logger, postgres.NewUnitOfWork(pool), postgres.NewMetricsRepo())

	mux := http.NewServeMux()
	handler.NewAdminHTTPHandler(svc, logger, jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour), map[string]httpx.HealthCheck{
		"database": func(ctx context.Context) error { return pool.Ping(ctx) },
	}).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.AdminServicePort),
		Handler:           httpx.WithConcurrencyLimit(maxConcurrent, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Admin Service started on port %d", cfg.Services.AdminServicePort),
		map[string]any{"port": cfg.Services.AdminServicePort, "max_concurrent": maxConcurrent},
	)

	if err := httpx.Serve(ctx, srv); err != nil {
		logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.AdminServicePort})
		return err
	}
	logger.Info(ctx, "service_stopped", "Admin Service stopped", nil)
	return nil
}
