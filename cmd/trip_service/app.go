package tripservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"ride-share/internal/general/config"
	"ride-share/internal/general/geocode"
	"ride-share/internal/general/httpx"
	"ride-share/internal/general/jwt"
	"ride-share/internal/general/logger"
	"ride-share/internal/general/notify"
	"ride-share/internal/general/postgres"
	"ride-share/internal/general/rabbitmq"
	"ride-share/internal/ports"
	"ride-share/internal/software/trip/handler"
	"ride-share/internal/software/trip/service"
)

const serviceName = "trip-service"

// Run wires the trip service and blocks until ctx is cancelled.
func Run(ctx context.Context, cfgPath string, maxConcurrent int) error {
	logger := logger.New(serviceName)
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	pool, err := postgres.NewPool(ctx, cfg, logger, int32(min(maxConcurrent, 50)))
	if err != nil {
		logger.Error(ctx, "db_connection_failed", "Failed to initialize Postgres pool", err, nil)
		return err
	}
	defer pool.Close()

	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	notifier := notify.NewMQNotifier(rabbitmq.NewMQPublisher(rmq), serviceName, logger)
	defer notifier.Wait()

	// Without an API key trips must carry explicit coordinates.
	var geocoder ports.Geocoder
	if cfg.Geocoding.APIKey != "" {
		geocoder = geocode.NewGoogle(cfg.Geocoding.BaseURL, cfg.Geocoding.APIKey)
	} else {
		logger.Info(ctx, "geocoding_disabled", "No geocoding API key configured; coordinates are required", nil)
	}

	uow := postgres.NewUnitOfWork(pool)
	svc := service.NewTripService(logger, uow,
		postgres.NewTripRepo(), postgres.NewBookingRepo(),
		geocoder, notifier,
		service.SearchSettings{
			DefaultRadiusMeters: cfg.Search.DefaultRadiusMeters,
			MaxRadiusMeters:     cfg.Search.MaxRadiusMeters,
		},
	)

	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)
	mux := http.NewServeMux()
	handler.NewTripHTTPHandler(svc, logger, jwtManager, map[string]httpx.HealthCheck{
		"database": func(ctx context.Context) error { return pool.Ping(ctx) },
		"rabbitmq": func(context.Context) error { return rmq.Healthy() },
	}).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.TripServicePort),
		Handler:           httpx.WithConcurrencyLimit(maxConcurrent, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Trip Service started on port %d", cfg.Services.TripServicePort),
		map[string]any{"port": cfg.Services.TripServicePort, "max_concurrent": maxConcurrent},
	)

	if err := httpx.Serve(ctx, srv); err != nil {
		logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.TripServicePort})
		return err
	}
	logger.Info(ctx, "service_stopped", "Trip Service stopped", nil)
	return nil
}
