package bookingservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"ride-share/internal/general/config"
	"ride-share/internal/general/costclient"
	"ride-share/internal/general/httpx"
	"ride-share/internal/general/jwt"
	"ride-share/internal/general/logger"
	"ride-share/internal/general/notify"
	"ride-share/internal/general/postgres"
	"ride-share/internal/general/rabbitmq"
	"ride-share/internal/general/stripe"
	"ride-share/internal/software/booking/handler"
	"ride-share/internal/software/booking/service"
	paymentservice "ride-share/internal/software/payment/service"
	tripservice "ride-share/internal/software/trip/service"
)

const serviceName = "booking-service"

// Run wires the booking orchestrator and blocks until ctx is cancelled.
func Run(ctx context.Context, cfgPath string, maxConcurrent int) error {
	logger := logger.New(serviceName)
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}
	if cfg.Stripe.SecretKey == "" {
		err := fmt.Errorf("stripe.secret_key is required")
		logger.Error(ctx, "config_invalid", "Payment processor is not configured", err, nil)
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

	uow := postgres.NewUnitOfWork(pool)
	repos := service.Repositories{
		Trips:    postgres.NewTripRepo(),
		Bookings: postgres.NewBookingRepo(),
		Quotes:   postgres.NewQuoteRepo(),
		Payments: postgres.NewPaymentRepo(),
		Ratings:  postgres.NewRatingRepo(),
		Users:    postgres.NewUserRepo(),
	}

	// Seat adjustments go through the trip inventory manager so both services
	// enforce the same bounds. Geocoding is never needed on this path.
	inventory := tripservice.NewTripService(logger, uow, repos.Trips, repos.Bookings, nil, notifier, tripservice.SearchSettings{})

	processor := stripe.NewProcessor(cfg.Stripe.SecretKey, cfg.Stripe.Currency, nil)
	payments := paymentservice.NewPaymentManager(logger, uow, repos.Payments, processor)
	quotes := costclient.New(cfg.CostService.URL, cfg.CostService.Timeout)

	svc := service.NewBookingService(logger, uow, repos, inventory, quotes, payments, notifier)

	jwtManager := jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour)
	mux := http.NewServeMux()
	handler.NewBookingHTTPHandler(svc, logger, jwtManager, map[string]httpx.HealthCheck{
		"database": func(ctx context.Context) error { return pool.Ping(ctx) },
		"rabbitmq": func(context.Context) error { return rmq.Healthy() },
	}).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.BookingServicePort),
		Handler:           httpx.WithConcurrencyLimit(maxConcurrent, mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Booking Service started on port %d", cfg.Services.BookingServicePort),
		map[string]any{"port": cfg.Services.BookingServicePort, "max_concurrent": maxConcurrent},
	)

	if err := httpx.Serve(ctx, srv); err != nil {
		logger.Error(ctx, "http_server_error", "HTTP server terminated with error", err, map[string]any{"port": cfg.Services.BookingServicePort})
		return err
	}
	logger.Info(ctx, "service_stopped", "Booking Service stopped", nil)
	return nil
}
