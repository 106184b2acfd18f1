package notificationworker

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
	"ride-share/internal/general/rabbitmq"
	"ride-share/internal/general/websocket"
	"ride-share/internal/software/notification/service"

	"golang.org/x/sync/errgroup"
)

// Run consumes the notification queue and serves push subscribers until ctx is cancelled.
func Run(ctx context.Context, cfgPath string, prefetch int) error {
	logger := logger.New("notification-worker")
	ctx = logger.WithRequestID(ctx, "startup-001")

	cfg, err := config.LoadFromFile(cfgPath)
	if err != nil {
		logger.Error(ctx, "config_load_failed", "Failed to load configuration", err, nil)
		return err
	}

	rmq, err := rabbitmq.ConnectRabbitMQ(ctx, cfg, logger)
	if err != nil {
		logger.Error(ctx, "rabbitmq_connection_failed", "Failed to connect to RabbitMQ", err, nil)
		return err
	}
	defer rmq.Close()

	hub := websocket.NewHub(logger, jwt.NewManager(cfg.JWT.SecretKey, 2*time.Hour))
	worker := service.NewWorker(logger, rmq, service.Fanout{service.LogSink{Logger: logger}, hub}, prefetch)

	resp := httpx.Responder{Logger: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/notifications", hub.Connect)
	mux.HandleFunc("GET /health", resp.HealthHandler(map[string]httpx.HealthCheck{
		"rabbitmq": func(context.Context) error { return rmq.Healthy() },
	}))
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Services.NotificationPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	logger.Info(ctx, "service_started",
		fmt.Sprintf("Notification worker started on port %d", cfg.Services.NotificationPort),
		map[string]any{"port": cfg.Services.NotificationPort, "prefetch": prefetch},
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return httpx.Serve(gctx, srv) })
	if err := g.Wait(); err != nil {
		logger.Error(ctx, "worker_stopped", "Notification worker terminated with error", err, nil)
		return err
	}
	logger.Info(ctx, "service_stopped", "Notification worker stopped", map[string]any{"open_sockets": hub.Connections()})
	return nil
}
