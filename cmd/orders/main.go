package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/orderflow-checkout/internal/catalog"
	"github.com/joao-fontenele/orderflow-checkout/internal/checkout"
	"github.com/joao-fontenele/orderflow-checkout/internal/delivery"
	"github.com/joao-fontenele/orderflow-checkout/internal/dispatch"
	"github.com/joao-fontenele/orderflow-checkout/internal/messaging"
	"github.com/joao-fontenele/orderflow-checkout/internal/store"
	"github.com/joao-fontenele/orderflow-checkout/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "orders",
		ServiceVersion: "0.1.0",
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = tel.Shutdown(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	catalogBaseURL := os.Getenv("CATALOG_BASE_URL")
	if catalogBaseURL == "" {
		logger.Error("CATALOG_BASE_URL environment variable is required")
		os.Exit(1)
	}

	settings, err := delivery.LoadSettings(os.Getenv)
	if err != nil {
		logger.Error("invalid order processing settings", "error", err)
		os.Exit(1)
	}

	db, err := telemetry.OpenPostgres(ctx, postgresURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	producer := messaging.NewProducer(settings.Brokers(), settings.QueueName,
		messaging.WithWriteTimeout(10*time.Second))

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	notifier, err := delivery.NewNotifier(settings, producer, httpClient, logger)
	if err != nil {
		_ = producer.Close()
		logger.Error("failed to create delivery notifier", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Error("failed to close queue producer", "error", err)
		}
	}()

	dispatcher, err := dispatch.New(logger, dispatch.Subscribe("delivery", notifier))
	if err != nil {
		logger.Error("failed to create dispatcher", "error", err)
		os.Exit(1)
	}

	orderRepo := store.NewOrderRepository(db)
	service, err := checkout.NewService(
		store.NewBasketRepository(db),
		store.NewCatalogRepository(db),
		orderRepo,
		catalog.NewURIComposer(catalogBaseURL),
		dispatcher,
		logger,
	)
	if err != nil {
		logger.Error("failed to create checkout service", "error", err)
		os.Exit(1)
	}

	handler := checkout.NewHandler(service, orderRepo, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", telemetry.WithHTTPRoute(handler.HandleCreate))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(handler.HandleGet))
	mux.Handle("GET /metrics", tel.MetricsHandler)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      otelhttp.NewHandler(mux, "orders"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting orders service", "port", port, "queue", settings.QueueName)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	// Publishes can wait out the full retry backoff, so give them longer
	// than the HTTP server.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancelDrain()

	if err := dispatcher.Shutdown(drainCtx); err != nil {
		logger.Error("notifications still in flight at shutdown", "error", err)
	}
}
