package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/joao-fontenele/orderflow-checkout/internal/delivery"
	"github.com/joao-fontenele/orderflow-checkout/internal/messaging"
	"github.com/joao-fontenele/orderflow-checkout/internal/processor"
	"github.com/joao-fontenele/orderflow-checkout/internal/telemetry"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:    "order-items-reserver",
		ServiceVersion: "0.1.0",
		OTLPEndpoint:   os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	})
	if err != nil {
		logger.Error("failed to initialize telemetry", "error", err)
		os.Exit(1)
	}
	defer func() { _ = tel.Shutdown(context.Background()) }()

	settings := delivery.Settings{
		ServiceBusConnectionString: os.Getenv(delivery.EnvServiceBusConnectionString),
		QueueName:                  os.Getenv(delivery.EnvQueueName),
	}
	brokers := settings.Brokers()
	if len(brokers) == 0 {
		logger.Error(delivery.EnvServiceBusConnectionString + " environment variable is required")
		os.Exit(1)
	}
	if settings.QueueName == "" {
		logger.Error(delivery.EnvQueueName + " environment variable is required")
		os.Exit(1)
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		logger.Error("REDIS_ADDR environment variable is required")
		os.Exit(1)
	}

	groupID := os.Getenv("CONSUMER_GROUP")
	if groupID == "" {
		groupID = "order-items-reserver"
	}

	client := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() { _ = client.Close() }()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	reserver := processor.NewReserver(processor.NewRedisDeduplicator(client, "reserved-order", 7*24*time.Hour), logger)

	consumer := messaging.NewConsumer(brokers, settings.QueueName, groupID)
	defer func() { _ = consumer.Close() }()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting order items reserver", "brokers", brokers, "queue", settings.QueueName, "group", groupID)

	if err := consumer.Consume(ctx, reserver.Handle); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
