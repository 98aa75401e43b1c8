package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
	"github.com/joao-fontenele/orderflow-checkout/internal/messaging"
)

var meter = otel.Meter("delivery")

// Publisher is the durable queue. The notifier owns it and closes it in Close.
type Publisher interface {
	Publish(ctx context.Context, msg messaging.Message) error
	Close() error
}

// Notifier tells the delivery processor and the durable queue about new
// orders. The two channels are independent: a failed HTTP callout does not
// prevent the queue publish.
type Notifier struct {
	settings  Settings
	publisher Publisher
	client    *http.Client
	logger    *slog.Logger
	policy    RetryPolicy
	breaker   *gobreaker.CircuitBreaker[struct{}]
	now       func() time.Time
	closed    atomic.Bool

	failures        metric.Int64Counter
	publishAttempts metric.Int64Counter
}

type Option func(*Notifier)

func WithRetryPolicy(p RetryPolicy) Option {
	return func(n *Notifier) {
		n.policy = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(n *Notifier) {
		n.now = now
	}
}

// WithBreakerSettings replaces the circuit breaker guarding the HTTP callout.
func WithBreakerSettings(st gobreaker.Settings) Option {
	return func(n *Notifier) {
		n.breaker = gobreaker.NewCircuitBreaker[struct{}](st)
	}
}

func NewNotifier(settings Settings, publisher Publisher, client *http.Client, logger *slog.Logger, opts ...Option) (*Notifier, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if publisher == nil {
		return nil, errors.New("delivery: publisher is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	failures, err := meter.Int64Counter("delivery.notification.failures",
		metric.WithDescription("Order notifications that could not be delivered, by channel"))
	if err != nil {
		return nil, err
	}
	attempts, err := meter.Int64Counter("delivery.queue.publish.attempts",
		metric.WithDescription("Queue publish attempts including retries"))
	if err != nil {
		return nil, err
	}

	n := &Notifier{
		settings:        settings,
		publisher:       publisher,
		client:          client,
		logger:          logger,
		policy:          DefaultRetryPolicy(),
		now:             time.Now,
		failures:        failures,
		publishAttempts: attempts,
	}
	n.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "delivery-order-processor",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// Notify sends the order snapshot to both channels. Failures are logged and
// returned joined; they never affect the order itself.
func (n *Notifier) Notify(ctx context.Context, order domain.Order) error {
	if n.closed.Load() {
		return n.fail(ctx, ChannelQueue, order.ID, 0, errors.New("notifier is closed"))
	}

	payload, err := json.Marshal(domain.NewOrderSubmitted(order))
	if err != nil {
		return fmt.Errorf("serialize order %s: %w", order.ID, err)
	}

	var errs []error
	if err := n.callDeliveryProcessor(ctx, payload); err != nil {
		errs = append(errs, n.fail(ctx, ChannelHTTP, order.ID, 1, err))
	}

	if attempts, err := n.publish(ctx, order.ID, payload); err != nil {
		errs = append(errs, n.fail(ctx, ChannelQueue, order.ID, attempts, err))
	}

	if len(errs) == 0 {
		n.logger.Info("order notification delivered", "order_id", order.ID)
	}
	return errors.Join(errs...)
}

func (n *Notifier) callDeliveryProcessor(ctx context.Context, payload []byte) error {
	_, err := n.breaker.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.settings.DeliveryOrderProcessorURL, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", messaging.ContentTypeJSON)

		resp, err := n.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer func() { _ = resp.Body.Close() }()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return struct{}{}, fmt.Errorf("delivery order processor returned status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	return err
}

func (n *Notifier) publish(ctx context.Context, orderID string, payload []byte) (int, error) {
	msg := messaging.Message{
		Key:         orderID,
		Body:        payload,
		ContentType: messaging.ContentTypeJSON,
	}

	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		n.publishAttempts.Add(ctx, 1)
		return struct{}{}, n.publisher.Publish(ctx, msg)
	}, n.policy.options(func(err error, wait time.Duration) {
		n.logger.Warn("queue publish failed, retrying", "error", err, "order_id", orderID, "attempt", attempts, "backoff", wait)
	})...)

	return attempts, err
}

func (n *Notifier) fail(ctx context.Context, channel Channel, orderID string, attempts int, err error) *Failure {
	f := &Failure{
		Channel:  channel,
		OrderID:  orderID,
		At:       n.now(),
		Attempts: attempts,
		Err:      err,
	}
	n.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("channel", string(channel))))
	n.logger.Error("order notification failed",
		"error", err,
		"order_id", orderID,
		"channel", string(channel),
		"attempts", attempts,
		"failed_at", f.At,
	)
	return f
}

// Close releases the queue connection. Call it once, after the dispatcher
// has drained.
func (n *Notifier) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}
	return n.publisher.Close()
}
