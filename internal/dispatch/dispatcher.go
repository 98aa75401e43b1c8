// Package dispatch fans submitted orders out to in-process subscribers.
//
// Submit never waits for subscribers. Each submission runs on its own
// goroutine, which calls the subscribers one after another in the order they
// were registered. A subscriber that fails or panics is logged and counted;
// the remaining subscribers still run and the caller never sees the failure.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

var (
	tracer = otel.Tracer("dispatch")
	meter  = otel.Meter("dispatch")
)

var ErrClosed = errors.New("dispatcher is shut down")

type Subscriber interface {
	Notify(ctx context.Context, order domain.Order) error
}

type SubscriberFunc func(ctx context.Context, order domain.Order) error

func (f SubscriberFunc) Notify(ctx context.Context, order domain.Order) error {
	return f(ctx, order)
}

type Subscription struct {
	Name       string
	Subscriber Subscriber
}

func Subscribe(name string, s Subscriber) Subscription {
	return Subscription{Name: name, Subscriber: s}
}

type Dispatcher struct {
	subscriptions []Subscription
	logger        *slog.Logger

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup

	deliveries metric.Int64Counter
	failures   metric.Int64Counter
}

func New(logger *slog.Logger, subscriptions ...Subscription) (*Dispatcher, error) {
	for i, s := range subscriptions {
		if s.Subscriber == nil {
			return nil, fmt.Errorf("dispatch: subscription %d (%q) has no subscriber", i, s.Name)
		}
	}

	deliveries, err := meter.Int64Counter("dispatch.deliveries",
		metric.WithDescription("Orders handed to a subscriber"))
	if err != nil {
		return nil, err
	}
	failures, err := meter.Int64Counter("dispatch.failures",
		metric.WithDescription("Subscriber invocations that returned an error or panicked"))
	if err != nil {
		return nil, err
	}

	return &Dispatcher{
		subscriptions: append([]Subscription(nil), subscriptions...),
		logger:        logger,
		deliveries:    deliveries,
		failures:      failures,
	}, nil
}

// Submit schedules order for every subscriber and returns immediately. The
// caller gets no completion signal. Cancelling ctx after Submit returns does
// not stop the dispatch; trace context carried by ctx is kept.
func (d *Dispatcher) Submit(ctx context.Context, order domain.Order) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Error("order not dispatched", "error", ErrClosed, "order_id", order.ID)
		return
	}

	d.inflight.Add(1)
	go func() {
		defer d.inflight.Done()
		d.dispatch(context.WithoutCancel(ctx), order)
	}()
}

func (d *Dispatcher) dispatch(ctx context.Context, order domain.Order) {
	for _, s := range d.subscriptions {
		d.invoke(ctx, s, order.Clone())
	}
}

func (d *Dispatcher) invoke(ctx context.Context, s Subscription, order domain.Order) {
	attrs := []attribute.KeyValue{attribute.String("subscriber", s.Name)}

	ctx, span := tracer.Start(ctx, "dispatch "+s.Name,
		trace.WithAttributes(append(attrs, attribute.String("order.id", order.ID))...))
	defer span.End()

	start := time.Now()
	err := safeNotify(ctx, s.Subscriber, order)
	d.deliveries.Add(ctx, 1, metric.WithAttributes(attrs...))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		d.failures.Add(ctx, 1, metric.WithAttributes(attrs...))
		d.logger.Error("subscriber failed", "error", err, "subscriber", s.Name, "order_id", order.ID, "duration", time.Since(start))
		return
	}

	d.logger.Debug("subscriber notified", "subscriber", s.Name, "order_id", order.ID, "duration", time.Since(start))
}

func safeNotify(ctx context.Context, s Subscriber, order domain.Order) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("subscriber panic: %v\n%s", r, debug.Stack())
		}
	}()
	return s.Notify(ctx, order)
}

// Shutdown rejects further submissions and waits for in-flight dispatches
// until ctx is done.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
