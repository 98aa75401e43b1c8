package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
	"github.com/joao-fontenele/orderflow-checkout/internal/messaging"
)

type fakePublisher struct {
	mu       sync.Mutex
	failures int
	err      error
	attempts int
	messages []messaging.Message
	closed   int
}

func (p *fakePublisher) Publish(_ context.Context, msg messaging.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts++
	if p.attempts <= p.failures {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *fakePublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed++
	return nil
}

type capturedRequest struct {
	method      string
	contentType string
	body        []byte
}

type processorStub struct {
	status   int
	mu       sync.Mutex
	requests []capturedRequest
}

func (s *processorStub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, capturedRequest{method: r.Method, contentType: r.Header.Get("Content-Type"), body: body})
	s.mu.Unlock()
	w.WriteHeader(s.status)
}

var fastRetry = RetryPolicy{MinBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond, MaxAttempts: 3}

func testSettings(url string) Settings {
	return Settings{
		ServiceBusConnectionString: "localhost:9092",
		QueueName:                  "orders.submitted",
		DeliveryOrderProcessorURL:  url,
	}
}

func testOrder() domain.Order {
	return domain.Order{
		ID:        "order-42",
		BuyerID:   "b1",
		OrderDate: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC),
		ShipToAddress: domain.Address{
			Street: "1 Main St", City: "Springfield", Country: "US", ZipCode: "62701",
		},
		Items: []domain.OrderItem{{
			ItemOrdered: domain.CatalogItemOrdered{CatalogItemID: 10, ProductName: "Widget", PictureURI: "https://cdn.test/wid.png"},
			UnitPrice:   decimal.RequireFromString("9.99"),
			Units:       2,
		}},
	}
}

func newNotifier(t *testing.T, url string, pub Publisher, opts ...Option) *Notifier {
	t.Helper()
	opts = append([]Option{WithRetryPolicy(fastRetry)}, opts...)
	n, err := NewNotifier(testSettings(url), pub, &http.Client{Timeout: time.Second}, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	require.NoError(t, err)
	return n
}

func TestNotifier_DeliversToBothChannels(t *testing.T) {
	stub := &processorStub{status: http.StatusOK}
	server := httptest.NewServer(stub)
	defer server.Close()

	pub := &fakePublisher{}
	n := newNotifier(t, server.URL, pub)

	require.NoError(t, n.Notify(context.Background(), testOrder()))

	require.Len(t, stub.requests, 1)
	req := stub.requests[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "application/json", req.contentType)

	var sent domain.OrderSubmitted
	require.NoError(t, json.Unmarshal(req.body, &sent))
	assert.Equal(t, "order-42", sent.OrderID)
	assert.Equal(t, "b1", sent.BuyerID)
	require.Len(t, sent.Items, 1)
	assert.Equal(t, "Widget", sent.Items[0].ProductName)
	assert.Equal(t, "19.98", sent.Total.String())

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]
	assert.Equal(t, "order-42", msg.Key)
	assert.Equal(t, "application/json", msg.ContentType)
	assert.JSONEq(t, string(req.body), string(msg.Body))
}

func TestNotifier_HTTPFailureStillPublishes(t *testing.T) {
	t.Run("non-2xx response", func(t *testing.T) {
		server := httptest.NewServer(&processorStub{status: http.StatusServiceUnavailable})
		defer server.Close()

		pub := &fakePublisher{}
		err := newNotifier(t, server.URL, pub).Notify(context.Background(), testOrder())

		var failure *Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, ChannelHTTP, failure.Channel)
		assert.Equal(t, "order-42", failure.OrderID)
		assert.Len(t, pub.messages, 1)
	})

	t.Run("network error", func(t *testing.T) {
		server := httptest.NewServer(&processorStub{status: http.StatusOK})
		url := server.URL
		server.Close()

		pub := &fakePublisher{}
		err := newNotifier(t, url, pub).Notify(context.Background(), testOrder())

		var failure *Failure
		require.ErrorAs(t, err, &failure)
		assert.Equal(t, ChannelHTTP, failure.Channel)
		assert.Equal(t, 1, pub.attempts)
		assert.Len(t, pub.messages, 1)
	})
}

func TestNotifier_PublishRetriesThenGivesUp(t *testing.T) {
	server := httptest.NewServer(&processorStub{status: http.StatusOK})
	defer server.Close()

	brokerDown := errors.New("broker unavailable")
	pub := &fakePublisher{failures: 10, err: brokerDown}
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	n := newNotifier(t, server.URL, pub, WithClock(func() time.Time { return now }))

	var err error
	require.NotPanics(t, func() { err = n.Notify(context.Background(), testOrder()) })

	assert.Equal(t, 3, pub.attempts)
	require.ErrorIs(t, err, brokerDown)

	var failure *Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, ChannelQueue, failure.Channel)
	assert.Equal(t, 3, failure.Attempts)
	assert.Equal(t, now, failure.At)
	assert.Contains(t, failure.Error(), "2026-05-01T10:00:00Z")
	assert.Contains(t, failure.Error(), "broker unavailable")
}

func TestNotifier_PublishRecoversWithinPolicy(t *testing.T) {
	server := httptest.NewServer(&processorStub{status: http.StatusOK})
	defer server.Close()

	pub := &fakePublisher{failures: 2, err: errors.New("leader not available")}
	n := newNotifier(t, server.URL, pub)

	require.NoError(t, n.Notify(context.Background(), testOrder()))
	assert.Equal(t, 3, pub.attempts)
	assert.Len(t, pub.messages, 1)
}

func TestNotifier_BothChannelsFail(t *testing.T) {
	server := httptest.NewServer(&processorStub{status: http.StatusInternalServerError})
	defer server.Close()

	pub := &fakePublisher{failures: 10, err: errors.New("broker unavailable")}
	err := newNotifier(t, server.URL, pub).Notify(context.Background(), testOrder())

	require.Error(t, err)
	var channels []Channel
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var f *Failure
		require.ErrorAs(t, e, &f)
		channels = append(channels, f.Channel)
	}
	assert.Equal(t, []Channel{ChannelHTTP, ChannelQueue}, channels)
}

func TestNotifier_OpenBreakerSkipsCallout(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	pub := &fakePublisher{}
	n := newNotifier(t, server.URL, pub, WithBreakerSettings(gobreaker.Settings{
		Name:        "test",
		Timeout:     time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 },
	}))

	require.Error(t, n.Notify(context.Background(), testOrder()))
	err := n.Notify(context.Background(), testOrder())

	require.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(1), hits.Load())
	assert.Len(t, pub.messages, 2)
}

func TestNotifier_Close(t *testing.T) {
	pub := &fakePublisher{}
	n := newNotifier(t, "http://processor.test/orders", pub)

	require.NoError(t, n.Close())
	require.NoError(t, n.Close())
	assert.Equal(t, 1, pub.closed)

	err := n.Notify(context.Background(), testOrder())
	require.Error(t, err)
	assert.Zero(t, pub.attempts)
}

func TestNewNotifier_FailsFast(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewNotifier(Settings{}, &fakePublisher{}, nil, logger)
	require.ErrorIs(t, err, ErrMissingSetting)

	_, err = NewNotifier(testSettings("http://processor.test"), nil, nil, logger)
	require.Error(t, err)
}
