package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

var (
	tracer = otel.Tracer("checkout")
	meter  = otel.Meter("checkout")
)

type Service struct {
	baskets   BasketRepository
	catalog   CatalogRepository
	orders    OrderRepository
	uris      URIComposer
	submitter Submitter
	logger    *slog.Logger
	now       func() time.Time

	ordersCreated  metric.Int64Counter
	ordersRejected metric.Int64Counter
}

type Option func(*Service)

// WithClock overrides the source of order dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(baskets BasketRepository, catalog CatalogRepository, orders OrderRepository, uris URIComposer, submitter Submitter, logger *slog.Logger, opts ...Option) (*Service, error) {
	if baskets == nil || catalog == nil || orders == nil || uris == nil || submitter == nil {
		return nil, errors.New("checkout: repositories, uri composer and submitter are required")
	}

	created, err := meter.Int64Counter("checkout.orders.created",
		metric.WithDescription("Orders persisted from a basket"))
	if err != nil {
		return nil, err
	}
	rejected, err := meter.Int64Counter("checkout.orders.rejected",
		metric.WithDescription("Checkout attempts that did not produce an order"))
	if err != nil {
		return nil, err
	}

	s := &Service{
		baskets:        baskets,
		catalog:        catalog,
		orders:         orders,
		uris:           uris,
		submitter:      submitter,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
		ordersCreated:  created,
		ordersRejected: rejected,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateOrder converts a basket into a persisted order and hands it to the
// submitter. Nothing is written and nothing is submitted when it fails.
func (s *Service) CreateOrder(ctx context.Context, basketID int, shipTo domain.Address) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "checkout.CreateOrder")
	span.SetAttributes(attribute.Int("basket.id", basketID))
	defer span.End()

	order, err := s.assemble(ctx, basketID, shipTo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.ordersRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", rejectionReason(err))))
		return nil, err
	}

	span.SetAttributes(attribute.String("order.id", order.ID))
	s.ordersCreated.Add(ctx, 1)
	s.logger.Info("order created", "order_id", order.ID, "basket_id", basketID, "buyer_id", order.BuyerID, "items", len(order.Items))

	s.submitter.Submit(ctx, order.Clone())

	return order, nil
}

func (s *Service) assemble(ctx context.Context, basketID int, shipTo domain.Address) (*domain.Order, error) {
	basket, err := s.baskets.FindOneMatching(ctx, BasketWithItems{BasketID: basketID})
	if err != nil {
		return nil, fmt.Errorf("find basket %d: %w", basketID, err)
	}
	if basket == nil {
		return nil, &NotFoundError{BasketID: basketID}
	}
	if len(basket.Items) == 0 {
		return nil, &InvalidStateError{BasketID: basketID, Reason: "basket has no items"}
	}

	catalogItems, err := s.catalog.ListMatching(ctx, CatalogItemsByID{IDs: basket.CatalogItemIDs()})
	if err != nil {
		return nil, fmt.Errorf("list catalog items for basket %d: %w", basketID, err)
	}

	byID := make(map[int]domain.CatalogItem, len(catalogItems))
	for _, item := range catalogItems {
		byID[item.ID] = item
	}

	items := make([]domain.OrderItem, 0, len(basket.Items))
	for _, basketItem := range basket.Items {
		catalogItem, ok := byID[basketItem.CatalogItemID]
		if !ok {
			return nil, &DataIntegrityError{BasketID: basketID, CatalogItemID: basketItem.CatalogItemID}
		}

		items = append(items, domain.OrderItem{
			ItemOrdered: domain.CatalogItemOrdered{
				CatalogItemID: catalogItem.ID,
				ProductName:   catalogItem.Name,
				PictureURI:    s.uris.ComposePictureURI(catalogItem.PictureURI),
			},
			UnitPrice: basketItem.UnitPrice,
			Units:     basketItem.Quantity,
		})
	}

	order := domain.NewOrder(basket.BuyerID, shipTo, items, s.now())
	if err := s.orders.Add(ctx, order); err != nil {
		return nil, fmt.Errorf("add order for basket %d: %w", basketID, err)
	}

	return order, nil
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrDataIntegrity):
		return "data_integrity"
	default:
		return "internal"
	}
}
