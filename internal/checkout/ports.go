package checkout

import (
	"context"
	"slices"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

// BasketWithItems selects one basket together with its line items.
type BasketWithItems struct {
	BasketID int
}

func (s BasketWithItems) IsSatisfiedBy(b domain.Basket) bool {
	return b.ID == s.BasketID
}

// CatalogItemsByID selects every catalog item whose id is listed.
type CatalogItemsByID struct {
	IDs []int
}

func (s CatalogItemsByID) IsSatisfiedBy(item domain.CatalogItem) bool {
	return slices.Contains(s.IDs, item.ID)
}

// BasketRepository returns nil and no error when nothing matches.
type BasketRepository interface {
	FindOneMatching(ctx context.Context, spec BasketWithItems) (*domain.Basket, error)
}

type CatalogRepository interface {
	ListMatching(ctx context.Context, spec CatalogItemsByID) ([]domain.CatalogItem, error)
}

// OrderRepository persists new orders and assigns their ID.
type OrderRepository interface {
	Add(ctx context.Context, order *domain.Order) error
}

// OrderReader returns nil and no error for an unknown id.
type OrderReader interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

type URIComposer interface {
	ComposePictureURI(raw string) string
}

// Submitter receives every order once it has been persisted. Implementations
// must not block the caller on downstream delivery.
type Submitter interface {
	Submit(ctx context.Context, order domain.Order)
}
