package checkout

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

type fakeBaskets struct {
	baskets []domain.Basket
	err     error
}

func (f *fakeBaskets) FindOneMatching(_ context.Context, spec BasketWithItems) (*domain.Basket, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, b := range f.baskets {
		if spec.IsSatisfiedBy(b) {
			found := b
			return &found, nil
		}
	}
	return nil, nil
}

type fakeCatalog struct {
	items []domain.CatalogItem
	specs []CatalogItemsByID
}

func (f *fakeCatalog) ListMatching(_ context.Context, spec CatalogItemsByID) ([]domain.CatalogItem, error) {
	f.specs = append(f.specs, spec)
	var out []domain.CatalogItem
	for _, item := range f.items {
		if spec.IsSatisfiedBy(item) {
			out = append(out, item)
		}
	}
	return out, nil
}

type fakeOrders struct {
	added []domain.Order
	err   error
}

func (f *fakeOrders) Add(_ context.Context, order *domain.Order) error {
	if f.err != nil {
		return f.err
	}
	order.ID = fmt.Sprintf("order-%d", len(f.added)+1)
	f.added = append(f.added, order.Clone())
	return nil
}

func (f *fakeOrders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	for _, o := range f.added {
		if o.ID == id {
			found := o
			return &found, nil
		}
	}
	return nil, nil
}

type prefixComposer struct{}

func (prefixComposer) ComposePictureURI(raw string) string {
	return "https://cdn.test/" + raw
}

type recordingSubmitter struct {
	mu        sync.Mutex
	submitted []domain.Order
}

func (r *recordingSubmitter) Submit(_ context.Context, order domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.submitted = append(r.submitted, order)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
