package store

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/joao-fontenele/orderflow-checkout/internal/checkout"
	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ListMatching loads every requested item in a single query.
func (r *CatalogRepository) ListMatching(ctx context.Context, spec checkout.CatalogItemsByID) ([]domain.CatalogItem, error) {
	if len(spec.IDs) == 0 {
		return []domain.CatalogItem{}, nil
	}

	ids := make([]int64, len(spec.IDs))
	for i, id := range spec.IDs {
		ids[i] = int64(id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, picture_uri
		FROM catalog_items
		WHERE id = ANY($1)
		ORDER BY id
	`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.CatalogItem
	for rows.Next() {
		var item domain.CatalogItem
		if err := rows.Scan(&item.ID, &item.Name, &item.PictureURI); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
