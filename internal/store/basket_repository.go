package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/joao-fontenele/orderflow-checkout/internal/checkout"
	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

type BasketRepository struct {
	db *sql.DB
}

func NewBasketRepository(db *sql.DB) *BasketRepository {
	return &BasketRepository{db: db}
}

func (r *BasketRepository) FindOneMatching(ctx context.Context, spec checkout.BasketWithItems) (*domain.Basket, error) {
	basket := &domain.Basket{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, buyer_id
		FROM baskets
		WHERE id = $1
	`, spec.BasketID).Scan(&basket.ID, &basket.BuyerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, catalog_item_id, unit_price, quantity
		FROM basket_items
		WHERE basket_id = $1
		ORDER BY id
	`, basket.ID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.BasketItem
		if err := rows.Scan(&item.ID, &item.CatalogItemID, &item.UnitPrice, &item.Quantity); err != nil {
			return nil, err
		}
		basket.Items = append(basket.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return basket, nil
}
