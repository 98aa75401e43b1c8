package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Add writes the order and its items in one transaction. Items keep their
// position so reads return them in checkout order.
func (r *OrderRepository) Add(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.New().String()
	addr := order.ShipToAddress

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, buyer_id, order_date, ship_street, ship_city, ship_state, ship_country, ship_zip_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, id, order.BuyerID, order.OrderDate, addr.Street, addr.City, addr.State, addr.Country, addr.ZipCode)
	if err != nil {
		return err
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, position, catalog_item_id, product_name, picture_uri, unit_price, units)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, id, i, item.ItemOrdered.CatalogItemID, item.ItemOrdered.ProductName, item.ItemOrdered.PictureURI, item.UnitPrice, item.Units)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	order.ID = id
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	order := &domain.Order{}
	addr := &order.ShipToAddress

	err := r.db.QueryRowContext(ctx, `
		SELECT id, buyer_id, order_date, ship_street, ship_city, ship_state, ship_country, ship_zip_code
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.BuyerID, &order.OrderDate, &addr.Street, &addr.City, &addr.State, &addr.Country, &addr.ZipCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	order.OrderDate = order.OrderDate.UTC()

	rows, err := r.db.QueryContext(ctx, `
		SELECT catalog_item_id, product_name, picture_uri, unit_price, units
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ItemOrdered.CatalogItemID, &item.ItemOrdered.ProductName, &item.ItemOrdered.PictureURI, &item.UnitPrice, &item.Units); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}
