package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CatalogItemOrdered is a snapshot of the catalog item taken when the order
// was placed. Later catalog edits do not reach it.
type CatalogItemOrdered struct {
	CatalogItemID int    `json:"catalog_item_id"`
	ProductName   string `json:"product_name"`
	PictureURI    string `json:"picture_uri"`
}

type OrderItem struct {
	ItemOrdered CatalogItemOrdered `json:"item_ordered"`
	UnitPrice   decimal.Decimal    `json:"unit_price"`
	Units       int                `json:"units"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Units)))
}

// Order is written once at checkout. Its items and prices are not changed
// afterwards; consumers that need their own copy use Clone.
type Order struct {
	ID            string      `json:"id"`
	BuyerID       string      `json:"buyer_id"`
	OrderDate     time.Time   `json:"order_date"`
	ShipToAddress Address     `json:"ship_to_address"`
	Items         []OrderItem `json:"items"`
}

func NewOrder(buyerID string, shipTo Address, items []OrderItem, orderDate time.Time) *Order {
	return &Order{
		BuyerID:       buyerID,
		OrderDate:     orderDate,
		ShipToAddress: shipTo,
		Items:         append([]OrderItem(nil), items...),
	}
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

func (o *Order) Clone() Order {
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return c
}
