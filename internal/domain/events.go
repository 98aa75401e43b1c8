package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderSubmittedItem struct {
	CatalogItemID int             `json:"catalog_item_id"`
	ProductName   string          `json:"product_name"`
	PictureURI    string          `json:"picture_uri"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Units         int             `json:"units"`
}

// OrderSubmitted is the message sent to downstream processors. It carries
// everything they need, so none of them has to read the order back.
type OrderSubmitted struct {
	OrderID       string               `json:"order_id"`
	BuyerID       string               `json:"buyer_id"`
	OrderDate     time.Time            `json:"order_date"`
	ShipToAddress Address              `json:"ship_to_address"`
	Items         []OrderSubmittedItem `json:"items"`
	Total         decimal.Decimal      `json:"total"`
}

func NewOrderSubmitted(order Order) OrderSubmitted {
	items := make([]OrderSubmittedItem, len(order.Items))
	for i, item := range order.Items {
		items[i] = OrderSubmittedItem{
			CatalogItemID: item.ItemOrdered.CatalogItemID,
			ProductName:   item.ItemOrdered.ProductName,
			PictureURI:    item.ItemOrdered.PictureURI,
			UnitPrice:     item.UnitPrice,
			Units:         item.Units,
		}
	}

	return OrderSubmitted{
		OrderID:       order.ID,
		BuyerID:       order.BuyerID,
		OrderDate:     order.OrderDate,
		ShipToAddress: order.ShipToAddress,
		Items:         items,
		Total:         order.Total(),
	}
}
