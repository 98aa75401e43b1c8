package domain

import "github.com/shopspring/decimal"

type BasketItem struct {
	ID            int             `json:"id"`
	CatalogItemID int             `json:"catalog_item_id"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Quantity      int             `json:"quantity"`
}

type Basket struct {
	ID      int          `json:"id"`
	BuyerID string       `json:"buyer_id"`
	Items   []BasketItem `json:"items"`
}

// CatalogItemIDs returns the distinct catalog item ids referenced by the
// basket, in the order they first appear.
func (b *Basket) CatalogItemIDs() []int {
	seen := make(map[int]struct{}, len(b.Items))
	ids := make([]int, 0, len(b.Items))
	for _, item := range b.Items {
		if _, ok := seen[item.CatalogItemID]; ok {
			continue
		}
		seen[item.CatalogItemID] = struct{}{}
		ids = append(ids, item.CatalogItemID)
	}
	return ids
}
