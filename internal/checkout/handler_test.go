package checkout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

func newTestMux(t *testing.T) (*http.ServeMux, *serviceFixture) {
	t.Helper()

	f := newServiceFixture(t,
		[]domain.Basket{
			{ID: 1, BuyerID: "b1", Items: []domain.BasketItem{{CatalogItemID: 10, UnitPrice: decimal.RequireFromString("9.99"), Quantity: 2}}},
			{ID: 2, BuyerID: "b2"},
			{ID: 3, BuyerID: "b3", Items: []domain.BasketItem{{CatalogItemID: 404, UnitPrice: decimal.NewFromInt(1), Quantity: 1}}},
		},
		[]domain.CatalogItem{{ID: 10, Name: "Widget", PictureURI: "wid.png"}},
	)

	handler := NewHandler(f.service, f.orders, discardLogger())
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", handler.HandleCreate)
	mux.HandleFunc("GET /orders/{id}", handler.HandleGet)
	return mux, f
}

const validAddress = `{"street":"1 Main St","city":"Springfield","country":"US","zip_code":"62701"}`

func TestHandler_HandleCreate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{"creates order", `{"basket_id":1,"shipping_address":` + validAddress + `}`, http.StatusCreated},
		{"invalid json", `{`, http.StatusBadRequest},
		{"incomplete address", `{"basket_id":1,"shipping_address":{"street":"x"}}`, http.StatusBadRequest},
		{"unknown basket", `{"basket_id":42,"shipping_address":` + validAddress + `}`, http.StatusNotFound},
		{"empty basket", `{"basket_id":2,"shipping_address":` + validAddress + `}`, http.StatusConflict},
		{"missing catalog item", `{"basket_id":3,"shipping_address":` + validAddress + `}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux, f := newTestMux(t)

			req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.wantStatus == http.StatusCreated {
				assert.Len(t, f.orders.added, 1)
			} else {
				assert.Empty(t, f.orders.added)
			}
		})
	}
}

func TestHandler_HandleCreate_ResponseBody(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"basket_id":1,"shipping_address":`+validAddress+`}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		ID      string `json:"id"`
		BuyerID string `json:"buyer_id"`
		Total   string `json:"total"`
		Items   []struct {
			ItemOrdered struct {
				ProductName string `json:"product_name"`
				PictureURI  string `json:"picture_uri"`
			} `json:"item_ordered"`
			UnitPrice string `json:"unit_price"`
			Units     int    `json:"units"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "order-1", body.ID)
	assert.Equal(t, "b1", body.BuyerID)
	assert.Equal(t, "19.98", body.Total)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "Widget", body.Items[0].ItemOrdered.ProductName)
	assert.Equal(t, "https://cdn.test/wid.png", body.Items[0].ItemOrdered.PictureURI)
	assert.Equal(t, "9.99", body.Items[0].UnitPrice)
	assert.Equal(t, 2, body.Items[0].Units)
}

func TestHandler_HandleGet(t *testing.T) {
	mux, _ := newTestMux(t)

	req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(`{"basket_id":1,"shipping_address":`+validAddress+`}`))
	mux.ServeHTTP(httptest.NewRecorder(), req)

	t.Run("existing order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/order-1", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":"order-1"`)
	})

	t.Run("unknown order", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
