package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

type Handler struct {
	service *Service
	orders  OrderReader
	logger  *slog.Logger
}

func NewHandler(service *Service, orders OrderReader, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		orders:  orders,
		logger:  logger,
	}
}

type createOrderRequest struct {
	BasketID        int            `json:"basket_id"`
	ShippingAddress domain.Address `json:"shipping_address"`
}

type orderResponse struct {
	domain.Order
	Total string `json:"total"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := req.ShippingAddress.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.service.CreateOrder(r.Context(), req.BasketID, req.ShippingAddress)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			h.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, ErrInvalidState):
			h.writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, ErrDataIntegrity):
			h.logger.Warn("basket references missing catalog item", "error", err, "basket_id", req.BasketID)
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error("failed to create order", "error", err, "basket_id", req.BasketID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, newOrderResponse(order))
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.writeJSON(w, http.StatusOK, newOrderResponse(order))
}

func newOrderResponse(order *domain.Order) orderResponse {
	return orderResponse{Order: *order, Total: order.Total().String()}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
