package processor

import (
	"encoding/json"
	"io"
	"log/slog"
	"mime"
	"net/http"
)

const maxMessageBytes = 1 << 20

// DeliveryHandler is the delivery-order processing endpoint the notifier
// calls for every submitted order.
type DeliveryHandler struct {
	dedupe Deduplicator
	logger *slog.Logger
}

func NewDeliveryHandler(dedupe Deduplicator, logger *slog.Logger) *DeliveryHandler {
	return &DeliveryHandler{
		dedupe: dedupe,
		logger: logger,
	}
}

type deliveryResponse struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

func (h *DeliveryHandler) HandleDeliveryOrder(w http.ResponseWriter, r *http.Request) {
	if ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); ct != "application/json" {
		h.writeError(w, http.StatusUnsupportedMediaType, "content type must be application/json")
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxMessageBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	msg, err := decodeOrderSubmitted(payload)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	first, err := h.dedupe.FirstSeen(r.Context(), msg.OrderID)
	if err != nil {
		h.logger.Error("failed to check delivery order", "error", err, "order_id", msg.OrderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !first {
		h.logger.Info("duplicate delivery order ignored", "order_id", msg.OrderID)
		h.writeJSON(w, http.StatusOK, deliveryResponse{OrderID: msg.OrderID, Status: "duplicate"})
		return
	}

	h.logger.Info("delivery order accepted",
		"order_id", msg.OrderID,
		"buyer_id", msg.BuyerID,
		"items", len(msg.Items),
		"total", msg.Total.String(),
		"city", msg.ShipToAddress.City,
		"country", msg.ShipToAddress.Country,
	)
	h.writeJSON(w, http.StatusAccepted, deliveryResponse{OrderID: msg.OrderID, Status: "accepted"})
}

func (h *DeliveryHandler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *DeliveryHandler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
