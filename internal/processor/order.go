package processor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/joao-fontenele/orderflow-checkout/internal/domain"
)

var ErrInvalidMessage = errors.New("invalid order submitted message")

func decodeOrderSubmitted(payload []byte) (domain.OrderSubmitted, error) {
	var msg domain.OrderSubmitted
	if err := json.Unmarshal(payload, &msg); err != nil {
		return msg, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if msg.OrderID == "" {
		return msg, fmt.Errorf("%w: missing order_id", ErrInvalidMessage)
	}
	if len(msg.Items) == 0 {
		return msg, fmt.Errorf("%w: order %s has no items", ErrInvalidMessage, msg.OrderID)
	}
	return msg, nil
}
