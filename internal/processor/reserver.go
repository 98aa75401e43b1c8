package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/joao-fontenele/orderflow-checkout/internal/messaging"
)

// Reserver consumes submitted orders from the durable queue and records the
// items to reserve. Reservation against stock happens elsewhere.
type Reserver struct {
	dedupe Deduplicator
	logger *slog.Logger
}

func NewReserver(dedupe Deduplicator, logger *slog.Logger) *Reserver {
	return &Reserver{
		dedupe: dedupe,
		logger: logger,
	}
}

// Handle drops malformed messages instead of failing, so a poison message
// cannot block the partition.
func (r *Reserver) Handle(ctx context.Context, d messaging.Delivery) error {
	if d.ContentType != "" && d.ContentType != messaging.ContentTypeJSON {
		r.logger.Warn("skipping message with unsupported content type", "content_type", d.ContentType, "offset", d.Offset)
		return nil
	}

	msg, err := decodeOrderSubmitted(d.Body)
	if err != nil {
		if errors.Is(err, ErrInvalidMessage) {
			r.logger.Error("skipping invalid order message", "error", err, "key", d.Key, "offset", d.Offset)
			return nil
		}
		return err
	}

	first, err := r.dedupe.FirstSeen(ctx, msg.OrderID)
	if err != nil {
		return fmt.Errorf("check order %s: %w", msg.OrderID, err)
	}
	if !first {
		r.logger.Info("duplicate order message ignored", "order_id", msg.OrderID, "offset", d.Offset)
		return nil
	}

	for _, item := range msg.Items {
		r.logger.Info("order item reserved",
			"order_id", msg.OrderID,
			"catalog_item_id", item.CatalogItemID,
			"units", item.Units,
		)
	}

	r.logger.Info("order items reserved", "order_id", msg.OrderID, "items", len(msg.Items))
	return nil
}
