package service

import (
	"context"
	"errors"
	"log/slog"

	"shop-service/internal/models"
)

// Notifier is told about order changes after they have been committed.
type Notifier interface {
	Notify(ctx context.Context, event models.OrderEvent) error
}

// Notifiers fans one event out to every notifier and joins their errors.
type Notifiers []Notifier

func (ns Notifiers) Notify(ctx context.Context, event models.OrderEvent) error {
	var errs []error
	for _, n := range ns {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func notify(ctx context.Context, n Notifier, logger *slog.Logger, event models.OrderEvent) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, event); err != nil {
		logger.Warn("order notification failed",
			"event", event.Type,
			"order_id", event.OrderID,
			"error", err,
		)
	}
}
