package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Sink receives fire-and-forget notifications of order status changes. A sink
// is called at-least-once per committed transition; failures must never affect
// the transition itself.
type Sink interface {
	Notify(ctx context.Context, customerID string, orderID uuid.UUID, status string) error
}

// LogSink is the fallback sink used when no broker is configured.
type LogSink struct{}

func (LogSink) Notify(ctx context.Context, customerID string, orderID uuid.UUID, status string) error {
	slog.InfoContext(ctx, "order status notification",
		slog.String("customer_id", customerID),
		slog.String("order_id", orderID.String()),
		slog.String("status", status),
	)
	return nil
}

// Send delivers a notification on a best-effort basis. It sits outside every
// transactional boundary: the transition is already committed, so a sink
// failure is logged and dropped.
func Send(ctx context.Context, sink Sink, customerID string, orderID uuid.UUID, status string) {
	if sink == nil {
		return
	}
	if err := sink.Notify(ctx, customerID, orderID, status); err != nil {
		slog.ErrorContext(ctx, "notification sink failed",
			slog.String("order_id", orderID.String()),
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
	}
}
