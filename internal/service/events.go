package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/lockboxlabs/bondvault/internal/domain"
)

// publishEvent sends a lifecycle event to the signal bus, both as an
// ephemeral pub/sub message and as a durable stream entry. Events are
// fire-and-forget: a bus failure is logged and never fails the operation
// that produced it.
func publishEvent(ctx context.Context, bus domain.SignalBus, logger *slog.Logger, channel string, event any) {
	if bus == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logger.ErrorContext(ctx, "event marshal failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := bus.Publish(ctx, channel, payload); err != nil {
		logger.ErrorContext(ctx, "event publish failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
	if err := bus.StreamAppend(ctx, "stream:"+channel, payload); err != nil {
		logger.ErrorContext(ctx, "event stream append failed",
			slog.String("channel", channel),
			slog.String("error", err.Error()),
		)
	}
}
