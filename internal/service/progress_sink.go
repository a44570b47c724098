package service

import (
	"context"

	"subtrackr-be/internal/pkg/logger"
	"subtrackr-be/internal/repository/memory"
	"subtrackr-be/pkg/cancellation"
	"subtrackr-be/pkg/events"
	pktNats "subtrackr-be/pkg/nats"
)

// NatsProgressSink fans cancellation progress out to the event bus and keeps
// the latest snapshot in the in-process cache for cheap status polls. A nil
// publisher degrades to cache-only, which keeps tests and single-binary
// setups working without NATS.
type NatsProgressSink struct {
	publisher *pktNats.Publisher
	cache     *memory.ProgressCache
	logger    logger.ILogger
}

func NewNatsProgressSink(publisher *pktNats.Publisher, cache *memory.ProgressCache, log logger.ILogger) *NatsProgressSink {
	return &NatsProgressSink{
		publisher: publisher,
		cache:     cache,
		logger:    log,
	}
}

func (s *NatsProgressSink) Publish(ctx context.Context, event cancellation.ProgressEvent) {
	if s.cache != nil {
		s.cache.Save(event)
	}

	if s.publisher == nil {
		return
	}

	evt := events.NewCancellationProgress(
		event.RequestID,
		event.UserID,
		string(event.Status),
		event.Message,
		event.Progress,
		event.Attempts,
		event.OccurredAt,
	)
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.logger.Warn("Cancellation", "Failed to publish progress event", map[string]interface{}{
			"request_id": event.RequestID.String(),
			"error":      err.Error(),
		})
	}
}
