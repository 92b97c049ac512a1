package kafka_middleware

import (
	"context"
	"time"

	"agenda/pkg/kafka"
	"agenda/pkg/logger"
)

// Logging records every published or consumed message at debug level and
// failures at error level. direction is "publish" or "consume".
func Logging(log *logger.Logger, direction string) kafka.Middleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		attrs := []any{
			"direction", direction,
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", msg.Key,
			"event_id", msg.GetEventID(),
			"event_type", msg.GetEventType(),
			"duration", time.Since(start),
		}
		if err != nil {
			log.Error("Kafka message failed", append(attrs, "error", err)...)
			return err
		}
		log.Debug("Kafka message ok", attrs...)
		return nil
	}
}
