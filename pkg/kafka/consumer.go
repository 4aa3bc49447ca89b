package kafka

import (
	"context"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// maxHandlerRetries bounds handler attempts per message before the message is
// committed and skipped (poison pill protection).
const maxHandlerRetries = 3

// Handler processes a single consumed event.
type Handler func(ctx context.Context, event *Event) error

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers  []string
	GroupID  string
	Topic    string
	MinBytes int
	MaxBytes int
}

// Consumer wraps a kafka-go reader and dispatches events to a handler.
type Consumer struct {
	reader  *kafka.Reader
	logger  *slog.Logger
	handler Handler
}

// NewConsumer creates a consumer for one topic and group.
func NewConsumer(cfg ConsumerConfig, handler Handler, logger *slog.Logger) *Consumer {
	if cfg.MinBytes == 0 {
		cfg.MinBytes = 1
	}
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		GroupID:  cfg.GroupID,
		Topic:    cfg.Topic,
		MinBytes: cfg.MinBytes,
		MaxBytes: cfg.MaxBytes,
	})

	return &Consumer{reader: r, logger: logger, handler: handler}
}

// Start consumes messages until the context is canceled. Handler failures are
// retried with backoff; a message that exhausts its retries is committed and
// skipped so it cannot wedge the partition.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started",
		slog.String("topic", c.reader.Config().Topic),
		slog.String("group", c.reader.Config().GroupID),
	)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return c.Close()
			}
			c.logger.Error("fetch message failed", slog.String("error", err.Error()))
			continue
		}

		event, err := UnmarshalEvent(msg.Value)
		if err != nil {
			c.logger.Error("malformed event, skipping",
				slog.String("topic", msg.Topic),
				slog.Int64("offset", msg.Offset),
				slog.String("error", err.Error()),
			)
			c.commit(ctx, msg)
			continue
		}

		var handlerErr error
		for attempt := 1; attempt <= maxHandlerRetries; attempt++ {
			handlerErr = c.handler(ctx, event)
			if handlerErr == nil {
				break
			}
			c.logger.Warn("handler failed",
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
				slog.Int("attempt", attempt),
				slog.Int("max_retries", maxHandlerRetries),
				slog.String("error", handlerErr.Error()),
			)
			if attempt < maxHandlerRetries {
				select {
				case <-ctx.Done():
					return c.Close()
				case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
				}
			}
		}
		if handlerErr != nil {
			c.logger.Error("handler exhausted retries, skipping message",
				slog.String("event_type", event.EventType),
				slog.String("aggregate_id", event.AggregateID),
				slog.Int64("offset", msg.Offset),
			)
		}

		c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("commit failed",
			slog.String("topic", msg.Topic),
			slog.Int64("offset", msg.Offset),
			slog.String("error", err.Error()),
		)
	}
}

// Close shuts down the underlying reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
