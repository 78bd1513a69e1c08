package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/happyflights/flightbooking/pkg/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Consumer struct {
	reader *kafka.Reader
}

func NewConsumer(brokers []string, groupID, topic string) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			MinBytes:          1,
			MaxBytes:          10e6,
			MaxWait:           time.Second,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume delivers events to handler until ctx is done. Offsets are committed
// after the handler returns, whether or not it failed: a notification that
// cannot be delivered is logged and skipped rather than retried forever.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, TicketEvent) error) error {
	log := logger.WithComponent("kafka")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := Dispatch(ctx, msg.Value, handler); err != nil {
			log.Warn("event handling failed",
				zap.Int64("offset", msg.Offset),
				zap.String("key", string(msg.Key)),
				zap.Error(err))
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			return err
		}
	}
}

// Dispatch decodes one message value and hands it to handler.
func Dispatch(ctx context.Context, value []byte, handler func(context.Context, TicketEvent) error) error {
	var event TicketEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	return handler(ctx, event)
}
