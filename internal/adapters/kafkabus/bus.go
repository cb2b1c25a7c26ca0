// Package kafkabus connects the engine to Kafka: leader trades come in,
// batch summaries go out. Payloads are JSON.
package kafkabus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"copyTradeEngine/internal/domain"
	"copyTradeEngine/internal/ports"
)

// SummaryPublisher publishes batch summaries to Kafka, implementing
// ports.SummaryPublisher.
type SummaryPublisher struct {
	writer *kafka.Writer
	logger ports.Logger
}

// NewSummaryPublisher creates a Kafka publisher for batch summaries.
func NewSummaryPublisher(brokers []string, topic string, logger ports.Logger) *SummaryPublisher {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		RequiredAcks:           kafka.RequireAll,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &SummaryPublisher{writer: writer, logger: logger}
}

// PublishSummary sends the outcome of one processed leader trade, keyed
// by leader id so summaries for a leader stay ordered.
func (p *SummaryPublisher) PublishSummary(ctx context.Context, summary *domain.BatchSummary) error {
	value, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal batch summary: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(summary.LeaderID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w: %w", ports.ErrMessageUndelivered, err)
	}
	p.logger.Debug(ctx, "Batch summary published", map[string]interface{}{
		"leaderID": summary.LeaderID,
		"tradeID":  summary.OriginalTradeID,
	})
	return nil
}

// Close closes the underlying Kafka writer.
func (p *SummaryPublisher) Close() error {
	return p.writer.Close()
}

// TradeConsumer consumes leader trades from Kafka.
type TradeConsumer struct {
	reader *kafka.Reader
	logger ports.Logger
}

// NewTradeConsumer creates a Kafka consumer for leader trades.
func NewTradeConsumer(brokers []string, groupID, topic string, logger ports.Logger) *TradeConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
	})
	return &TradeConsumer{reader: reader, logger: logger}
}

// Consume reads leader trades and passes them to the handler until the
// context is canceled. Malformed messages are logged and skipped; handler
// errors are logged and do not stop consumption.
func (c *TradeConsumer) Consume(ctx context.Context, handler func(context.Context, *domain.LeaderTrade) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return fmt.Errorf("kafka read: %w", err)
		}

		var trade domain.LeaderTrade
		if err := json.Unmarshal(msg.Value, &trade); err != nil {
			c.logger.Warn(ctx, "Skipping malformed leader trade message", map[string]interface{}{
				"offset": msg.Offset,
				"error":  err.Error(),
			})
			continue
		}

		if err := handler(ctx, &trade); err != nil {
			c.logger.Error(ctx, err, "Leader trade handler failed", map[string]interface{}{
				"tradeID":  trade.TradeID,
				"leaderID": trade.LeaderID,
			})
		}
	}
}

// Close closes the underlying Kafka reader.
func (c *TradeConsumer) Close() error {
	return c.reader.Close()
}
