package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/beach-status-etl/internal/config"
	"github.com/couchcryptid/beach-status-etl/internal/domain"
)

// Publisher produces beach status change events to a Kafka topic.
// It implements pipeline.ChangePublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured change topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishChanges writes all changes in a single WriteMessages call. Keys are
// beach names, so one beach's events stay ordered within a partition.
func (p *Publisher) PublishChanges(ctx context.Context, changes []domain.StatusChange) error {
	if len(changes) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(changes))
	for i := range changes {
		msg, err := serializeToMessage(changes[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish status changes: %w", err)
	}
	p.logger.Debug("status changes published", "count", len(msgs), "topic", p.writer.Topic)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a StatusChange into a Kafka message.
func serializeToMessage(change domain.StatusChange) (kafkago.Message, error) {
	data, err := json.Marshal(change)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize status change: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(change.BeachName),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "status", Value: []byte(change.Status)},
			{Key: "previous_status", Value: []byte(change.PreviousStatus)},
			{Key: "observed_at", Value: []byte(change.ObservedAt.Format(time.RFC3339))},
		},
	}, nil
}
