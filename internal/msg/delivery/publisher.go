package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"email-reminder/internal/model"
	"email-reminder/pkg/kafka"
)

type Publisher struct {
	l        *zap.Logger
	producer kafka.Producer
	topic    string
}

func NewPublisher(l *zap.Logger, producer kafka.Producer, topic string) *Publisher {
	return &Publisher{
		l:        l,
		producer: producer,
		topic:    topic,
	}
}

// PublishDelivered pushes the event keyed by reminder id, so every event for one
// reminder lands on the same partition.
func (p *Publisher) PublishDelivered(ctx context.Context, event model.ReminderDeliveredEvent) error {
	key, err := event.ReminderID.MarshalBinary()
	if err != nil {
		return fmt.Errorf("failed to marshal reminder id: %w", err)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal delivered event: %w", err)
	}

	partition, offset, err := p.producer.PushMessage(ctx, key, payload, p.topic)
	if err != nil {
		return fmt.Errorf("failed to push delivered event: %w", err)
	}

	p.l.Debug("Delivered event published",
		zap.String("reminder_id", event.ReminderID.String()),
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)

	return nil
}
