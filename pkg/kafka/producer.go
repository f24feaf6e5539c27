package kafka

import (
	"context"
	"fmt"

	"github.com/IBM/sarama"
)

type Balancer int

const (
	RoundRobin Balancer = iota
	Hash
	Random
)

type RequiredAcks int

const (
	RequireNone RequiredAcks = iota
	RequireOne
	RequireAll
)

type Producer interface {
	PushMessage(ctx context.Context, key, value []byte, topic string) (partition int32, offset int64, err error)
	Close() error
}

type ProducerOption func(cfg *sarama.Config)

func WithBalancer(b Balancer) ProducerOption {
	return func(cfg *sarama.Config) {
		switch b {
		case Hash:
			cfg.Producer.Partitioner = sarama.NewHashPartitioner
		case Random:
			cfg.Producer.Partitioner = sarama.NewRandomPartitioner
		default:
			cfg.Producer.Partitioner = sarama.NewRoundRobinPartitioner
		}
	}
}

func WithRequiredAcks(acks RequiredAcks) ProducerOption {
	return func(cfg *sarama.Config) {
		switch acks {
		case RequireNone:
			cfg.Producer.RequiredAcks = sarama.NoResponse
		case RequireOne:
			cfg.Producer.RequiredAcks = sarama.WaitForLocal
		default:
			cfg.Producer.RequiredAcks = sarama.WaitForAll
		}
	}
}

type producer struct {
	sync sarama.SyncProducer
}

func NewProducer(brokers []string, opts ...ProducerOption) (Producer, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	for _, opt := range opts {
		opt(cfg)
	}

	sp, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync producer: %w", err)
	}

	return &producer{sync: sp}, nil
}

// PushMessage blocks until the broker acknowledges; sarama's sync producer has no
// per-call context, so ctx is only checked before sending.
func (p *producer) PushMessage(ctx context.Context, key, value []byte, topic string) (int32, int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, 0, err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.ByteEncoder(key),
		Value: sarama.ByteEncoder(value),
	}

	partition, offset, err := p.sync.SendMessage(msg)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to send message to %s: %w", topic, err)
	}

	return partition, offset, nil
}

func (p *producer) Close() error {
	return p.sync.Close()
}
