package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
)

// Producer publishes JSON events synchronously.
type Producer struct {
	producer sarama.SyncProducer
}

// NewProducer connects a synchronous producer that waits for all in-sync replicas.
func NewProducer(brokers []string) (*Producer, error) {
	cfg := newSaramaConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true

	p, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return &Producer{producer: p}, nil
}

// NewProducerFrom wraps an existing sarama producer.
func NewProducerFrom(p sarama.SyncProducer) *Producer {
	return &Producer{producer: p}
}

// PublishJSON encodes v and sends it to topic under key.
func (p *Producer) PublishJSON(ctx context.Context, topic, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(body),
	}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
