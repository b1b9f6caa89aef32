package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/IBM/sarama"
)

// MessageHandler processes one consumed message. Returning shouldMark=false
// leaves the offset uncommitted so the message is redelivered.
type MessageHandler interface {
	HandleMessage(ctx context.Context, message []byte) (shouldMark bool, err error)
}

// ConsumerConfig holds Kafka consumer configuration
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Handler MessageHandler
	// FromOldest starts a new group at the oldest offset so requests queued
	// before the first deployment are still analysed.
	FromOldest bool
}

// Consumer runs a consumer group over a single topic.
type Consumer struct {
	group   sarama.ConsumerGroup
	handler MessageHandler
	topic   string
	groupID string
	ready   chan struct{}
	done    chan struct{}
}

func newSaramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_6_0_0
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	cfg.Consumer.Offsets.Initial = sarama.OffsetNewest
	cfg.Consumer.Return.Errors = true
	return cfg
}

// NewConsumer connects a consumer group.
func NewConsumer(config ConsumerConfig) (*Consumer, error) {
	if config.Handler == nil {
		return nil, errors.New("kafka consumer needs a message handler")
	}
	saramaConfig := newSaramaConfig()
	if config.FromOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	}

	group, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:   group,
		handler: config.Handler,
		topic:   config.Topic,
		groupID: config.GroupID,
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Start joins the group and returns once the first session is set up.
// Consumption continues in the background until ctx is canceled or Close is called.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &groupHandler{handler: c.handler, ready: c.ready}

	go func() {
		defer close(c.done)
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) || errors.Is(err, context.Canceled) {
					return
				}
				log.Printf("Error from Kafka consumer: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
			// Rebalanced: wait for the next session's Setup.
			handler.ready = make(chan struct{})
		}
	}()

	select {
	case <-c.ready:
	case <-ctx.Done():
		return ctx.Err()
	}
	log.Printf("✅ Kafka consumer started (group: %s, topic: %s)", c.groupID, c.topic)

	go func() {
		for err := range c.group.Errors() {
			log.Printf("❌ Kafka consumer error: %v", err)
		}
	}()
	return nil
}

// Done is closed when the consume loop exits.
func (c *Consumer) Done() <-chan struct{} { return c.done }

// Close gracefully shuts down the consumer
func (c *Consumer) Close() error {
	log.Println("Closing Kafka consumer...")
	return c.group.Close()
}

// groupHandler implements sarama.ConsumerGroupHandler
type groupHandler struct {
	handler MessageHandler
	ready   chan struct{}
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok || message == nil {
				return nil
			}

			log.Printf("📥 Received Kafka message: topic=%s partition=%d offset=%d key=%s",
				message.Topic, message.Partition, message.Offset, string(message.Key))

			shouldMark, err := h.handler.HandleMessage(session.Context(), message.Value)
			if err != nil {
				log.Printf("❌ Failed to handle message at offset %d: %v", message.Offset, err)
			}
			if shouldMark {
				session.MarkMessage(message, "")
			}

		case <-session.Context().Done():
			return nil
		}
	}
}

// TypedMessageHandler decodes JSON messages into T before processing.
type TypedMessageHandler[T any] struct {
	// Validate rejects messages that should not be processed.
	Validate func(msg *T) error
	// Process handles a decoded, valid message.
	Process func(ctx context.Context, msg *T) error
	// MarkInvalid commits undecodable or invalid messages so they are not redelivered.
	MarkInvalid bool
	// MarkFailed commits messages whose processing failed.
	MarkFailed bool
}

// HandleMessage implements MessageHandler.
func (h *TypedMessageHandler[T]) HandleMessage(ctx context.Context, message []byte) (bool, error) {
	var msg T
	if err := json.Unmarshal(message, &msg); err != nil {
		log.Printf("❌ Failed to unmarshal message: %v", err)
		return h.MarkInvalid, nil
	}

	if h.Validate != nil {
		if err := h.Validate(&msg); err != nil {
			log.Printf("❌ Skipping invalid message: %v", err)
			return h.MarkInvalid, nil
		}
	}

	if err := h.Process(ctx, &msg); err != nil {
		return h.MarkFailed, err
	}
	return true, nil
}
