package events

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"educonnect/placement-service/internal/logging"
)

// KafkaPublisher writes events to a single topic keyed by Event.Key so all
// events of one application or selection land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *logging.Logger
}

// NewKafkaPublisher builds an asynchronous writer for topic on brokers.
// Publish returns once the batch is queued; delivery failures are logged.
func NewKafkaPublisher(brokers []string, topic string, log *logging.Logger) *KafkaPublisher {
	p := &KafkaPublisher{log: log.With("topic", topic)}
	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		Completion:   p.delivered,
	}
	return p
}

// delivered is the writer's completion callback.
func (p *KafkaPublisher) delivered(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	for _, m := range msgs {
		p.log.Warn("kafka delivery failed", "key", string(m.Key), "type", headerValue(m, "type"), "err", err)
	}
}

func headerValue(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// Publish queues e. The partition lookup still talks to the cluster and is
// capped at two seconds.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	payload, err := e.encode()
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Type, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.Key),
		Value: payload,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("kafka write %s: %w", e.Type, err)
	}
	return nil
}

// Close flushes queued batches.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
