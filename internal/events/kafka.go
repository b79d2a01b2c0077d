package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/enfoque_qr/pkg/metrics"
)

const (
	writeTimeout = 5 * time.Second
	typeHeader   = "event_type"
)

type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaPublisher returns an asynchronous publisher: Publish only queues the
// message and delivery results are reported from the writer's batches.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	p := &KafkaPublisher{logger: slog.Default().With("component", "events", "topic", topic)}
	p.writer = &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           writeTimeout,
		BatchTimeout:           50 * time.Millisecond,
		MaxAttempts:            3,
		Async:                  true,
		Completion:             p.completed,
	}
	return p
}

// Publish queues ev keyed by resource id so events of one resource stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(ev.ResourceID),
		Value:   data,
		Time:    ev.OccurredAt,
		Headers: []kafka.Header{{Key: typeHeader, Value: []byte(ev.Type)}},
	})
	if err != nil {
		return fmt.Errorf("kafka: queue %s failed: %w", ev.Type, err)
	}
	return nil
}

func (p *KafkaPublisher) completed(msgs []kafka.Message, err error) {
	for _, m := range msgs {
		eventType := headerValue(m, typeHeader)
		metrics.EventDelivered(eventType, err)
		if err != nil {
			p.logger.Warn("event_delivery_failed", "type", eventType, "resource_id", string(m.Key), "error", err)
		}
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

// Close flushes queued messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
