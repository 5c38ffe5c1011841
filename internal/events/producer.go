// Package events publishes order lifecycle events to Kafka. Events are
// advisory: the orders table is the source of truth and a failed publish
// is logged, not retried.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kennedy-ak/hitech-store/internal/domain"
)

const (
	EventOrderCreated     = "order.created"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
)

type OrderEvent struct {
	EventType  string    `json:"event_type"`
	OrderID    string    `json:"order_id"`
	UserID     int64     `json:"user_id"`
	Reference  string    `json:"reference"`
	TotalMinor int64     `json:"total_minor"`
	Currency   string    `json:"currency"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	PublishOrderEvent(ctx context.Context, eventType string, order *domain.Order) error
	Close() error
}

type KafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(topic string, brokers ...string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderEvent(ctx context.Context, eventType string, order *domain.Order) error {
	event := OrderEvent{
		EventType:  eventType,
		OrderID:    order.ID.String(),
		UserID:     order.UserID,
		Reference:  order.PaymentReference,
		TotalMinor: order.TotalMinor,
		Currency:   order.Currency,
		OccurredAt: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(order.ID.String()), // order id for per-order ordering
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write order event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
