// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

type PaymentCompleted struct {
	PaymentID   uint      `json:"payment_id"`
	CustomerID  uint      `json:"customer_id"`
	Amount      string    `json:"amount"`
	Currency    string    `json:"currency"`
	Gateway     string    `json:"gateway"`
	ChargeID    string    `json:"charge_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type Publisher interface {
	PublishPaymentCompleted(ctx context.Context, evt PaymentCompleted) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// PublishPaymentCompleted keys messages by payment id so events for one
// payment stay ordered within a partition.
func (p *KafkaPublisher) PublishPaymentCompleted(ctx context.Context, evt PaymentCompleted) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to encode payment event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatUint(uint64(evt.PaymentID), 10)),
		Value: payload,
		Time:  evt.CompletedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("payment.completed")},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to publish payment event: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishPaymentCompleted(context.Context, PaymentCompleted) error { return nil }
func (NoopPublisher) Close() error                                                    { return nil }
