package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaGateway produces mail jobs to a Kafka topic, keyed by recipient.
type KafkaGateway struct {
	writer messageWriter
}

func NewKafkaGateway(brokers []string, topic string) *KafkaGateway {
	return &KafkaGateway{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (g *KafkaGateway) Send(ctx context.Context, recipient, subject, bodyHTML string) error {
	payload, err := json.Marshal(MailJob{
		To:        recipient,
		Subject:   subject,
		BodyHTML:  bodyHTML,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	if err := g.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(recipient),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (g *KafkaGateway) Close() error {
	return g.writer.Close()
}
