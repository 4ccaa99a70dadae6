package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// MailJob is the payload handed to an external mail worker.
type MailJob struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	BodyHTML  string    `json:"body_html"`
	CreatedAt time.Time `json:"created_at"`
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPGateway publishes mail jobs to a RabbitMQ topic exchange.
type AMQPGateway struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	pub      amqpPublisher
	exchange string
	key      string
}

func NewAMQPGateway(url, exchange, routingKey string) (*AMQPGateway, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPGateway{conn: conn, ch: ch, pub: ch, exchange: exchange, key: routingKey}, nil
}

func (g *AMQPGateway) Send(ctx context.Context, recipient, subject, bodyHTML string) error {
	body, err := json.Marshal(MailJob{
		To:        recipient,
		Subject:   subject,
		BodyHTML:  bodyHTML,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := g.pub.PublishWithContext(ctx, g.exchange, g.key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	}); err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

func (g *AMQPGateway) Close() error {
	if g.ch != nil {
		_ = g.ch.Close()
	}
	if g.conn != nil {
		return g.conn.Close()
	}
	return nil
}
