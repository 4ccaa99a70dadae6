package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// mailSender is the part of *mail.Client the SMTP gateway needs.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPGateway delivers messages directly over SMTP.
type SMTPGateway struct {
	client mailSender
	from   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSMTPGateway(cfg SMTPConfig) (*SMTPGateway, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}
	return &SMTPGateway{client: client, from: cfg.From}, nil
}

func buildMessage(from, recipient, subject, bodyHTML string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", recipient, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, bodyHTML)
	return msg, nil
}

func (g *SMTPGateway) Send(ctx context.Context, recipient, subject, bodyHTML string) error {
	msg, err := buildMessage(g.from, recipient, subject, bodyHTML)
	if err != nil {
		return err
	}
	if err := g.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
