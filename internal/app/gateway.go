package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/nekogravitycat/consult-booking-backend/internal/config"
	"github.com/nekogravitycat/consult-booking-backend/internal/notify"
)

// NewGateway builds the messaging gateway selected by MAIL_GATEWAY.
// The returned close function releases broker connections and is never nil.
func NewGateway(cfg config.MailConfig, logger *zap.Logger) (notify.Gateway, func() error, error) {
	noop := func() error { return nil }
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Gateway {
	case "smtp":
		gw, err := notify.NewSMTPGateway(notify.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.From,
		})
		if err != nil {
			return nil, noop, err
		}
		return gw, noop, nil
	case "amqp":
		gw, err := notify.NewAMQPGateway(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			return nil, noop, err
		}
		return gw, gw.Close, nil
	case "kafka":
		gw := notify.NewKafkaGateway(cfg.KafkaBrokers, cfg.KafkaTopic)
		return gw, gw.Close, nil
	case "log", "":
		return notify.NewLogGateway(logger), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown mail gateway %q", cfg.Gateway)
	}
}
