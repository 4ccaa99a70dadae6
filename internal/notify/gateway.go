package notify

import (
	"context"

	"go.uber.org/zap"
)

// Gateway delivers one rendered message. Errors are opaque to callers.
type Gateway interface {
	Send(ctx context.Context, recipient, subject, bodyHTML string) error
}

// LogGateway writes messages to the application log instead of delivering them.
type LogGateway struct {
	logger *zap.Logger
}

func NewLogGateway(logger *zap.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

func (g *LogGateway) Send(ctx context.Context, recipient, subject, bodyHTML string) error {
	g.logger.Info("mail",
		zap.String("to", recipient),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(bodyHTML)),
	)
	return nil
}
