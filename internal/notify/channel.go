package notify

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/segnala-service/internal/config"
)

// Email is a rendered message ready for delivery.
type Email struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Channel delivers an email. A nil error means the provider accepted the message.
type Channel interface {
	Send(ctx context.Context, email Email) error
}

// NewChannel returns an SMTP channel when a host is configured, otherwise a logging channel.
func NewChannel(cfg config.NotificationConfig, logger *zap.Logger) Channel {
	if strings.TrimSpace(cfg.SMTPHost) == "" {
		logger.Warn("NOTIFY_SMTP_HOST not provided; notifications are logged only")
		return NewLogChannel(cfg.EmailFrom, logger)
	}
	return NewSMTPChannel(cfg)
}

// LogChannel records emails in the log instead of delivering them.
type LogChannel struct {
	from   string
	logger *zap.Logger
}

// NewLogChannel builds a LogChannel.
func NewLogChannel(from string, logger *zap.Logger) *LogChannel {
	return &LogChannel{from: from, logger: logger}
}

func (c *LogChannel) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.logger.Info("email notification",
		zap.String("from", c.from),
		zap.String("to", email.To),
		zap.String("subject", email.Subject),
		zap.Int("html_bytes", len(email.HTMLBody)))
	return nil
}
