package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/spec-kit/segnala-service/internal/config"
)

// SMTPChannel delivers email through an SMTP relay.
type SMTPChannel struct {
	from   string
	dialer *gomail.Dialer
}

// NewSMTPChannel builds the channel from notification settings.
func NewSMTPChannel(cfg config.NotificationConfig) *SMTPChannel {
	return &SMTPChannel{
		from:   cfg.EmailFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

func (c *SMTPChannel) Send(ctx context.Context, email Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := c.dialer.DialAndSend(c.buildMessage(email)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", email.To, err)
	}
	return nil
}

func (c *SMTPChannel) buildMessage(email Email) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", c.from)
	m.SetHeader("To", email.To)
	m.SetHeader("Subject", email.Subject)
	m.SetBody("text/plain", email.TextBody)
	m.AddAlternative("text/html", email.HTMLBody)
	return m
}
