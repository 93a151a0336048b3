// Package mailer sends the verification and password reset emails.
package mailer

import (
	"context"

	"niveshx-api/internal/logger"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer logs instead of sending. It stands in when no SMTP relay is
// configured so local signups still work.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Message) error {
	logger.Info("email not sent, smtp disabled", map[string]any{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return nil
}
