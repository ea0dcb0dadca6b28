// Package mailer delivers notification emails over SMTP.
package mailer

import (
	"context"
	"log/slog"

	"github.com/DanielPopoola/jmw-payments/internal/config"
)

type Sender interface {
	Send(ctx context.Context, e Email) error
}

type Email struct {
	FromName string
	From     string

	To  []string
	Cc  []string
	Bcc []string

	Subject  string
	TextBody string

	Attachments []Attachment
	Headers     map[string]string
}

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (e Email) AllRecipients() []string {
	out := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	out = append(out, e.To...)
	out = append(out, e.Cc...)
	out = append(out, e.Bcc...)
	return out
}

// LogSender stands in for SMTP when delivery is disabled.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, e Email) error {
	s.logger.Info("email delivery disabled, message dropped",
		"to", e.To,
		"subject", e.Subject,
		"attachments", len(e.Attachments),
	)
	return nil
}

// NewSender returns the SMTP mailer, or a LogSender when delivery is
// disabled.
func NewSender(cfg config.SMTPConfig, logger *slog.Logger) Sender {
	if cfg.Disabled {
		return NewLogSender(logger)
	}
	return NewSMTPMailer(cfg)
}
