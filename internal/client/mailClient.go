package client

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"print-store/internal/config"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

type Attachment struct {
	Filename string
	Content  []byte
}

type MailMessage struct {
	From        string
	To          string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

const defaultSMTPTimeout = 20 * time.Second

type Mailer interface {
	Send(ctx context.Context, msg *MailMessage) error
}

type smtpMailerImpl struct {
	client *mail.Client
	from   string
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when no SMTP host is configured.
func NewMailer(cfg *config.SMTP, log *zap.Logger) (Mailer, error) {
	if cfg.Host == "" {
		log.Warn("smtp host not configured, outgoing mail is disabled")
		return &logMailerImpl{log: log}, nil
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSMTPTimeout
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &smtpMailerImpl{client: c, from: cfg.From}, nil
}

func (m *smtpMailerImpl) Send(ctx context.Context, msg *MailMessage) error {
	from := msg.From
	if from == "" {
		from = m.from
	}

	message := mail.NewMsg()
	if err := message.From(from); err != nil {
		return fmt.Errorf("set mail from: %w", err)
	}
	if err := message.To(msg.To); err != nil {
		return fmt.Errorf("set mail to: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := message.ReplyTo(msg.ReplyTo); err != nil {
			return fmt.Errorf("set mail reply-to: %w", err)
		}
	}
	message.Subject(msg.Subject)
	message.SetBodyString(mail.TypeTextHTML, msg.HTML)
	for _, a := range msg.Attachments {
		message.AttachReadSeeker(a.Filename, bytes.NewReader(a.Content))
	}

	if err := m.client.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	return nil
}

type logMailerImpl struct {
	log *zap.Logger
}

func (m *logMailerImpl) Send(_ context.Context, msg *MailMessage) error {
	m.log.Info("mail sending disabled, dropping message",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)),
	)
	return nil
}
