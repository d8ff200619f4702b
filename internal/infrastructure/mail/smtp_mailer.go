package mail

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/storefront/backend/internal/infrastructure/config"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Ensure SMTPMailer implements Mailer
var _ Mailer = (*SMTPMailer)(nil)

// SMTPMailer sends mail over SMTP with PLAIN authentication
type SMTPMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
	// dial is swapped in tests
	dial func(ctx context.Context, msg *gomail.Msg) error
}

// NewSMTPMailer creates a new SMTPMailer. A config without credentials
// yields a mailer whose Send always returns ErrMailerDisabled.
func NewSMTPMailer(cfg config.MailConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &SMTPMailer{cfg: cfg, logger: logger}
	m.dial = m.dialAndSend
	return m
}

// Enabled reports whether messages will actually be sent
func (m *SMTPMailer) Enabled() bool {
	return m.cfg.Enabled()
}

// Send delivers msg
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if !m.Enabled() {
		return ErrMailerDisabled
	}

	out, err := m.buildMessage(msg)
	if err != nil {
		return err
	}
	if err := m.dial(ctx, out); err != nil {
		return fmt.Errorf("mail: failed to send to %s: %w", msg.To, err)
	}

	m.logger.Info("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("attachments", len(msg.Attachments)))
	return nil
}

func (m *SMTPMailer) buildMessage(msg Message) (*gomail.Msg, error) {
	if msg.To == "" {
		return nil, ErrNoRecipient
	}

	out := gomail.NewMsg()
	from := msg.From
	if from == "" {
		from = m.cfg.From
	}
	var err error
	if m.cfg.FromName != "" && msg.From == "" {
		err = out.FromFormat(m.cfg.FromName, from)
	} else {
		err = out.From(from)
	}
	if err != nil {
		return nil, fmt.Errorf("mail: invalid sender %q: %w", from, err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("mail: invalid recipient %q: %w", msg.To, err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextHTML, msg.HTML)

	for _, a := range msg.Attachments {
		name := a.Filename
		if name == "" {
			name = filepath.Base(a.Path)
		}
		out.AttachFile(a.Path, gomail.WithFileName(name))
	}
	return out, nil
}

func (m *SMTPMailer) dialAndSend(ctx context.Context, msg *gomail.Msg) error {
	client, err := gomail.NewClient(m.cfg.Host,
		gomail.WithPort(m.cfg.Port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.cfg.Username),
		gomail.WithPassword(m.cfg.Password),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	)
	if err != nil {
		return fmt.Errorf("mail: failed to create SMTP client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}
