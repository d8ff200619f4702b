package fulfillment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"

	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"go.uber.org/zap"
)

// NotificationDispatcher emails the order confirmation with the receipt
type NotificationDispatcher struct {
	mailer       mail.Mailer
	storeName    string
	supportEmail string
	tmpl         *template.Template
	logger       *zap.Logger
}

// NotificationDispatcherConfig contains configuration for NotificationDispatcher
type NotificationDispatcherConfig struct {
	Mailer       mail.Mailer
	StoreName    string
	SupportEmail string
	Currency     string
	Logger       *zap.Logger
}

// NewNotificationDispatcher creates a new NotificationDispatcher
func NewNotificationDispatcher(cfg NotificationDispatcherConfig) (*NotificationDispatcher, error) {
	if cfg.Mailer == nil {
		return nil, errors.New("notification dispatcher: mailer is required")
	}
	tmpl, err := template.New("order-email").
		Funcs(templateFuncs(newMoneyFormatter(cfg.Currency))).
		Parse(emailTemplate)
	if err != nil {
		return nil, fmt.Errorf("notification dispatcher: invalid template: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationDispatcher{
		mailer:       cfg.Mailer,
		storeName:    cfg.StoreName,
		supportEmail: cfg.SupportEmail,
		tmpl:         tmpl,
		logger:       logger,
	}, nil
}

type emailView struct {
	StoreName     string
	SupportEmail  string
	Order         *commerce.Order
	HasAttachment bool
}

// Dispatch sends the confirmation. The receipt at pdfPath is attached only
// if it still exists. Returns ErrNoPurchaserEmail when there is nobody to
// notify and mail.ErrMailerDisabled when SMTP is not configured.
func (d *NotificationDispatcher) Dispatch(ctx context.Context, order *commerce.Order, pdfPath string) error {
	if !order.HasPurchaserEmail() {
		return ErrNoPurchaserEmail
	}

	var attachments []mail.Attachment
	if pdfPath != "" {
		if _, err := os.Stat(pdfPath); err == nil {
			attachments = append(attachments, mail.Attachment{Path: pdfPath})
		} else {
			d.logger.Warn("Receipt file missing, sending without attachment",
				zap.String("order_id", order.ID),
				zap.String("path", pdfPath))
		}
	}

	var body bytes.Buffer
	err := d.tmpl.Execute(&body, emailView{
		StoreName:     d.storeName,
		SupportEmail:  d.supportEmail,
		Order:         order,
		HasAttachment: len(attachments) > 0,
	})
	if err != nil {
		return fmt.Errorf("failed to render order email: %w", err)
	}

	subject := "Your order receipt"
	if d.storeName != "" {
		subject = d.storeName + ": your order receipt"
	}

	if err := d.mailer.Send(ctx, mail.Message{
		To:          order.CustomerEmail,
		Subject:     subject,
		HTML:        body.String(),
		Attachments: attachments,
	}); err != nil {
		return err
	}

	d.logger.Info("Order confirmation sent",
		zap.String("order_id", order.ID),
		zap.Bool("receipt_attached", len(attachments) > 0))
	return nil
}
