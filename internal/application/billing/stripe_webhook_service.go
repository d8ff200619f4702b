// Package billing routes verified payment gateway events to the storefront
// and membership workflows.
package billing

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/application/fulfillment"
	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"go.uber.org/zap"
)

// WebhookVerifier authenticates and decodes raw webhook deliveries
type WebhookVerifier interface {
	VerifyWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

// OrderFulfiller turns a completed storefront checkout into an order
type OrderFulfiller interface {
	Fulfill(ctx context.Context, session *payment.CompletedSession) (*fulfillment.FulfillmentReport, *commerce.Order, error)
}

// MembershipPayments records completed membership payments
type MembershipPayments interface {
	MarkPaid(ctx context.Context, applicationID, paymentIntentID string) error
}

// StripeWebhookService handles Stripe webhook events
type StripeWebhookService struct {
	verifier    WebhookVerifier
	fulfiller   OrderFulfiller
	memberships MembershipPayments
	logger      *zap.Logger
}

// StripeWebhookServiceConfig contains configuration for StripeWebhookService
type StripeWebhookServiceConfig struct {
	Verifier    WebhookVerifier
	Fulfiller   OrderFulfiller
	Memberships MembershipPayments
	Logger      *zap.Logger
}

// NewStripeWebhookService creates a new StripeWebhookService
func NewStripeWebhookService(cfg StripeWebhookServiceConfig) *StripeWebhookService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StripeWebhookService{
		verifier:    cfg.Verifier,
		fulfiller:   cfg.Fulfiller,
		memberships: cfg.Memberships,
		logger:      logger,
	}
}

// WebhookResult contains the result of processing a webhook
type WebhookResult struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	Processed bool   `json:"processed"`
	Message   string `json:"message,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	// Report is set for storefront checkouts that reached the pipeline
	Report *fulfillment.FulfillmentReport `json:"-"`
}

// ProcessWebhook verifies and handles one delivery. An error is returned
// only when the delivery cannot be verified or decoded. Failures while
// handling a verified event are logged and reported in the result, and the
// delivery is still acknowledged.
func (s *StripeWebhookService) ProcessWebhook(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	event, err := s.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Rejected webhook delivery", zap.Error(err))
		return nil, err
	}

	s.logger.Info("Processing Stripe webhook event",
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type))

	result := &WebhookResult{
		EventID:   event.ID,
		EventType: event.Type,
		Processed: true,
	}

	if !event.IsCheckoutCompleted() {
		s.logger.Debug("Unhandled webhook event type",
			zap.String("event_type", event.Type))
		result.Processed = false
		result.Message = "Event type not handled"
		return result, nil
	}

	session := event.Session
	if session.IsMembershipPayment() {
		err = s.handleMembershipPayment(ctx, session)
	} else {
		err = s.handleStorefrontCheckout(ctx, session, result)
	}

	if err != nil {
		s.logger.Error("Failed to process webhook event",
			zap.String("event_id", event.ID),
			zap.String("event_type", event.Type),
			zap.String("session_id", session.ID),
			zap.Error(err))
		result.Processed = false
		result.Message = err.Error()
	}
	return result, nil
}

func (s *StripeWebhookService) handleMembershipPayment(ctx context.Context, session *payment.CompletedSession) error {
	if s.memberships == nil {
		return fmt.Errorf("membership payments are not configured")
	}
	s.logger.Info("Handling membership payment",
		zap.String("session_id", session.ID),
		zap.String("application_id", session.ApplicationID()))
	return s.memberships.MarkPaid(ctx, session.ApplicationID(), session.PaymentIntentID)
}

func (s *StripeWebhookService) handleStorefrontCheckout(ctx context.Context, session *payment.CompletedSession, result *WebhookResult) error {
	if s.fulfiller == nil {
		return fmt.Errorf("order fulfillment is not configured")
	}
	report, order, err := s.fulfiller.Fulfill(ctx, session)
	result.Report = report
	if err != nil {
		return err
	}
	result.OrderID = order.ID
	return nil
}
