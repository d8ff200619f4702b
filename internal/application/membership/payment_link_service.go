package membership

import (
	"context"
	"errors"
	"fmt"

	"github.com/storefront/backend/internal/domain/membership"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"go.uber.org/zap"
)

// PaymentLink is a checkout session issued for an application
type PaymentLink struct {
	URL       string
	SessionID string
}

// PaymentLinkService issues checkout sessions for membership applications
type PaymentLinkService struct {
	applications membership.ApplicationRepository
	types        membership.MembershipTypeRepository
	gateway      payment.Gateway
	currency     valueobject.Currency
	successURL   string
	cancelURL    string
	logger       *zap.Logger
}

// PaymentLinkServiceConfig contains configuration for PaymentLinkService
type PaymentLinkServiceConfig struct {
	Applications membership.ApplicationRepository
	Types        membership.MembershipTypeRepository
	Gateway      payment.Gateway
	// Currency is the gateway currency code, e.g. "usd"
	Currency string
	// SuccessURL and CancelURL override the gateway defaults when set
	SuccessURL string
	CancelURL  string
	Logger     *zap.Logger
}

// NewPaymentLinkService creates a new PaymentLinkService
func NewPaymentLinkService(cfg PaymentLinkServiceConfig) *PaymentLinkService {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentLinkService{
		applications: cfg.Applications,
		types:        cfg.Types,
		gateway:      cfg.Gateway,
		currency:     valueobject.ParseCurrency(cfg.Currency),
		successURL:   cfg.SuccessURL,
		cancelURL:    cfg.CancelURL,
		logger:       logger,
	}
}

// IssuePaymentLink creates a one-item checkout session for the application's
// membership type and records the session on the application. Every call
// creates a new session; the previous session id is overwritten.
func (s *PaymentLinkService) IssuePaymentLink(ctx context.Context, applicationID string) (*PaymentLink, error) {
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if err := app.CanIssuePaymentLink(); err != nil {
		return nil, err
	}

	mt, err := s.types.FindByID(ctx, app.MembershipTypeID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("MISSING_REFERENCE", "Linked membership type does not exist")
		}
		return nil, fmt.Errorf("failed to load membership type: %w", err)
	}
	if err := mt.ValidatePrice(); err != nil {
		return nil, err
	}

	price, err := valueobject.NewMoney(mt.Price, s.currency)
	if err != nil {
		return nil, err
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payment.CheckoutSessionInput{
		LineItems: []payment.CheckoutLineItem{{
			Name:       mt.DisplayTitle(),
			UnitAmount: price.MinorUnits(),
			Quantity:   1,
		}},
		CustomerEmail: app.Email,
		SuccessURL:    s.successURL,
		CancelURL:     s.cancelURL,
		Metadata: map[string]string{
			payment.MetadataKind:          payment.KindMembership,
			payment.MetadataApplicationID: app.ID,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create membership checkout session: %w", err)
	}

	if err := s.applications.RecordPaymentSession(ctx, app.ID, session.ID); err != nil {
		return nil, fmt.Errorf("failed to record checkout session %s: %w", session.ID, err)
	}

	s.logger.Info("Membership payment link issued",
		zap.String("application_id", app.ID),
		zap.String("session_id", session.ID),
		zap.Stringer("amount", price))
	return &PaymentLink{URL: session.URL, SessionID: session.ID}, nil
}
