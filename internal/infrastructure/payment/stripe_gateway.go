package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// Ensure StripeGateway implements Gateway
var _ Gateway = (*StripeGateway)(nil)

// StripeGateway implements Gateway with a per-instance Stripe client, so no
// package-level stripe.Key is ever set.
type StripeGateway struct {
	config *StripeConfig
	api    *client.API
	logger *zap.Logger
}

// StripeGatewayOption configures a StripeGateway
type StripeGatewayOption func(*StripeGateway)

// WithBackends overrides the Stripe HTTP backends (used by tests)
func WithBackends(backends *stripe.Backends) StripeGatewayOption {
	return func(g *StripeGateway) {
		g.api = &client.API{}
		g.api.Init(g.config.SecretKey, backends)
	}
}

// WithLogger sets the gateway logger
func WithLogger(logger *zap.Logger) StripeGatewayOption {
	return func(g *StripeGateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeConfig, opts ...StripeGatewayOption) (*StripeGateway, error) {
	if config == nil {
		return nil, errors.New("stripe: configuration is required")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	g := &StripeGateway{
		config: config,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.api == nil {
		g.api = &client.API{}
		g.api.Init(config.SecretKey, nil)
	}
	return g, nil
}

// CreateCheckoutSession creates a hosted payment-mode checkout session
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error) {
	if len(input.LineItems) == 0 {
		return nil, ErrNoLineItems
	}

	successURL, cancelURL := input.SuccessURL, input.CancelURL
	if successURL == "" {
		successURL = g.config.SuccessURL
	}
	if cancelURL == "" {
		cancelURL = g.config.CancelURL
	}

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
	}
	params.Context = ctx

	for _, item := range input.LineItems {
		quantity := item.Quantity
		if quantity < 1 {
			quantity = 1
		}
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(quantity),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(g.config.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			},
		})
	}
	if input.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(input.CustomerEmail)
	}
	for k, v := range input.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		g.logger.Error("Failed to create Stripe checkout session", zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	g.logger.Info("Created Stripe checkout session",
		zap.String("session_id", sess.ID),
		zap.Int("line_items", len(input.LineItems)))

	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// VerifyWebhook checks the Stripe-Signature header against the configured
// secret and decodes the event. Every verification failure wraps
// ErrSignatureInvalid.
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g.config.WebhookSecret == "" {
		return nil, fmt.Errorf("%w: %w", ErrSignatureInvalid, ErrMissingSecret)
	}
	if signature == "" {
		return nil, fmt.Errorf("%w: %w", ErrSignatureInvalid, ErrMissingSignature)
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.config.WebhookSecret,
		webhook.ConstructEventOptions{
			Tolerance:                g.config.tolerance(),
			IgnoreAPIVersionMismatch: true,
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	if out.Type != EventCheckoutSessionCompleted {
		return out, nil
	}

	session, err := decodeCompletedSession(event)
	if err != nil {
		return nil, err
	}
	out.Session = session
	return out, nil
}

// ListSessionLineItems returns up to limit line items of a session. Items
// beyond the limit are dropped.
func (g *StripeGateway) ListSessionLineItems(ctx context.Context, sessionID string, limit int) ([]SessionLineItem, error) {
	if sessionID == "" {
		return nil, ErrMissingSessionID
	}
	if limit <= 0 || limit > MaxLineItemPage {
		limit = MaxLineItemPage
	}

	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx
	params.Limit = stripe.Int64(int64(limit))

	it := g.api.CheckoutSessions.ListLineItems(params)
	items := make([]SessionLineItem, 0, limit)
	for len(items) < limit && it.Next() {
		li := it.LineItem()
		item := SessionLineItem{
			Description: li.Description,
			Quantity:    li.Quantity,
			AmountTotal: li.AmountTotal,
		}
		if li.Price != nil {
			item.UnitAmount = li.Price.UnitAmount
		}
		items = append(items, item)
	}
	if err := it.Err(); err != nil {
		g.logger.Error("Failed to list Stripe session line items",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to list line items for %s: %w", sessionID, err)
	}

	return items, nil
}

func decodeCompletedSession(event stripe.Event) (*CompletedSession, error) {
	if event.Data == nil {
		return nil, ErrMalformedEvent
	}
	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}

	out := &CompletedSession{
		ID:            cs.ID,
		AmountTotal:   cs.AmountTotal,
		Currency:      string(cs.Currency),
		CustomerEmail: cs.CustomerEmail,
		Metadata:      cs.Metadata,
	}
	if cs.CustomerDetails != nil {
		if cs.CustomerDetails.Email != "" {
			out.CustomerEmail = cs.CustomerDetails.Email
		}
		out.CustomerName = cs.CustomerDetails.Name
		out.CustomerAddress = convertAddress(cs.CustomerDetails.Address)
	}
	if cs.ShippingDetails != nil {
		out.ShippingAddress = convertAddress(cs.ShippingDetails.Address)
		if out.CustomerName == "" {
			out.CustomerName = cs.ShippingDetails.Name
		}
	}
	if cs.PaymentIntent != nil {
		out.PaymentIntentID = cs.PaymentIntent.ID
	}
	if out.Metadata == nil {
		out.Metadata = map[string]string{}
	}
	return out, nil
}

func convertAddress(a *stripe.Address) *Address {
	if a == nil {
		return nil
	}
	return &Address{
		Line1:      a.Line1,
		City:       a.City,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}
