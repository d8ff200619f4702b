// Package payment integrates the storefront with its payment gateway.
package payment

import (
	"context"
	"errors"
)

// EventCheckoutSessionCompleted is the only event kind the storefront acts on
const EventCheckoutSessionCompleted = "checkout.session.completed"

// MaxLineItemPage is the largest page the gateway returns for session line items
const MaxLineItemPage = 100

// Metadata keys attached to membership checkout sessions
const (
	MetadataKind          = "kind"
	MetadataApplicationID = "applicationId"
	KindMembership        = "membership"
)

// Errors returned by gateway implementations
var (
	ErrSignatureInvalid  = errors.New("stripe: webhook signature verification failed")
	ErrMissingSignature  = errors.New("stripe: missing Stripe-Signature header")
	ErrMissingSecret     = errors.New("stripe: webhook secret is not configured")
	ErrMissingSessionID  = errors.New("stripe: session id is required")
	ErrNoLineItems       = errors.New("stripe: checkout session requires at least one line item")
	ErrMalformedEvent    = errors.New("stripe: event payload could not be decoded")
	ErrMissingSecretKey  = errors.New("stripe: secret key is required")
	ErrMissingReturnURLs = errors.New("stripe: success and cancel URLs are required")
)

// Gateway is the payment gateway used by the fulfillment and membership flows
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, input CheckoutSessionInput) (*CheckoutSession, error)
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
	ListSessionLineItems(ctx context.Context, sessionID string, limit int) ([]SessionLineItem, error)
}

// CheckoutLineItem is one priced line on a new checkout session
type CheckoutLineItem struct {
	Name       string
	UnitAmount int64 // minor units
	Quantity   int64
}

// CheckoutSessionInput describes a checkout session to create
type CheckoutSessionInput struct {
	LineItems     []CheckoutLineItem
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// CheckoutSession is a created checkout session
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionLineItem is a purchased line of a completed session.
// Amounts are in minor units; zero values mean the gateway omitted them.
type SessionLineItem struct {
	Description string
	Quantity    int64
	AmountTotal int64
	UnitAmount  int64
}

// Address is a postal address as reported by the gateway. Absent fields are "".
type Address struct {
	Line1      string
	City       string
	PostalCode string
	Country    string
}

// CompletedSession is the checkout session carried by a completed event
type CompletedSession struct {
	ID              string
	AmountTotal     int64
	Currency        string
	CustomerEmail   string
	CustomerName    string
	PaymentIntentID string
	// ShippingAddress is nil when the session collected no shipping details
	ShippingAddress *Address
	// CustomerAddress is nil when the session carries no customer address
	CustomerAddress *Address
	Metadata        map[string]string
}

// IsMembershipPayment reports whether the session paid for a membership
// application rather than storefront goods.
func (s *CompletedSession) IsMembershipPayment() bool {
	return s.Metadata[MetadataKind] == KindMembership && s.Metadata[MetadataApplicationID] != ""
}

// ApplicationID returns the membership application the session paid for
func (s *CompletedSession) ApplicationID() string {
	return s.Metadata[MetadataApplicationID]
}

// WebhookEvent is a verified gateway event
type WebhookEvent struct {
	ID   string
	Type string
	// Session is set for checkout.session.completed events
	Session *CompletedSession
}

// IsCheckoutCompleted reports whether the event completes a checkout
func (e *WebhookEvent) IsCheckoutCompleted() bool {
	return e.Type == EventCheckoutSessionCompleted && e.Session != nil
}
