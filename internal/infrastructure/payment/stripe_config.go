package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeConfig holds configuration for the Stripe gateway
type StripeConfig struct {
	// SecretKey is the Stripe secret API key (sk_test_xxx or sk_live_xxx)
	SecretKey string

	// WebhookSecret verifies webhook signatures (whsec_xxx). When empty every
	// webhook is rejected.
	WebhookSecret string

	// Currency for membership checkout sessions (e.g. "usd")
	Currency string

	// SuccessURL and CancelURL are the checkout redirect targets
	SuccessURL string
	CancelURL  string

	// WebhookTolerance bounds the age of a signed webhook timestamp
	WebhookTolerance time.Duration
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return ErrMissingSecretKey
	}
	if !strings.HasPrefix(c.SecretKey, "sk_") && !strings.HasPrefix(c.SecretKey, "rk_") {
		return fmt.Errorf("stripe: secret key must start with sk_ or rk_")
	}
	if c.Currency == "" {
		return fmt.Errorf("stripe: currency is required")
	}
	if c.SuccessURL == "" || c.CancelURL == "" {
		return ErrMissingReturnURLs
	}
	return nil
}

// IsTestMode reports whether the key is a test-mode key
func (c *StripeConfig) IsTestMode() bool {
	return strings.Contains(c.SecretKey, "_test_")
}

func (c *StripeConfig) tolerance() time.Duration {
	if c.WebhookTolerance <= 0 {
		return webhook.DefaultTolerance
	}
	return c.WebhookTolerance
}
