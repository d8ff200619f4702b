package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"github.com/stripe/stripe-go/v81/webhook"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
	calls   []string
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	m.calls = append(m.calls, method+" "+path)
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

// CallRaw serves list endpoints, which the iterators call with form values
func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	m.calls = append(m.calls, method+" "+path)
	data, err := m.handler(method, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

const testWebhookSecret = "whsec_test_123456789"

// testConfig returns a valid test configuration
func testConfig() *StripeConfig {
	return &StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: testWebhookSecret,
		Currency:      "usd",
		SuccessURL:    "https://shop.example.com/success",
		CancelURL:     "https://shop.example.com/cancel",
	}
}

func newTestGateway(t *testing.T, handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) (*StripeGateway, *mockBackend) {
	t.Helper()
	mock := &mockBackend{handler: handler}
	g, err := NewStripeGateway(testConfig(), WithBackends(&stripe.Backends{API: mock, Connect: mock, Uploads: mock}))
	require.NoError(t, err)
	return g, mock
}

func signedPayload(t *testing.T, body string, secret string) (string, []byte) {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(body),
		Secret:  secret,
	})
	return signed.Header, signed.Payload
}

func lineItemListJSON(n int) []byte {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"id":"li_%d","object":"item","description":"Item %d","quantity":1,"amount_total":100,"price":{"id":"price_%d","unit_amount":100}}`, i, i, i)
	}
	return []byte(`{"object":"list","has_more":false,"url":"/v1/checkout/sessions/cs_123/line_items","data":[` + strings.Join(items, ",") + `]}`)
}

// ============================================================================
// Configuration
// ============================================================================

func TestStripeConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*StripeConfig)
		wantErr string
	}{
		{"valid", func(*StripeConfig) {}, ""},
		{"missing secret key", func(c *StripeConfig) { c.SecretKey = "" }, "secret key is required"},
		{"malformed key", func(c *StripeConfig) { c.SecretKey = "pk_test_1" }, "must start with"},
		{"missing currency", func(c *StripeConfig) { c.Currency = "" }, "currency is required"},
		{"missing urls", func(c *StripeConfig) { c.CancelURL = "" }, "success and cancel URLs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	assert.True(t, testConfig().IsTestMode())
	assert.Equal(t, webhook.DefaultTolerance, testConfig().tolerance())
}

func TestNewStripeGateway_NilConfig(t *testing.T) {
	_, err := NewStripeGateway(nil)
	assert.Error(t, err)
}

// ============================================================================
// CreateCheckoutSession
// ============================================================================

func TestCreateCheckoutSession(t *testing.T) {
	var captured *stripe.CheckoutSessionParams
	g, mock := newTestGateway(t, func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		captured, _ = params.(*stripe.CheckoutSessionParams)
		return []byte(`{"id":"cs_test_abc","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_test_abc"}`), nil
	})

	sess, err := g.CreateCheckoutSession(context.Background(), CheckoutSessionInput{
		LineItems:     []CheckoutLineItem{{Name: "Gold Membership", UnitAmount: 2500, Quantity: 1}},
		CustomerEmail: "ada@example.com",
		Metadata:      map[string]string{MetadataKind: KindMembership, MetadataApplicationID: "app-1"},
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test_abc", sess.ID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test_abc", sess.URL)
	assert.Equal(t, []string{http.MethodPost + " /v1/checkout/sessions"}, mock.calls)

	require.NotNil(t, captured)
	assert.Equal(t, "payment", *captured.Mode)
	assert.Equal(t, "ada@example.com", *captured.CustomerEmail)
	assert.Equal(t, "https://shop.example.com/success", *captured.SuccessURL)
	require.Len(t, captured.LineItems, 1)
	assert.Equal(t, int64(1), *captured.LineItems[0].Quantity)
	assert.Equal(t, int64(2500), *captured.LineItems[0].PriceData.UnitAmount)
	assert.Equal(t, "usd", *captured.LineItems[0].PriceData.Currency)
	assert.Equal(t, "Gold Membership", *captured.LineItems[0].PriceData.ProductData.Name)
	assert.Equal(t, "membership", captured.Metadata[MetadataKind])
	assert.Equal(t, "app-1", captured.Metadata[MetadataApplicationID])
}

func TestCreateCheckoutSession_Errors(t *testing.T) {
	t.Run("requires line items", func(t *testing.T) {
		g, mock := newTestGateway(t, nil)
		_, err := g.CreateCheckoutSession(context.Background(), CheckoutSessionInput{})
		assert.ErrorIs(t, err, ErrNoLineItems)
		assert.Empty(t, mock.calls)
	})

	t.Run("wraps gateway error", func(t *testing.T) {
		g, _ := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return nil, errors.New("card_declined")
		})
		_, err := g.CreateCheckoutSession(context.Background(), CheckoutSessionInput{
			LineItems: []CheckoutLineItem{{Name: "x", UnitAmount: 100}},
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create checkout session")
	})
}

// ============================================================================
// VerifyWebhook
// ============================================================================

const completedEventJSON = `{
  "id": "evt_1",
  "object": "event",
  "type": "checkout.session.completed",
  "api_version": "2024-09-30.acacia",
  "data": {"object": {
    "id": "cs_123",
    "object": "checkout.session",
    "amount_total": 2400,
    "currency": "usd",
    "customer_email": null,
    "customer_details": {"email": "buyer@example.com", "name": "Buyer", "address": {"line1": "1 Billing St", "city": "Porto", "postal_code": "4000", "country": "PT"}},
    "shipping_details": {"name": "Buyer", "address": {"line1": "2 Ship Rd", "city": "Lisbon", "country": "PT"}},
    "payment_intent": "pi_123",
    "metadata": {}
  }}
}`

func TestVerifyWebhook(t *testing.T) {
	g, _ := newTestGateway(t, nil)

	t.Run("decodes completed checkout session", func(t *testing.T) {
		header, payload := signedPayload(t, completedEventJSON, testWebhookSecret)

		event, err := g.VerifyWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
		assert.True(t, event.IsCheckoutCompleted())

		s := event.Session
		require.NotNil(t, s)
		assert.Equal(t, "cs_123", s.ID)
		assert.Equal(t, int64(2400), s.AmountTotal)
		assert.Equal(t, "buyer@example.com", s.CustomerEmail)
		assert.Equal(t, "Buyer", s.CustomerName)
		assert.Equal(t, "pi_123", s.PaymentIntentID)
		require.NotNil(t, s.ShippingAddress)
		assert.Equal(t, Address{Line1: "2 Ship Rd", City: "Lisbon", Country: "PT"}, *s.ShippingAddress)
		require.NotNil(t, s.CustomerAddress)
		assert.Equal(t, "Porto", s.CustomerAddress.City)
		assert.False(t, s.IsMembershipPayment())
	})

	t.Run("other event kinds carry no session", func(t *testing.T) {
		header, payload := signedPayload(t, `{"id":"evt_2","object":"event","type":"invoice.paid","data":{"object":{}}}`, testWebhookSecret)

		event, err := g.VerifyWebhook(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "invoice.paid", event.Type)
		assert.False(t, event.IsCheckoutCompleted())
	})

	t.Run("wrong secret", func(t *testing.T) {
		header, payload := signedPayload(t, completedEventJSON, "whsec_other")
		_, err := g.VerifyWebhook(payload, header)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("tampered body", func(t *testing.T) {
		header, _ := signedPayload(t, completedEventJSON, testWebhookSecret)
		_, err := g.VerifyWebhook([]byte(strings.Replace(completedEventJSON, "2400", "1", 1)), header)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := g.VerifyWebhook([]byte(completedEventJSON), "")
		assert.ErrorIs(t, err, ErrSignatureInvalid)
		assert.ErrorIs(t, err, ErrMissingSignature)
	})

	t.Run("expired timestamp", func(t *testing.T) {
		signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
			Payload:   []byte(completedEventJSON),
			Secret:    testWebhookSecret,
			Timestamp: time.Now().Add(-time.Hour),
		})
		_, err := g.VerifyWebhook(signed.Payload, signed.Header)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
	})

	t.Run("missing secret", func(t *testing.T) {
		cfg := testConfig()
		cfg.WebhookSecret = ""
		noSecret, err := NewStripeGateway(cfg, WithBackends(&stripe.Backends{API: &mockBackend{}}))
		require.NoError(t, err)

		header, payload := signedPayload(t, completedEventJSON, testWebhookSecret)
		_, err = noSecret.VerifyWebhook(payload, header)
		assert.ErrorIs(t, err, ErrSignatureInvalid)
		assert.ErrorIs(t, err, ErrMissingSecret)
	})
}

func TestVerifyWebhook_MembershipMetadata(t *testing.T) {
	g, _ := newTestGateway(t, nil)
	body := `{"id":"evt_3","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_m","object":"checkout.session","amount_total":2500,"payment_intent":{"id":"pi_m","object":"payment_intent"},"metadata":{"kind":"membership","applicationId":"app-9"}}}}`
	header, payload := signedPayload(t, body, testWebhookSecret)

	event, err := g.VerifyWebhook(payload, header)
	require.NoError(t, err)
	require.NotNil(t, event.Session)
	assert.True(t, event.Session.IsMembershipPayment())
	assert.Equal(t, "app-9", event.Session.ApplicationID())
	assert.Equal(t, "pi_m", event.Session.PaymentIntentID)
	assert.Nil(t, event.Session.ShippingAddress)
	assert.Nil(t, event.Session.CustomerAddress)
}

// ============================================================================
// ListSessionLineItems
// ============================================================================

func TestListSessionLineItems(t *testing.T) {
	t.Run("maps line items", func(t *testing.T) {
		g, mock := newTestGateway(t, func(method, path string, _ stripe.ParamsContainer) ([]byte, error) {
			return []byte(`{"object":"list","has_more":false,"url":"/v1/checkout/sessions/cs_123/line_items","data":[
				{"id":"li_1","object":"item","description":"Mug","quantity":2,"amount_total":2400,"price":{"id":"price_1","unit_amount":1200}},
				{"id":"li_2","object":"item","amount_total":500}
			]}`), nil
		})

		items, err := g.ListSessionLineItems(context.Background(), "cs_123", 100)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, SessionLineItem{Description: "Mug", Quantity: 2, AmountTotal: 2400, UnitAmount: 1200}, items[0])
		assert.Equal(t, SessionLineItem{AmountTotal: 500}, items[1])
		require.Len(t, mock.calls, 1)
		assert.Equal(t, http.MethodGet+" /v1/checkout/sessions/cs_123/line_items", mock.calls[0])
	})

	t.Run("truncates to limit", func(t *testing.T) {
		g, _ := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return lineItemListJSON(150), nil
		})

		items, err := g.ListSessionLineItems(context.Background(), "cs_123", 100)
		require.NoError(t, err)
		assert.Len(t, items, 100)
	})

	t.Run("empty session", func(t *testing.T) {
		g, _ := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return lineItemListJSON(0), nil
		})

		items, err := g.ListSessionLineItems(context.Background(), "cs_123", 0)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("gateway failure", func(t *testing.T) {
		g, _ := newTestGateway(t, func(string, string, stripe.ParamsContainer) ([]byte, error) {
			return nil, errors.New("connection reset")
		})

		_, err := g.ListSessionLineItems(context.Background(), "cs_123", 100)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("requires session id", func(t *testing.T) {
		g, _ := newTestGateway(t, nil)
		_, err := g.ListSessionLineItems(context.Background(), "", 100)
		assert.ErrorIs(t, err, ErrMissingSessionID)
	})
}
