package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	billingapp "github.com/storefront/backend/internal/application/billing"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// Maximum webhook payload size (64KB - Stripe webhooks are typically small)
const maxWebhookPayloadSize = 65536

// WebhookProcessor verifies and handles a raw Stripe delivery
type WebhookProcessor interface {
	ProcessWebhook(ctx context.Context, payload []byte, signature string) (*billingapp.WebhookResult, error)
}

// StripeWebhookHandler handles Stripe webhook endpoints
// These endpoints are called by Stripe and do not require authentication
type StripeWebhookHandler struct {
	BaseHandler
	webhookService WebhookProcessor
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(webhookService WebhookProcessor) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		webhookService: webhookService,
	}
}

// StripeWebhookResponse acknowledges a delivery
type StripeWebhookResponse struct {
	Received bool `json:"received"`
}

// HandleStripeWebhook handles POST /webhooks/stripe.
//
// The raw body is read before any binding because the signature covers the
// exact bytes. Signature failures get a 400 text reply so Stripe retries
// nothing it cannot fix; every verified event is acknowledged with 200, even
// when fulfillment failed, because the failure is already logged.
func (h *StripeWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	log := logger.GetGinLogger(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		c.String(http.StatusBadRequest, "Webhook Error: failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		c.String(http.StatusRequestEntityTooLarge, "Webhook Error: payload too large")
		return
	}

	// Fulfillment steps must finish even if Stripe hangs up; request values
	// such as the logger are kept.
	ctx := context.WithoutCancel(c.Request.Context())
	result, err := h.webhookService.ProcessWebhook(ctx, payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Warn("Rejected Stripe webhook", zap.Error(err))
		c.String(http.StatusBadRequest, "Webhook Error: "+err.Error())
		return
	}

	log.Info("Stripe webhook acknowledged",
		zap.String("event_id", result.EventID),
		zap.String("event_type", result.EventType),
		zap.Bool("processed", result.Processed),
		zap.String("order_id", result.OrderID))
	c.JSON(http.StatusOK, StripeWebhookResponse{Received: true})
}
