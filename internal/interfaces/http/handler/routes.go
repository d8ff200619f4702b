package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

// Handlers bundles every API handler for route registration
type Handlers struct {
	Webhook    *StripeWebhookHandler
	Membership *MembershipHandler
	Orders     *OrderHandler
}

// RegisterRoutes mounts the storefront API. Admin routes run behind
// adminAuth; the webhook and application submission are public.
func RegisterRoutes(r *router.Router, h Handlers, adminAuth gin.HandlerFunc) {
	webhooks := router.NewDomainGroup("webhooks", "/webhooks")
	webhooks.POST("/stripe", h.Webhook.HandleStripeWebhook)

	public := router.NewDomainGroup("membership", "/applications")
	public.POST("", h.Membership.SubmitApplication)

	admin := router.NewDomainGroup("admin", "/admin").Use(adminAuth)
	admin.Group("applications", "/applications").
		POST("/:id/payment-link", h.Membership.IssuePaymentLink).
		PATCH("/:id/status", h.Membership.UpdateApplicationStatus)
	admin.Group("orders", "/orders").
		GET("/:id", h.Orders.GetOrder)

	r.Register(webhooks).Register(public).Register(admin)
}
