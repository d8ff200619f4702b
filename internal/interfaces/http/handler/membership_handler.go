package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	appmembership "github.com/storefront/backend/internal/application/membership"
	"github.com/storefront/backend/internal/domain/membership"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// ApplicationWorkflow is the application-review use case surface
type ApplicationWorkflow interface {
	Submit(ctx context.Context, input membership.SubmissionInput) (*membership.Application, error)
	UpdateStatus(ctx context.Context, id, rawStatus string) (*membership.Application, error)
}

// PaymentLinkIssuer issues hosted checkout links for approved applications
type PaymentLinkIssuer interface {
	IssuePaymentLink(ctx context.Context, applicationID string) (*appmembership.PaymentLink, error)
}

// MembershipHandler serves membership application endpoints
type MembershipHandler struct {
	BaseHandler
	applications ApplicationWorkflow
	paymentLinks PaymentLinkIssuer
}

// NewMembershipHandler creates a new MembershipHandler
func NewMembershipHandler(applications ApplicationWorkflow, paymentLinks PaymentLinkIssuer) *MembershipHandler {
	return &MembershipHandler{
		applications: applications,
		paymentLinks: paymentLinks,
	}
}

// SubmitApplication handles POST /applications
func (h *MembershipHandler) SubmitApplication(c *gin.Context) {
	var req SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	app, err := h.applications.Submit(c.Request.Context(), membership.SubmissionInput{
		Name:             req.Name,
		Email:            req.Email,
		Phone:            req.Phone,
		Message:          req.Message,
		MembershipTypeID: req.MembershipTypeID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toApplicationResponse(app))
}

// IssuePaymentLink handles POST /admin/applications/:id/payment-link.
// The body is the bare {url, session_id} pair.
func (h *MembershipHandler) IssuePaymentLink(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}

	link, err := h.paymentLinks.IssuePaymentLink(c.Request.Context(), uri.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, PaymentLinkResponse{URL: link.URL, SessionID: link.SessionID})
}

// UpdateApplicationStatus handles PATCH /admin/applications/:id/status
func (h *MembershipHandler) UpdateApplicationStatus(c *gin.Context) {
	var uri dto.IDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindError(c, err)
		return
	}
	var req UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	app, err := h.applications.UpdateStatus(c.Request.Context(), uri.ID, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toApplicationResponse(app))
}
