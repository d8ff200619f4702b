package handler

import (
	"time"

	"github.com/storefront/backend/internal/domain/membership"
)

// SubmitApplicationRequest is the public membership application form
type SubmitApplicationRequest struct {
	Name             string `json:"name" binding:"required,max=200"`
	Email            string `json:"email" binding:"required,email,max=320"`
	Phone            string `json:"phone" binding:"max=50"`
	Message          string `json:"message" binding:"max=5000"`
	MembershipTypeID string `json:"membership_type_id" binding:"max=64"`
}

// UpdateApplicationStatusRequest changes an application's review status
type UpdateApplicationStatusRequest struct {
	Status string `json:"status" binding:"required,application_status"`
}

// ApplicationResponse is the API view of a membership application
type ApplicationResponse struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	Message          string     `json:"message,omitempty"`
	MembershipTypeID string     `json:"membership_type_id,omitempty"`
	Status           string     `json:"status"`
	Paid             bool       `json:"paid"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	StripeSessionID  *string    `json:"stripe_session_id,omitempty"`
	PaymentIntentID  *string    `json:"payment_intent_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// PaymentLinkResponse is returned when a payment link is issued
type PaymentLinkResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

func toApplicationResponse(app *membership.Application) ApplicationResponse {
	return ApplicationResponse{
		ID:               app.ID,
		Name:             app.Name,
		Email:            app.Email,
		Phone:            app.Phone,
		Message:          app.Message,
		MembershipTypeID: app.MembershipTypeID,
		Status:           app.Status.String(),
		Paid:             app.Paid,
		PaidAt:           app.PaidAt,
		StripeSessionID:  app.StripeSessionID,
		PaymentIntentID:  app.PaymentIntentID,
		CreatedAt:        app.CreatedAt,
	}
}
