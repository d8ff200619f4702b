package membership

import (
	"net/mail"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// ApplicationStatus represents the review status of an application
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// AbandonmentAge is how long an unpaid application with a payment link is
// kept before the reaper removes it.
const AbandonmentAge = 24 * time.Hour

// String returns the string representation of ApplicationStatus
func (s ApplicationStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is a known application status
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// ParseApplicationStatus validates and converts a raw status value
func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	s := ApplicationStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", shared.NewDomainError("INVALID_INPUT", "Status must be one of pending, approved, rejected")
	}
	return s, nil
}

// Application is a membership application
type Application struct {
	shared.BaseEntity
	Name             string
	Email            string
	Phone            string
	Message          string
	MembershipTypeID string
	Status           ApplicationStatus
	Paid             bool
	PaidAt           *time.Time
	StripeSessionID  *string
	PaymentIntentID  *string
}

// SubmissionInput is the public application form
type SubmissionInput struct {
	Name             string
	Email            string
	Phone            string
	Message          string
	MembershipTypeID string
}

// NewApplication creates a pending, unpaid application with no payment link
func NewApplication(input SubmissionInput, now time.Time) (*Application, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Name is required")
	}
	email := strings.TrimSpace(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "A valid email address is required")
	}

	return &Application{
		BaseEntity:       shared.NewBaseEntity(now),
		Name:             name,
		Email:            email,
		Phone:            strings.TrimSpace(input.Phone),
		Message:          strings.TrimSpace(input.Message),
		MembershipTypeID: strings.TrimSpace(input.MembershipTypeID),
		Status:           StatusPending,
	}, nil
}

// SetStatus changes the review status. Any status may follow any other,
// paid applications included; see NeedsRefund.
func (a *Application) SetStatus(status ApplicationStatus) error {
	if !status.IsValid() {
		return shared.NewDomainError("INVALID_INPUT", "Status must be one of pending, approved, rejected")
	}
	a.Status = status
	return nil
}

// NeedsRefund reports a rejected application that has been paid for. The
// combination is allowed but staff have to refund the charge by hand.
func (a *Application) NeedsRefund() bool {
	return a.Paid && a.Status == StatusRejected
}

// CanIssuePaymentLink checks the application side of payment-link issuance.
// The membership type price is checked separately by MembershipType.ValidatePrice.
func (a *Application) CanIssuePaymentLink() error {
	if a.Status == StatusRejected {
		return shared.NewDomainError("INVALID_STATE", "Cannot issue a payment link for a rejected application")
	}
	if a.MembershipTypeID == "" {
		return shared.NewDomainError("MISSING_REFERENCE", "Application has no membership type")
	}
	return nil
}

// RecordPaymentSession stores the checkout session, overwriting any prior one
func (a *Application) RecordPaymentSession(sessionID string) {
	a.StripeSessionID = &sessionID
}

// HasPaymentSession reports whether a payment link has been issued
func (a *Application) HasPaymentSession() bool {
	return a.StripeSessionID != nil && *a.StripeSessionID != ""
}

// MarkPaid records payment completion whatever the review status. A paid
// application is never abandoned, so the charge stays on record.
func (a *Application) MarkPaid(paymentIntentID string, at time.Time) {
	paidAt := at.UTC()
	a.Paid = true
	a.PaidAt = &paidAt
	if paymentIntentID != "" {
		a.PaymentIntentID = &paymentIntentID
	}
}

// IsAbandoned reports whether the reaper should delete this application:
// unpaid, a payment link was issued, and created more than AbandonmentAge ago.
func (a *Application) IsAbandoned(now time.Time) bool {
	return !a.Paid && a.HasPaymentSession() && a.CreatedAt.Before(AbandonmentCutoff(now))
}

// AbandonmentCutoff returns the creation time before which unpaid
// applications with a payment link are abandoned.
func AbandonmentCutoff(now time.Time) time.Time {
	return now.Add(-AbandonmentAge)
}
