package membership

import (
	"context"
	"time"
)

// ApplicationRepository defines the interface for persisting applications.
// Updates patch individual fields; concurrent writers are last-write-wins.
type ApplicationRepository interface {
	// Create persists a new application and assigns its ID
	Create(ctx context.Context, app *Application) error

	// FindByID retrieves an application. Returns shared.ErrNotFound when missing.
	FindByID(ctx context.Context, id string) (*Application, error)

	// UpdateStatus patches the review status
	UpdateStatus(ctx context.Context, id string, status ApplicationStatus) error

	// RecordPaymentSession patches the checkout session ID
	RecordPaymentSession(ctx context.Context, id, sessionID string) error

	// MarkPaid patches the paid flag, paid time and payment intent
	MarkPaid(ctx context.Context, app *Application) error

	// FindAbandonedIDs returns IDs of unpaid applications with a payment
	// session that were created before cutoff
	FindAbandonedIDs(ctx context.Context, cutoff time.Time) ([]string, error)

	// Delete removes an application. Deleting a missing application is not an error.
	Delete(ctx context.Context, id string) error
}

// MembershipTypeRepository defines read access to membership types
type MembershipTypeRepository interface {
	// FindByID retrieves a membership type. Returns shared.ErrNotFound when missing.
	FindByID(ctx context.Context, id string) (*MembershipType, error)
}
