// Package membership implements the membership application workflow: public
// submission, admin review, payment links and payment completion.
package membership

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/membership"
	"github.com/storefront/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ApplicationService manages the application state machine
type ApplicationService struct {
	applications membership.ApplicationRepository
	types        membership.MembershipTypeRepository
	logger       *zap.Logger
	now          func() time.Time
}

// ApplicationServiceConfig contains configuration for ApplicationService
type ApplicationServiceConfig struct {
	Applications membership.ApplicationRepository
	Types        membership.MembershipTypeRepository
	Logger       *zap.Logger
	// Now defaults to time.Now
	Now func() time.Time
}

// NewApplicationService creates a new ApplicationService
func NewApplicationService(cfg ApplicationServiceConfig) *ApplicationService {
	s := &ApplicationService{
		applications: cfg.Applications,
		types:        cfg.Types,
		logger:       cfg.Logger,
		now:          cfg.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Submit records a new pending application. A referenced membership type
// must exist.
func (s *ApplicationService) Submit(ctx context.Context, input membership.SubmissionInput) (*membership.Application, error) {
	app, err := membership.NewApplication(input, s.now())
	if err != nil {
		return nil, err
	}

	if app.MembershipTypeID != "" && s.types != nil {
		if _, err := s.types.FindByID(ctx, app.MembershipTypeID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("MISSING_REFERENCE", "Membership type does not exist")
			}
			return nil, fmt.Errorf("failed to load membership type: %w", err)
		}
	}

	if err := s.applications.Create(ctx, app); err != nil {
		return nil, err
	}

	s.logger.Info("Membership application submitted",
		zap.String("application_id", app.ID),
		zap.String("membership_type_id", app.MembershipTypeID))
	return app, nil
}

// Get returns a single application
func (s *ApplicationService) Get(ctx context.Context, id string) (*membership.Application, error) {
	return s.applications.FindByID(ctx, id)
}

// UpdateStatus sets the review status. Any status may follow any other;
// rejecting a paid application is allowed and logged for a manual refund.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id, rawStatus string) (*membership.Application, error) {
	status, err := membership.ParseApplicationStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	app, err := s.applications.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := app.Status
	if err := app.SetStatus(status); err != nil {
		return nil, err
	}
	if err := s.applications.UpdateStatus(ctx, id, status); err != nil {
		return nil, err
	}

	s.logger.Info("Membership application status updated",
		zap.String("application_id", id),
		zap.String("from", string(previous)),
		zap.String("to", string(status)))
	if app.NeedsRefund() {
		s.logger.Warn("Paid membership application rejected, refund required",
			zap.String("application_id", id))
	}
	return app, nil
}

// MarkPaid records a completed membership payment whatever the review
// status. A payment for a rejected application is still stored, so the
// reaper keeps it, and logged at error level so staff can refund.
func (s *ApplicationService) MarkPaid(ctx context.Context, applicationID, paymentIntentID string) error {
	app, err := s.applications.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Payment received for unknown membership application",
				zap.String("application_id", applicationID),
				zap.String("payment_intent_id", paymentIntentID))
		}
		return err
	}

	app.MarkPaid(paymentIntentID, s.now())
	if err := s.applications.MarkPaid(ctx, app); err != nil {
		return err
	}

	if app.NeedsRefund() {
		s.logger.Error("Payment received for rejected membership application, refund required",
			zap.String("application_id", applicationID),
			zap.String("payment_intent_id", paymentIntentID))
		return nil
	}

	s.logger.Info("Membership application paid",
		zap.String("application_id", applicationID),
		zap.String("payment_intent_id", paymentIntentID))
	return nil
}
