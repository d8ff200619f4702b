package membership

import (
	"context"
	"fmt"
	"time"

	"github.com/storefront/backend/internal/domain/membership"
	"go.uber.org/zap"
)

// SweepResult summarizes one abandoned-application sweep
type SweepResult struct {
	Matched int
	Deleted int
	Failed  int
}

// AbandonedApplicationSweeper deletes unpaid applications whose checkout
// was started but never completed
type AbandonedApplicationSweeper struct {
	applications membership.ApplicationRepository
	maxAge       time.Duration
	logger       *zap.Logger
}

// NewAbandonedApplicationSweeper creates a sweeper. maxAge <= 0 uses
// membership.AbandonmentAge.
func NewAbandonedApplicationSweeper(applications membership.ApplicationRepository, maxAge time.Duration, logger *zap.Logger) *AbandonedApplicationSweeper {
	if maxAge <= 0 {
		maxAge = membership.AbandonmentAge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AbandonedApplicationSweeper{applications: applications, maxAge: maxAge, logger: logger}
}

// Sweep deletes every application that was abandoned as of now. Deletions
// run one at a time; a failed deletion is logged and counted and does not
// stop the sweep. Only the query failing returns an error.
func (s *AbandonedApplicationSweeper) Sweep(ctx context.Context, now time.Time) (SweepResult, error) {
	ids, err := s.applications.FindAbandonedIDs(ctx, now.Add(-s.maxAge))
	if err != nil {
		return SweepResult{}, fmt.Errorf("abandoned application query failed: %w", err)
	}

	result := SweepResult{Matched: len(ids)}
	for _, id := range ids {
		if ctx.Err() != nil {
			result.Failed += len(ids) - result.Deleted - result.Failed
			break
		}
		if err := s.applications.Delete(ctx, id); err != nil {
			result.Failed++
			s.logger.Error("Failed to delete abandoned membership application",
				zap.String("application_id", id),
				zap.Error(err))
			continue
		}
		result.Deleted++
		s.logger.Debug("Deleted abandoned membership application", zap.String("application_id", id))
	}
	return result, nil
}
