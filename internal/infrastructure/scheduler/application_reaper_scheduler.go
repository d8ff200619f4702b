package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	appmembership "github.com/storefront/backend/internal/application/membership"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ApplicationSweeper removes abandoned membership applications
type ApplicationSweeper interface {
	Sweep(ctx context.Context, now time.Time) (appmembership.SweepResult, error)
}

// ApplicationReaperScheduler runs the abandoned application sweep once at
// start and then on a fixed interval
type ApplicationReaperScheduler struct {
	sweeper   ApplicationSweeper
	clock     Clock
	meter     metric.Meter
	metrics   *sweepMetrics
	logger    *zap.Logger
	config    ApplicationReaperSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// ApplicationReaperSchedulerConfig holds configuration for the reaper
type ApplicationReaperSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval between sweeps
	Interval time.Duration

	// SweepTimeout bounds a single sweep. Zero means no limit.
	SweepTimeout time.Duration
}

// DefaultApplicationReaperSchedulerConfig returns default configuration
func DefaultApplicationReaperSchedulerConfig() ApplicationReaperSchedulerConfig {
	return ApplicationReaperSchedulerConfig{
		Enabled:      true,
		Interval:     6 * time.Hour,
		SweepTimeout: 5 * time.Minute,
	}
}

// ReaperOption configures an ApplicationReaperScheduler
type ReaperOption func(*ApplicationReaperScheduler)

// WithClock replaces the wall clock
func WithClock(clock Clock) ReaperOption {
	return func(s *ApplicationReaperScheduler) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithMeter records sweep metrics on meter instead of the global one
func WithMeter(meter metric.Meter) ReaperOption {
	return func(s *ApplicationReaperScheduler) {
		if meter != nil {
			s.meter = meter
		}
	}
}

// sweepMetrics counts sweeps by outcome and the applications they removed
type sweepMetrics struct {
	sweeps   metric.Int64Counter
	deleted  metric.Int64Counter
	duration metric.Float64Histogram
}

func newSweepMetrics(meter metric.Meter) (*sweepMetrics, error) {
	sweeps, err := meter.Int64Counter("membership.reaper.sweeps",
		metric.WithDescription("Abandoned application sweeps by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep counter: %w", err)
	}
	deleted, err := meter.Int64Counter("membership.reaper.deleted",
		metric.WithDescription("Abandoned applications deleted"))
	if err != nil {
		return nil, fmt.Errorf("failed to create deleted counter: %w", err)
	}
	duration, err := meter.Float64Histogram("membership.reaper.sweep.duration",
		metric.WithDescription("Abandoned application sweep duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sweep duration histogram: %w", err)
	}
	return &sweepMetrics{sweeps: sweeps, deleted: deleted, duration: duration}, nil
}

func (m *sweepMetrics) record(ctx context.Context, outcome string, deleted int, elapsed time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.sweeps.Add(ctx, 1, attrs)
	if deleted > 0 {
		m.deleted.Add(ctx, int64(deleted))
	}
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}

// NewApplicationReaperScheduler creates a new reaper scheduler
func NewApplicationReaperScheduler(
	sweeper ApplicationSweeper,
	logger *zap.Logger,
	config ApplicationReaperSchedulerConfig,
	opts ...ReaperOption,
) (*ApplicationReaperScheduler, error) {
	if sweeper == nil {
		return nil, ErrSweeperRequired
	}
	if config.Enabled && config.Interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ApplicationReaperScheduler{
		sweeper: sweeper,
		clock:   RealClock{},
		meter:   telemetry.Meter(),
		logger:  logger,
		config:  config,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics, err := newSweepMetrics(s.meter)
	if err != nil {
		return nil, err
	}
	s.metrics = metrics
	return s, nil
}

// Start launches the sweep loop. The ticker is armed before Start returns.
func (s *ApplicationReaperScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}
	if !s.config.Enabled {
		s.logger.Info("Application reaper is disabled")
		return nil
	}
	s.isRunning = true

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	ticker := s.clock.NewTicker(s.config.Interval)

	s.wg.Add(1)
	go s.run(ctx, ticker)

	s.logger.Info("Application reaper started",
		zap.Duration("interval", s.config.Interval))
	return nil
}

// Stop cancels the loop and waits for an in-flight sweep to return
func (s *ApplicationReaperScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Application reaper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Application reaper stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *ApplicationReaperScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *ApplicationReaperScheduler) run(ctx context.Context, ticker Ticker) {
	defer s.wg.Done()
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Application reaper loop stopping")
			return
		case <-ticker.C():
			s.sweep(ctx)
		}
	}
}

func (s *ApplicationReaperScheduler) sweep(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if s.config.SweepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.SweepTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := s.sweeper.Sweep(ctx, s.clock.Now())
	elapsed := time.Since(start)
	if err != nil {
		s.metrics.record(ctx, "error", result.Deleted, elapsed)
		s.logger.Error("Abandoned application sweep failed", zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.Int("matched", result.Matched),
		zap.Int("deleted", result.Deleted),
		zap.Int("failed", result.Failed),
		zap.Duration("duration", elapsed),
	}
	if result.Failed > 0 {
		s.metrics.record(ctx, "partial", result.Deleted, elapsed)
		s.logger.Warn("Abandoned application sweep completed with failures", fields...)
		return
	}
	s.metrics.record(ctx, "ok", result.Deleted, elapsed)
	s.logger.Info("Abandoned application sweep completed", fields...)
}
