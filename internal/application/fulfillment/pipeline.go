package fulfillment

import (
	"context"
	"errors"
	"time"

	"github.com/storefront/backend/internal/domain/commerce"
	"github.com/storefront/backend/internal/infrastructure/mail"
	"github.com/storefront/backend/internal/infrastructure/payment"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Stage names reported in a FulfillmentReport
const (
	StageMaterialize = "materialize"
	StageRender      = "render"
	StagePublish     = "publish"
	StageNotify      = "notify"
	StageCleanup     = "cleanup"
)

// StageStatus is the outcome of one pipeline stage
type StageStatus string

const (
	StageOK      StageStatus = "ok"
	StageFailed  StageStatus = "failed"
	StageSkipped StageStatus = "skipped"
)

// StageResult records what one stage did
type StageResult struct {
	Stage  string
	Status StageStatus
	Err    error
	Detail string
}

// FulfillmentReport lists the stage outcomes of one pipeline run
type FulfillmentReport struct {
	SessionID string
	OrderID   string
	Stages    []StageResult
	Duration  time.Duration
}

// Stage returns the result recorded for name
func (r *FulfillmentReport) Stage(name string) (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Stage == name {
			return s, true
		}
	}
	return StageResult{}, false
}

func (r *FulfillmentReport) record(stage string, status StageStatus, err error, detail string) {
	r.Stages = append(r.Stages, StageResult{Stage: stage, Status: status, Err: err, Detail: detail})
}

func (r *FulfillmentReport) fields() []zap.Field {
	fields := []zap.Field{
		zap.String("session_id", r.SessionID),
		zap.String("order_id", r.OrderID),
		zap.Duration("duration", r.Duration),
	}
	for _, s := range r.Stages {
		fields = append(fields, zap.String(s.Stage, string(s.Status)))
	}
	return fields
}

// Pipeline runs the checkout completion flow: store the order, then render,
// publish and email its receipt, then schedule the local file for deletion.
// Only storing the order can fail the run; later stages are best effort and
// never undo it.
type Pipeline struct {
	materializer *Materializer
	renderer     *ReceiptRenderer
	publisher    *ReceiptPublisher
	dispatcher   *NotificationDispatcher
	reaper       *FileReaper
	tracer       trace.Tracer
	logger       *zap.Logger
}

// PipelineConfig contains the pipeline stages
type PipelineConfig struct {
	Materializer *Materializer
	Renderer     *ReceiptRenderer
	Publisher    *ReceiptPublisher
	Dispatcher   *NotificationDispatcher
	Reaper       *FileReaper
	// Tracer defaults to the global application tracer
	Tracer trace.Tracer
	Logger *zap.Logger
}

// NewPipeline creates a new Pipeline
func NewPipeline(cfg PipelineConfig) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = telemetry.Tracer()
	}
	return &Pipeline{
		materializer: cfg.Materializer,
		renderer:     cfg.Renderer,
		publisher:    cfg.Publisher,
		dispatcher:   cfg.Dispatcher,
		reaper:       cfg.Reaper,
		tracer:       tracer,
		logger:       logger,
	}
}

// Fulfill processes one completed checkout session. The returned error is
// non-nil only when the order could not be created; it wraps
// ErrUpstreamFetch or ErrPersistence.
func (p *Pipeline) Fulfill(ctx context.Context, session *payment.CompletedSession) (*FulfillmentReport, *commerce.Order, error) {
	start := time.Now()
	report := &FulfillmentReport{SessionID: session.ID}
	ctx, span := p.tracer.Start(ctx, "fulfillment.fulfill",
		trace.WithAttributes(attribute.String("stripe.session_id", session.ID)))
	defer span.End()

	var order *commerce.Order
	var err error
	p.traceStage(ctx, report, StageMaterialize, func(ctx context.Context) {
		if order, err = p.materializer.Materialize(ctx, session); err != nil {
			report.record(StageMaterialize, StageFailed, err, "")
			return
		}
		report.OrderID = order.ID
		report.record(StageMaterialize, StageOK, nil, "")
	})
	if err != nil {
		report.Duration = time.Since(start)
		telemetry.RecordError(span, err)
		p.logger.Error("Checkout fulfillment aborted",
			append(report.fields(), zap.Error(err))...)
		return report, nil, err
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	var pdfPath string
	p.traceStage(ctx, report, StageRender, func(ctx context.Context) {
		pdfPath = p.render(ctx, report, order)
	})
	p.traceStage(ctx, report, StagePublish, func(ctx context.Context) {
		p.publish(ctx, report, order, pdfPath)
	})
	p.traceStage(ctx, report, StageNotify, func(ctx context.Context) {
		p.notify(ctx, report, order, pdfPath)
	})
	p.traceStage(ctx, report, StageCleanup, func(context.Context) {
		if pdfPath != "" && p.reaper != nil {
			p.reaper.Schedule(pdfPath)
			report.record(StageCleanup, StageOK, nil, pdfPath)
		} else {
			report.record(StageCleanup, StageSkipped, nil, "no local file")
		}
	})

	report.Duration = time.Since(start)
	p.logger.Info("Checkout fulfillment completed", report.fields()...)
	return report, order, nil
}

// traceStage runs fn in a child span named after the stage and tags the span
// with the status fn recorded
func (p *Pipeline) traceStage(ctx context.Context, report *FulfillmentReport, stage string, fn func(context.Context)) {
	ctx, span := p.tracer.Start(ctx, "fulfillment."+stage)
	defer span.End()
	fn(ctx)
	if r, ok := report.Stage(stage); ok {
		span.SetAttributes(attribute.String("fulfillment.status", string(r.Status)))
		if r.Status == StageFailed {
			telemetry.RecordError(span, r.Err)
		}
	}
}

func (p *Pipeline) render(ctx context.Context, report *FulfillmentReport, order *commerce.Order) string {
	if p.renderer == nil {
		report.record(StageRender, StageSkipped, nil, "renderer not configured")
		return ""
	}
	path, err := p.renderer.Render(ctx, order)
	if err != nil {
		report.record(StageRender, StageFailed, err, "")
		p.logger.Error("Receipt rendering failed",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return ""
	}
	report.record(StageRender, StageOK, nil, path)
	return path
}

func (p *Pipeline) publish(ctx context.Context, report *FulfillmentReport, order *commerce.Order, pdfPath string) {
	if pdfPath == "" || p.publisher == nil {
		report.record(StagePublish, StageSkipped, nil, "no receipt file")
		return
	}
	asset, err := p.publisher.Publish(ctx, order, pdfPath)
	if err != nil {
		report.record(StagePublish, StageFailed, err, "")
		p.logger.Error("Receipt upload failed, order kept without receipt",
			zap.String("order_id", order.ID),
			zap.Error(err))
		return
	}
	report.record(StagePublish, StageOK, nil, asset.ID)
}

func (p *Pipeline) notify(ctx context.Context, report *FulfillmentReport, order *commerce.Order, pdfPath string) {
	if p.dispatcher == nil {
		report.record(StageNotify, StageSkipped, nil, "mailer not configured")
		return
	}
	err := p.dispatcher.Dispatch(ctx, order, pdfPath)
	switch {
	case err == nil:
		report.record(StageNotify, StageOK, nil, order.CustomerEmail)
	case errors.Is(err, ErrNoPurchaserEmail):
		report.record(StageNotify, StageSkipped, nil, "no purchaser email")
		p.logger.Info("Order has no purchaser email, confirmation not sent",
			zap.String("order_id", order.ID))
	case errors.Is(err, mail.ErrMailerDisabled):
		report.record(StageNotify, StageSkipped, err, "mailer disabled")
		p.logger.Warn("SMTP credentials not configured, confirmation not sent",
			zap.String("order_id", order.ID))
	default:
		report.record(StageNotify, StageFailed, err, "")
		p.logger.Error("Order confirmation email failed",
			zap.String("order_id", order.ID),
			zap.Error(err))
	}
}
