package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func TestSetup_Disabled(t *testing.T) {
	ctx := context.Background()
	log := zaptest.NewLogger(t)

	p, err := Setup(ctx, config.TelemetryConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:4317",
		ServiceName:       "storefront-test",
	}, log)
	require.NoError(t, err)

	assert.False(t, p.Enabled())
	assert.False(t, p.Logs().Enabled())
	assert.Same(t, log, p.Logs().Bridge(log), "no bridge without an exporter")
	assert.NoError(t, p.Shutdown(ctx))
}

func TestSetup_NilLogger(t *testing.T) {
	p, err := Setup(context.Background(), config.TelemetryConfig{}, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, samplerFor(tt.ratio).Description(), "ratio %v", tt.ratio)
	}
}

func TestRecordError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	tracer := tp.Tracer("test")

	_, ok := tracer.Start(context.Background(), "ok")
	RecordError(ok, nil)
	ok.End()

	_, failed := tracer.Start(context.Background(), "failed")
	RecordError(failed, errors.New("smtp timeout"))
	failed.End()

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, "smtp timeout", spans[1].Status().Description)
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, "exception", spans[1].Events()[0].Name)
}

func TestMinLevelCore(t *testing.T) {
	base := zaptest.NewLogger(t, zaptest.Level(zap.DebugLevel)).Core()
	core := &minLevelCore{Core: base, minLevel: zap.WarnLevel}

	assert.False(t, core.Enabled(zap.InfoLevel))
	assert.True(t, core.Enabled(zap.ErrorLevel))
	with := core.With([]zap.Field{zap.String("k", "v")})
	assert.False(t, with.Enabled(zap.DebugLevel), "level survives With")
}
