package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName names the tracer and meter used by application code
const InstrumentationName = "github.com/storefront/backend"

// Tracer returns the application tracer from the global provider. Tracers
// obtained before Setup forward to the provider it installs.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Meter returns the application meter from the global provider
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// RecordError marks span as failed. A nil err leaves it untouched.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
