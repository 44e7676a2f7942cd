package observability

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "hospital-journey-server"

// Tracer returns the tracer used for journey operations. Spans are dropped
// unless a TracerProvider has been installed globally.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
