package bootstrap

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"
	"github.com/kart-io/mongo-bootstrap/pkg/infra/tracing"
	tracingopts "github.com/kart-io/mongo-bootstrap/pkg/options/tracing"
)

// TracingInitializer installs the tracer provider.
type TracingInitializer struct {
	opts     *tracingopts.Options
	provider *tracing.Provider
}

// NewTracingInitializer creates a new TracingInitializer.
func NewTracingInitializer(opts *tracingopts.Options) *TracingInitializer {
	return &TracingInitializer{opts: opts}
}

// Name returns the name of the initializer.
func (ti *TracingInitializer) Name() string {
	return "tracing"
}

// Dependencies returns the names of initializers this one depends on.
func (ti *TracingInitializer) Dependencies() []string {
	return []string{"logging"}
}

// Initialize creates the tracer provider.
func (ti *TracingInitializer) Initialize(ctx context.Context) error {
	provider, err := tracing.NewProvider(ctx, ti.opts)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	ti.provider = provider

	if provider.Enabled() {
		logger.Infow("Tracing enabled", "exporter", ti.opts.ExporterType, "endpoint", ti.opts.Endpoint)
	}
	return nil
}

// Tracer returns the tracer used by the mongodb component.
func (ti *TracingInitializer) Tracer() trace.Tracer {
	return ti.provider.Tracer(mongodb.TracerName)
}

// Shutdown flushes pending spans.
func (ti *TracingInitializer) Shutdown(ctx context.Context) error {
	if ti.provider == nil {
		return nil
	}
	if err := ti.provider.Shutdown(ctx); err != nil {
		logger.Errorw("Failed to flush spans during shutdown", "error", err)
		return fmt.Errorf("failed to shutdown tracing: %w", err)
	}
	return nil
}
