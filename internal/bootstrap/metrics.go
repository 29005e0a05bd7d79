package bootstrap

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"
	"github.com/kart-io/mongo-bootstrap/pkg/observability/metrics"
	metricsopts "github.com/kart-io/mongo-bootstrap/pkg/options/metrics"
)

// MetricsInitializer creates the Prometheus collectors and writes them to
// the textfile on shutdown.
type MetricsInitializer struct {
	opts     *metricsopts.Options
	registry *metrics.Registry
	metrics  *metrics.Metrics
}

// NewMetricsInitializer creates a new MetricsInitializer.
func NewMetricsInitializer(opts *metricsopts.Options) *MetricsInitializer {
	if opts == nil {
		opts = metricsopts.NewOptions()
	}
	return &MetricsInitializer{opts: opts}
}

// Name returns the name of the initializer.
func (mi *MetricsInitializer) Name() string {
	return "metrics"
}

// Dependencies returns the names of initializers this one depends on.
func (mi *MetricsInitializer) Dependencies() []string {
	return []string{"logging"}
}

// Initialize registers the collectors. They are always recorded; only the
// export depends on the textfile option.
func (mi *MetricsInitializer) Initialize(ctx context.Context) error {
	mi.registry = metrics.NewRegistry(mi.opts.Runtime)
	m, err := metrics.New(mi.opts.Namespace, mi.registry)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}
	mi.metrics = m
	return nil
}

// Observer returns the observer handed to mongodb clients.
func (mi *MetricsInitializer) Observer() mongodb.Observer {
	return mi.metrics
}

// Registry returns the underlying registry.
func (mi *MetricsInitializer) Registry() *metrics.Registry {
	return mi.registry
}

// Shutdown writes the textfile when one is configured.
func (mi *MetricsInitializer) Shutdown(ctx context.Context) error {
	if mi.registry == nil || !mi.opts.Enabled() {
		return nil
	}
	if err := mi.registry.WriteTextfile(mi.opts.Textfile); err != nil {
		logger.Errorw("Failed to write metrics textfile", "path", mi.opts.Textfile, "error", err)
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	logger.Debugw("Metrics written", "path", mi.opts.Textfile)
	return nil
}
