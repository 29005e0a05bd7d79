package bootstrap

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"
	mongoopts "github.com/kart-io/mongo-bootstrap/pkg/options/mongodb"
)

// MongoDBInitializer resolves the connection options and registers the
// Client. It performs no I/O; the Client connects on first use.
type MongoDBInitializer struct {
	opts       *mongoopts.Options
	clientOpts []mongodb.Option
	tracing    *TracingInitializer
	metrics    *MetricsInitializer

	registry *mongodb.Registry
	client   *mongodb.Client
}

// NewMongoDBInitializer creates a new MongoDBInitializer. clientOpts are
// applied after the tracer and observer.
func NewMongoDBInitializer(opts *mongoopts.Options, tracing *TracingInitializer, metrics *MetricsInitializer, clientOpts ...mongodb.Option) *MongoDBInitializer {
	return &MongoDBInitializer{
		opts:       opts,
		clientOpts: clientOpts,
		tracing:    tracing,
		metrics:    metrics,
	}
}

// Name returns the name of the initializer.
func (mi *MongoDBInitializer) Name() string {
	return "mongodb"
}

// Dependencies returns the names of initializers this one depends on.
func (mi *MongoDBInitializer) Dependencies() []string {
	return []string{"logging", "pool", "tracing", "metrics"}
}

// Initialize registers the Client for the configured deployment.
func (mi *MongoDBInitializer) Initialize(ctx context.Context) error {
	opts := []mongodb.Option{mongodb.WithLogger(logger.Global())}
	if mi.tracing != nil {
		opts = append(opts, mongodb.WithTracer(mi.tracing.Tracer()))
	}
	if mi.metrics != nil {
		opts = append(opts, mongodb.WithObserver(mi.metrics.Observer()))
	}
	opts = append(opts, mi.clientOpts...)

	mi.registry = mongodb.NewRegistry(opts...)
	client, _, err := mi.registry.Open(mi.opts.Raw())
	if err != nil {
		return fmt.Errorf("failed to register mongodb client: %w", err)
	}
	mi.client = client

	logger.Infow("MongoDB client registered",
		"uid", client.UID(),
		"db", client.Config().DB,
		"uri", client.ConnectionString(),
	)
	return nil
}

// Client returns the registered Client.
func (mi *MongoDBInitializer) Client() *mongodb.Client {
	return mi.client
}

// Registry returns the client registry.
func (mi *MongoDBInitializer) Registry() *mongodb.Registry {
	return mi.registry
}

// Shutdown closes every registered Client.
func (mi *MongoDBInitializer) Shutdown(ctx context.Context) error {
	if mi.registry == nil {
		return nil
	}
	if err := mi.registry.CloseAll(ctx); err != nil {
		logger.Errorw("Failed to close mongodb clients during shutdown", "error", err)
		return fmt.Errorf("failed to close mongodb clients: %w", err)
	}
	return nil
}
