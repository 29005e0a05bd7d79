package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/kart-io/logger"

	"github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"
	logopts "github.com/kart-io/mongo-bootstrap/pkg/options/logger"
	metricsopts "github.com/kart-io/mongo-bootstrap/pkg/options/metrics"
	mongoopts "github.com/kart-io/mongo-bootstrap/pkg/options/mongodb"
	tracingopts "github.com/kart-io/mongo-bootstrap/pkg/options/tracing"
)

// AppBootstrapper composes the initializers, runs them in dependency order
// and shuts down the ones that were initialized in reverse.
type AppBootstrapper struct {
	initializers []Initializer

	// Initialized components that need graceful shutdown, in init order.
	shutdowners []Shutdowner

	loggingInit   *LoggingInitializer
	poolInit      *PoolInitializer
	tracingInit   *TracingInitializer
	metricsInit   *MetricsInitializer
	mongodbInit   *MongoDBInitializer
	structureInit *StructureInitializer
}

// BootstrapOptions contains all the configuration needed for bootstrapping.
type BootstrapOptions struct {
	AppName    string
	AppVersion string
	Mode       string

	// StructurePath is the declaration file; empty means no structure.
	StructurePath string

	LogOpts     *logopts.Options
	TracingOpts *tracingopts.Options
	MetricsOpts *metricsopts.Options
	MongoDBOpts *mongoopts.Options

	// ClientOptions are extra options for the mongodb Client, e.g. a driver.
	ClientOptions []mongodb.Option
}

// NewAppBootstrapper creates a new AppBootstrapper with all initializers configured.
func NewAppBootstrapper(opts *BootstrapOptions) *AppBootstrapper {
	b := &AppBootstrapper{}

	b.loggingInit = NewLoggingInitializer(opts.LogOpts, opts.AppName, opts.AppVersion, opts.Mode)
	b.poolInit = NewPoolInitializer(nil)
	b.tracingInit = NewTracingInitializer(opts.TracingOpts)
	b.metricsInit = NewMetricsInitializer(opts.MetricsOpts)
	b.mongodbInit = NewMongoDBInitializer(opts.MongoDBOpts, b.tracingInit, b.metricsInit, opts.ClientOptions...)
	b.structureInit = NewStructureInitializer(opts.StructurePath)

	b.initializers = []Initializer{
		b.loggingInit,
		b.poolInit,
		b.tracingInit,
		b.metricsInit,
		b.structureInit,
		b.mongodbInit,
	}

	return b
}

// Initialize runs all initializers in dependency order. It stops at the
// first failure; components initialized so far are still shut down by
// Shutdown.
func (b *AppBootstrapper) Initialize(ctx context.Context) error {
	ordered, err := ResolveDependencies(b.initializers)
	if err != nil {
		return err
	}

	for _, init := range ordered {
		if err := b.runInitializer(ctx, init); err != nil {
			return err
		}
		if s, ok := init.(Shutdowner); ok {
			b.shutdowners = append(b.shutdowners, s)
		}
	}
	return nil
}

// runInitializer runs a single initializer with logging.
func (b *AppBootstrapper) runInitializer(ctx context.Context, init Initializer) error {
	logger.Debugf("Initializing %s...", init.Name())
	if err := init.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize %s: %w", init.Name(), err)
	}
	return nil
}

// Shutdown gracefully shuts down all components in reverse order.
func (b *AppBootstrapper) Shutdown(ctx context.Context) error {
	var errs []error

	for i := len(b.shutdowners) - 1; i >= 0; i-- {
		if err := b.shutdowners[i].Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	b.shutdowners = nil

	return errors.Join(errs...)
}

// Client returns the registered mongodb Client.
func (b *AppBootstrapper) Client() *mongodb.Client {
	return b.mongodbInit.Client()
}

// Registry returns the mongodb client registry.
func (b *AppBootstrapper) Registry() *mongodb.Registry {
	return b.mongodbInit.Registry()
}

// Structure returns the loaded declaration.
func (b *AppBootstrapper) Structure() []mongodb.CollectionStructure {
	return b.structureInit.Structure()
}

// Metrics returns the metrics initializer.
func (b *AppBootstrapper) Metrics() *MetricsInitializer {
	return b.metricsInit
}
