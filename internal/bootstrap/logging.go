package bootstrap

import (
	"context"
	"fmt"

	"github.com/kart-io/logger"

	logopts "github.com/kart-io/mongo-bootstrap/pkg/options/logger"
)

// LoggingInitializer handles logging system initialization.
type LoggingInitializer struct {
	opts       *logopts.Options
	appName    string
	appVersion string
	mode       string
}

// NewLoggingInitializer creates a new LoggingInitializer.
func NewLoggingInitializer(opts *logopts.Options, appName, appVersion, mode string) *LoggingInitializer {
	return &LoggingInitializer{
		opts:       opts,
		appName:    appName,
		appVersion: appVersion,
		mode:       mode,
	}
}

// Name returns the name of the initializer.
func (li *LoggingInitializer) Name() string {
	return "logging"
}

// Dependencies returns the names of initializers this one depends on.
// Logging has no dependencies - it should be initialized first.
func (li *LoggingInitializer) Dependencies() []string {
	return nil
}

// Initialize initializes the logging system. A nil option set keeps the
// current global logger.
func (li *LoggingInitializer) Initialize(ctx context.Context) error {
	if li.opts == nil {
		return nil
	}

	li.opts.AddInitialField("service.name", li.appName)
	li.opts.AddInitialField("service.version", li.appVersion)

	if err := li.opts.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Infow("Starting mongo-bootstrap",
		"app", li.appName,
		"version", li.appVersion,
		"mode", li.mode,
	)

	return nil
}

// Shutdown flushes buffered log entries.
func (li *LoggingInitializer) Shutdown(ctx context.Context) error {
	_ = logger.Flush()
	return nil
}
