package bootstrap

import (
	"context"
	"time"

	"github.com/kart-io/logger"
)

// ShutdownTimeout bounds the flush of spans, metrics and connections.
const ShutdownTimeout = 10 * time.Second

// Run initializes the components, calls fn and shuts everything down,
// also when initialization or fn fails. The first error wins.
func Run(ctx context.Context, opts *BootstrapOptions, fn func(ctx context.Context, b *AppBootstrapper) error) (err error) {
	b := NewAppBootstrapper(opts)

	defer func() {
		// Shutdown must run even if ctx was cancelled by a signal.
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()
		if serr := b.Shutdown(sctx); serr != nil {
			logger.Errorw("Error during shutdown", "error", serr)
			if err == nil {
				err = serr
			}
		}
	}()

	if err := b.Initialize(ctx); err != nil {
		return err
	}

	return fn(ctx, b)
}
