package bootstrap

import (
	"context"
	"time"

	"github.com/kart-io/mongo-bootstrap/pkg/infra/pool"
)

// poolReleaseTimeout is used when the shutdown context has no deadline.
const poolReleaseTimeout = 5 * time.Second

// PoolInitializer starts the worker pool that runs health checks.
type PoolInitializer struct {
	config *pool.Config
}

// NewPoolInitializer creates a new PoolInitializer. A nil config uses
// pool.DefaultConfig.
func NewPoolInitializer(config *pool.Config) *PoolInitializer {
	return &PoolInitializer{config: config}
}

// Name returns the name of the initializer.
func (pi *PoolInitializer) Name() string {
	return "pool"
}

// Dependencies returns the names of initializers this one depends on.
func (pi *PoolInitializer) Dependencies() []string {
	return []string{"logging"}
}

// Initialize creates the global pool.
func (pi *PoolInitializer) Initialize(ctx context.Context) error {
	return pool.InitGlobal(pi.config)
}

// Shutdown releases the global pool.
func (pi *PoolInitializer) Shutdown(ctx context.Context) error {
	timeout := poolReleaseTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left > 0 {
			timeout = left
		}
	}
	return pool.CloseGlobal(timeout)
}
