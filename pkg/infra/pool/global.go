package pool

import (
	"sync"
	"time"

	"github.com/kart-io/logger"
)

const globalName = "health-check"

var (
	global   *Pool
	globalMu sync.RWMutex
)

// InitGlobal creates the process-wide pool used by Go. It is a no-op when
// the pool already exists.
func InitGlobal(config *Config) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global != nil {
		return nil
	}

	p, err := New(globalName, config)
	if err != nil {
		return err
	}
	global = p
	logger.Infow("Global worker pool initialized", "pool", globalName, "capacity", p.Cap())
	return nil
}

// Global returns the process-wide pool, or nil before InitGlobal.
func Global() *Pool {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// CloseGlobal releases the process-wide pool, waiting up to timeout for
// running tasks.
func CloseGlobal(timeout time.Duration) error {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		return nil
	}
	err := global.ReleaseTimeout(timeout)
	global = nil
	return err
}

// Go runs task on the global pool, or on a new goroutine when the pool is
// missing, closed or saturated.
func Go(task func()) {
	if p := Global(); p != nil {
		if err := p.Submit(task); err == nil {
			return
		}
	}
	go task()
}
