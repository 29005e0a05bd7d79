package mongodb

import "time"

// Observer receives lifecycle measurements. Implementations must be safe
// for concurrent use; pkg/observability/metrics provides a Prometheus one.
type Observer interface {
	ObserveConnect(uid string, elapsed time.Duration, err error)
	ObserveStep(uid string, step StepResult)
	ObserveBootstrap(uid string, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveConnect(string, time.Duration, error)   {}
func (nopObserver) ObserveStep(string, StepResult)                {}
func (nopObserver) ObserveBootstrap(string, time.Duration, error) {}
