// Package metrics exposes bootstrap and connection measurements through
// Prometheus collectors.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry wraps a Prometheus registry owned by one process.
type Registry struct {
	reg *prometheus.Registry
}

// NewRegistry creates an empty registry. When withRuntime is set the Go
// runtime and process collectors are registered too.
func NewRegistry(withRuntime bool) *Registry {
	r := &Registry{reg: prometheus.NewRegistry()}
	if withRuntime {
		_ = r.Register(collectors.NewGoCollector())
		_ = r.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	return r
}

// Register adds c. Registering the same collector twice is not an error,
// but a different collector with the same descriptors is.
func (r *Registry) Register(c prometheus.Collector) error {
	if err := r.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) && are.ExistingCollector == c {
			return nil
		}
		return err
	}
	return nil
}

// Gatherer returns the underlying gatherer, e.g. for promhttp.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// WriteTextfile writes every metric in the Prometheus text format to path,
// atomically, for node_exporter's textfile collector.
func (r *Registry) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, r.reg)
}
