package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"
)

const (
	outcomeSuccess = "success"
	outcomeError   = "error"
)

var _ mongodb.Observer = (*Metrics)(nil)

// Metrics records connect, step and bootstrap measurements. It satisfies
// mongodb.Observer.
type Metrics struct {
	connects          *prometheus.CounterVec
	connectDuration   *prometheus.HistogramVec
	steps             *prometheus.CounterVec
	bootstraps        *prometheus.CounterVec
	bootstrapDuration *prometheus.HistogramVec
}

// New creates the collectors under namespace and registers them with reg.
func New(namespace string, reg *Registry) (*Metrics, error) {
	m := &Metrics{
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mongodb",
			Name:      "connects_total",
			Help:      "Number of connection attempts by outcome.",
		}, []string{"uid", "outcome"}),
		connectDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "mongodb",
			Name:      "connect_duration_seconds",
			Help:      "Time spent opening the pool and pinging the server.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"uid"}),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "steps_total",
			Help:      "Ensured collections and indexes by outcome.",
		}, []string{"uid", "kind", "outcome"}),
		bootstraps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "runs_total",
			Help:      "Number of bootstrap runs by outcome.",
		}, []string{"uid", "outcome"}),
		bootstrapDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "bootstrap",
			Name:      "duration_seconds",
			Help:      "Wall time of a bootstrap run.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"uid"}),
	}

	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.connects, m.connectDuration, m.steps, m.bootstraps, m.bootstrapDuration}
}

// ObserveConnect implements mongodb.Observer.
func (m *Metrics) ObserveConnect(uid string, elapsed time.Duration, err error) {
	m.connects.WithLabelValues(uid, outcome(err)).Inc()
	m.connectDuration.WithLabelValues(uid).Observe(elapsed.Seconds())
}

// ObserveStep implements mongodb.Observer.
func (m *Metrics) ObserveStep(uid string, step mongodb.StepResult) {
	m.steps.WithLabelValues(uid, string(step.Kind), string(step.Outcome)).Inc()
}

// ObserveBootstrap implements mongodb.Observer.
func (m *Metrics) ObserveBootstrap(uid string, elapsed time.Duration, err error) {
	m.bootstraps.WithLabelValues(uid, outcome(err)).Inc()
	m.bootstrapDuration.WithLabelValues(uid).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return outcomeError
	}
	return outcomeSuccess
}
