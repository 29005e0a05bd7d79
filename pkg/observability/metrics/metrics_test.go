package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/mongo-bootstrap/pkg/component/mongodb"
)

const uid = "mongodb:4878374e"

func newTestMetrics(t *testing.T) (*Metrics, *Registry) {
	t.Helper()
	reg := NewRegistry(false)
	m, err := New("mongo_bootstrap", reg)
	require.NoError(t, err)
	return m, reg
}

func TestObserveConnect(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveConnect(uid, 20*time.Millisecond, nil)
	m.ObserveConnect(uid, time.Second, errors.New("refused"))
	m.ObserveConnect(uid, time.Second, errors.New("refused"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.connects.WithLabelValues(uid, "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.connects.WithLabelValues(uid, "error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.connectDuration))
}

func TestObserveStep(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveStep(uid, mongodb.StepResult{Kind: mongodb.StepCollection, Collection: "users", Outcome: mongodb.OutcomeCreated})
	m.ObserveStep(uid, mongodb.StepResult{Kind: mongodb.StepIndex, Collection: "users", Index: "a", Outcome: mongodb.OutcomeCreated})
	m.ObserveStep(uid, mongodb.StepResult{Kind: mongodb.StepIndex, Collection: "users", Index: "b", Outcome: mongodb.OutcomeFailed})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues(uid, "collection", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues(uid, "index", "created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.steps.WithLabelValues(uid, "index", "failed")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.steps))
}

func TestObserveBootstrap(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.ObserveBootstrap(uid, 2*time.Second, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.bootstraps.WithLabelValues(uid, "success")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.bootstraps.WithLabelValues(uid, "error")))
}

func TestNew_RegistersOnce(t *testing.T) {
	reg := NewRegistry(true)

	_, err := New("mongo_bootstrap", reg)
	require.NoError(t, err)

	// A second set with the same descriptors but different collectors
	// conflicts with the first.
	_, err = New("mongo_bootstrap", reg)
	assert.Error(t, err)

	m, err := New("other", reg)
	require.NoError(t, err)
	for _, c := range m.collectors() {
		assert.NoError(t, reg.Register(c), "re-registering the same collector is tolerated")
	}
}

func TestWriteTextfile(t *testing.T) {
	m, reg := newTestMetrics(t)
	m.ObserveBootstrap(uid, time.Second, nil)

	path := filepath.Join(t.TempDir(), "mongo_bootstrap.prom")
	require.NoError(t, reg.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `mongo_bootstrap_bootstrap_runs_total{outcome="success",uid="mongodb:4878374e"} 1`)
}
