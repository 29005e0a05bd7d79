package storage

import (
	"context"
	"encoding/json"
	"time"
)

// Client is the lifecycle surface shared by storage clients.
type Client interface {
	// Name returns a stable identifier for the client.
	Name() string

	// Ping verifies the client can reach its backend.
	Ping(ctx context.Context) error

	// Disconnect releases the client's connections and reports failures.
	Disconnect(ctx context.Context) error

	// Health returns a checker suitable for readiness checks.
	Health() HealthChecker
}

// HealthChecker reports nil when the backend is healthy.
type HealthChecker func() error

// HealthStatus is the outcome of one health check.
type HealthStatus struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Error   error         `json:"-"`
}

// MarshalJSON renders Error as its message under "error".
func (s HealthStatus) MarshalJSON() ([]byte, error) {
	type status HealthStatus
	out := struct {
		status
		Error string `json:"error,omitempty"`
	}{status: status(s)}
	if s.Error != nil {
		out.Error = s.Error.Error()
	}
	return json.Marshal(out)
}
