package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/mongo-bootstrap/pkg/component/storage"
)

// DefaultHealthTimeout bounds the ping issued by Health.
const DefaultHealthTimeout = 3 * time.Second

// Health returns a HealthChecker that pings the open pool.
// Implements storage.Client.
func (c *Client) Health() storage.HealthChecker {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), DefaultHealthTimeout)
		defer cancel()
		return c.Ping(ctx)
	}
}

// CheckHealth pings the client and measures latency.
//
// Example usage:
//
//	status := CheckHealth(ctx, client, 5*time.Second)
//	if !status.Healthy {
//	    log.Printf("MongoDB unhealthy: %v", status.Error)
//	}
func CheckHealth(ctx context.Context, client *Client, timeout time.Duration) storage.HealthStatus {
	status := storage.HealthStatus{Name: client.Name()}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	err := client.Ping(ctx)
	status.Latency = time.Since(start)
	if err != nil {
		status.Error = fmt.Errorf("ping failed: %w", err)
		return status
	}

	status.Healthy = true
	return status
}
