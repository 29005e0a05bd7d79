package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kart-io/mongo-bootstrap/pkg/infra/pool"
)

// Manager is a concurrent registry of storage clients keyed by name.
// It provides centralized health checking and shutdown.
//
// Example usage:
//
//	mgr := storage.NewManager()
//	mgr.MustRegister(client.Name(), client)
//
//	statuses := mgr.HealthCheckAll(ctx)
//
//	defer mgr.CloseAll(ctx)
type Manager struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// NewManager creates a new storage manager instance.
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]Client),
	}
}

// Register registers a storage client with the given name.
// Returns an error if a client with the same name is already registered.
func (m *Manager) Register(name string, client Client) error {
	if name == "" {
		return ErrInvalidClient.WithOp("storage.register").WithMessage("client name cannot be empty")
	}

	if client == nil {
		return ErrInvalidClient.WithOp("storage.register").WithMessage("client cannot be nil")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; exists {
		return ErrClientAlreadyExists.WithOp("storage.register").WithMessagef("client '%s' is already registered", name)
	}

	m.clients[name] = client
	return nil
}

// MustRegister registers a storage client and panics if registration fails.
func (m *Manager) MustRegister(name string, client Client) {
	if err := m.Register(name, client); err != nil {
		panic(fmt.Sprintf("failed to register storage client: %v", err))
	}
}

// GetOrRegister returns the client registered under name, or registers the
// client built by create. The second return value reports whether an
// existing client was returned. create runs under the registry lock and must
// not touch the manager.
func (m *Manager) GetOrRegister(name string, create func() (Client, error)) (Client, bool, error) {
	if name == "" {
		return nil, false, ErrInvalidClient.WithOp("storage.getOrRegister").WithMessage("client name cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[name]; exists {
		return client, true, nil
	}

	client, err := create()
	if err != nil {
		return nil, false, err
	}
	if client == nil {
		return nil, false, ErrInvalidClient.WithOp("storage.getOrRegister").WithMessage("client cannot be nil")
	}

	m.clients[name] = client
	return client, false, nil
}

// Unregister removes a storage client from the manager.
// It does NOT disconnect the client.
func (m *Manager) Unregister(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[name]; !exists {
		return ErrClientNotFound.WithOp("storage.unregister").WithMessagef("client '%s' not found", name)
	}

	delete(m.clients, name)
	return nil
}

// Get retrieves a storage client by name.
func (m *Manager) Get(name string) (Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	client, exists := m.clients[name]
	if !exists {
		return nil, ErrClientNotFound.WithOp("storage.get").WithMessagef("client '%s' not found", name)
	}

	return client, nil
}

// Has checks if a client with the given name is registered.
func (m *Manager) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.clients[name]
	return exists
}

// List returns the sorted names of all registered clients.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Count returns the number of registered clients.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.clients)
}

// HealthCheck performs a health check on a specific client.
func (m *Manager) HealthCheck(ctx context.Context, name string) HealthStatus {
	client, err := m.Get(name)
	if err != nil {
		return HealthStatus{
			Name:    name,
			Healthy: false,
			Error:   err,
		}
	}

	return check(ctx, name, client)
}

func check(ctx context.Context, name string, client Client) HealthStatus {
	start := time.Now()
	err := client.Ping(ctx)

	return HealthStatus{
		Name:    name,
		Healthy: err == nil,
		Latency: time.Since(start),
		Error:   err,
	}
}

// HealthCheckAll checks every registered client concurrently.
// Checks run on the shared health-check worker pool when one is
// initialized, and on plain goroutines otherwise.
func (m *Manager) HealthCheckAll(ctx context.Context) map[string]HealthStatus {
	m.mu.RLock()
	clients := make(map[string]Client, len(m.clients))
	for name, client := range m.clients {
		clients[name] = client
	}
	m.mu.RUnlock()

	statuses := make(map[string]HealthStatus, len(clients))
	var statusMu sync.Mutex
	var wg sync.WaitGroup

	for name, client := range clients {
		wg.Add(1)
		n, c := name, client
		pool.Go(func() {
			defer wg.Done()

			status := check(ctx, n, c)

			statusMu.Lock()
			statuses[n] = status
			statusMu.Unlock()
		})
	}

	wg.Wait()
	return statuses
}

// AllHealthy reports whether every registered client passes its health check.
func (m *Manager) AllHealthy(ctx context.Context) bool {
	statuses := m.HealthCheckAll(ctx)
	for _, status := range statuses {
		if !status.Healthy {
			return false
		}
	}
	return true
}

// Close disconnects a specific client and removes it from the manager.
// The client stays registered when Disconnect fails.
func (m *Manager) Close(ctx context.Context, name string) error {
	client, err := m.Get(name)
	if err != nil {
		return err
	}

	if closeErr := client.Disconnect(ctx); closeErr != nil {
		return closeErr
	}

	return m.Unregister(name)
}

// CloseAll disconnects all registered clients. Every client is attempted;
// failures are joined. Clients that fail to disconnect stay registered so
// a later call can retry them.
func (m *Manager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error

	for name, client := range m.clients {
		if err := client.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client '%s': %w", name, err))
			continue
		}
		delete(m.clients, name)
	}

	return errors.Join(errs...)
}

// Clear removes all clients from the manager without disconnecting them.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clients = make(map[string]Client)
}
