package mongodb

import (
	"context"
	"sort"

	"github.com/kart-io/mongo-bootstrap/pkg/component/storage"
)

// Registry shares Clients by identity: opening the same deployment and
// database twice returns the same Client, whatever the pool or retry
// settings of the second call.
type Registry struct {
	manager *storage.Manager
	opts    []Option
}

// NewRegistry returns an empty Registry. opts apply to every Client it
// creates.
func NewRegistry(opts ...Option) *Registry {
	return &Registry{
		manager: storage.NewManager(),
		opts:    opts,
	}
}

// Open returns the Client for raw, creating it on first use. The second
// return value reports whether an existing Client was reused.
func (r *Registry) Open(raw RawOptions, opts ...Option) (*Client, bool, error) {
	all := make([]Option, 0, len(r.opts)+len(opts))
	all = append(all, r.opts...)
	all = append(all, opts...)

	candidate, err := New(raw, all...)
	if err != nil {
		return nil, false, err
	}

	got, existed, err := r.manager.GetOrRegister(candidate.UID(), func() (storage.Client, error) {
		return candidate, nil
	})
	if err != nil {
		return nil, false, err
	}
	return got.(*Client), existed, nil
}

// Get returns the Client registered under uid.
func (r *Registry) Get(uid string) (*Client, error) {
	c, err := r.manager.Get(uid)
	if err != nil {
		return nil, err
	}
	return c.(*Client), nil
}

// List returns the registered identities in sorted order.
func (r *Registry) List() []string {
	uids := r.manager.List()
	sort.Strings(uids)
	return uids
}

// Len returns the number of registered Clients.
func (r *Registry) Len() int {
	return r.manager.Count()
}

// HealthCheckAll pings every registered Client concurrently.
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]storage.HealthStatus {
	return r.manager.HealthCheckAll(ctx)
}

// Close disconnects and removes one Client.
func (r *Registry) Close(ctx context.Context, uid string) error {
	return r.manager.Close(ctx, uid)
}

// CloseAll disconnects every Client. Clients that fail to disconnect stay
// registered.
func (r *Registry) CloseAll(ctx context.Context) error {
	return r.manager.CloseAll(ctx)
}
