// Package storage provides the shared client abstraction, coded errors, and
// a concurrent client registry for storage backends.
//
// # Overview
//
// The storage package provides:
//   - Client: the minimal lifecycle surface every backend client exposes
//   - Manager: registry, health checking, and shutdown for many clients
//   - StorageError: coded errors with an operation prefix and a cause chain
//
// # Using the Manager
//
//	mgr := storage.NewManager()
//	mgr.MustRegister(client.Name(), client)
//
//	statuses := mgr.HealthCheckAll(ctx)
//	for name, status := range statuses {
//	    if !status.Healthy {
//	        logger.Warnw("storage client unhealthy", "name", name, "error", status.Error)
//	    }
//	}
//
//	defer mgr.CloseAll(ctx)
//
// # Errors
//
// StorageError values compare by code, so predefined errors work as
// sentinels with errors.Is while derived copies carry details:
//
//	err := storage.ErrClientNotFound.WithOp("registry.get").WithMessagef("client %q not found", name)
//	errors.Is(err, storage.ErrClientNotFound) // true
package storage
