package mongodb

import (
	"errors"

	"github.com/kart-io/mongo-bootstrap/pkg/component/storage"
)

// Error kinds. Derived errors keep the code, so errors.Is against these
// values identifies the kind regardless of operation or message.
var (
	// ErrInvalidInput indicates malformed call-time arguments such as an
	// empty options value or an invalid collection name.
	ErrInvalidInput = storage.NewError("INVALID_INPUT", "invalid input")

	// ErrInvalidOptions indicates the merged configuration failed validation.
	ErrInvalidOptions = storage.NewError("INVALID_OPTIONS", "invalid options")

	// ErrInvalidURI indicates a connection URI outside the accepted grammar.
	ErrInvalidURI = storage.NewError("INVALID_URI", "invalid connection uri")

	// ErrMissingDatabase indicates neither the options nor the URI path name a database.
	ErrMissingDatabase = storage.NewError("MISSING_DATABASE", "database name is required")

	// ErrInvalidStructure indicates a structure declaration broke a rule.
	ErrInvalidStructure = storage.NewError("INVALID_STRUCTURE", "invalid structure")

	// ErrConnectionFailure wraps driver errors raised while connecting.
	ErrConnectionFailure = storage.NewError("CONNECTION_FAILURE", "")

	// ErrUnexpectedResult indicates the driver returned a value outside its contract.
	ErrUnexpectedResult = storage.NewError("UNEXPECTED_RESULT", "unexpected driver result")

	// ErrOperationFailure wraps a failed reconciliation or query step.
	ErrOperationFailure = storage.NewError("OPERATION_FAILURE", "")

	// ErrPoolCreationFailed indicates the driver returned no client pool.
	ErrPoolCreationFailed = storage.NewError("POOL_CREATION_FAILED", "driver returned no client")

	// ErrDatabaseHandleFailed indicates the driver returned no database handle.
	ErrDatabaseHandleFailed = storage.NewError("DATABASE_HANDLE_FAILED", "driver returned no database handle")

	// ErrNotConnected is returned by operations that need an open connection.
	ErrNotConnected = storage.NewError("NOT_CONNECTED", "mongodb client is not connected")
)

// IsKind reports whether err carries the same code as kind.
func IsKind(err error, kind *storage.StorageError) bool {
	return errors.Is(err, kind)
}
