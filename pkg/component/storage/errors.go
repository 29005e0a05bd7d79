package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Registry errors returned by Manager.
var (
	// ErrInvalidClient indicates an empty name or a nil client was passed to Register.
	ErrInvalidClient = NewError("INVALID_CLIENT", "invalid storage client")

	// ErrClientNotFound indicates that no client is registered under the requested name.
	ErrClientNotFound = NewError("CLIENT_NOT_FOUND", "storage client not found")

	// ErrClientAlreadyExists indicates that a client with the same name
	// is already registered in the manager.
	ErrClientAlreadyExists = NewError("CLIENT_ALREADY_EXISTS", "storage client already exists")
)

// StorageError is a coded error shared by the storage components.
//
// Two StorageErrors are considered equal by errors.Is when their codes match,
// so predefined values can be used as sentinels while derived errors carry
// the operation, a specific message, and the underlying cause.
type StorageError struct {
	// Code is a machine-readable error code (e.g., "INVALID_URI").
	Code string

	// Op names the failing operation (e.g., "connect", "bootstrap.createIndex").
	Op string

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error that caused this error, if any.
	Cause error

	// Context contains additional contextual information about the error.
	Context map[string]interface{}
}

// NewError returns a StorageError with the given code and default message.
func NewError(code, message string) *StorageError {
	return &StorageError{Code: code, Message: message}
}

// Error renders "op: [CODE] message: cause", omitting empty parts.
func (e *StorageError) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString("[")
	sb.WriteString(e.Code)
	sb.WriteString("]")
	if e.Message != "" {
		sb.WriteString(" ")
		sb.WriteString(e.Message)
	}
	if e.Cause != nil {
		if e.Message != "" {
			sb.WriteString(":")
		}
		sb.WriteString(" ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a StorageError with the same code.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *StorageError) clone() *StorageError {
	c := *e
	return &c
}

// WithOp returns a copy of the error bound to the given operation.
func (e *StorageError) WithOp(op string) *StorageError {
	c := e.clone()
	c.Op = op
	return c
}

// WithMessage returns a copy of the error with a new message.
//
//	err := storage.ErrClientNotFound.WithMessage("client 'mongodb:1a2b3c4d' not found")
func (e *StorageError) WithMessage(msg string) *StorageError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithMessagef is WithMessage with formatting.
func (e *StorageError) WithMessagef(format string, args ...interface{}) *StorageError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithCause returns a copy of the error wrapping cause.
func (e *StorageError) WithCause(cause error) *StorageError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithContext returns a copy of the error with ctx merged into its context.
func (e *StorageError) WithContext(ctx map[string]interface{}) *StorageError {
	merged := make(map[string]interface{}, len(e.Context)+len(ctx))
	for k, v := range e.Context {
		merged[k] = v
	}
	for k, v := range ctx {
		merged[k] = v
	}
	c := e.clone()
	c.Context = merged
	return c
}

// GetContext retrieves a context value by key.
func (e *StorageError) GetContext(key string) (interface{}, bool) {
	if e.Context == nil {
		return nil, false
	}
	val, ok := e.Context[key]
	return val, ok
}

// IsStorageError checks if an error chain contains a StorageError.
func IsStorageError(err error) bool {
	var storageErr *StorageError
	return errors.As(err, &storageErr)
}

// GetStorageError extracts the first StorageError from an error chain.
func GetStorageError(err error) (*StorageError, bool) {
	var storageErr *StorageError
	if errors.As(err, &storageErr) {
		return storageErr, true
	}
	return nil, false
}
