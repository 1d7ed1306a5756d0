// Package errors defines the error kinds shared by the store, the remote
// client and the sync engine.
//
// Four kinds exist:
//   - TransportError: a remote call returned non-2xx or never completed
//   - SerializationError: a remote payload could not be decoded
//   - StorageError: a local persistence operation failed
//   - NotFoundError: an update targeted a local row that does not exist
//
// Each kind matches its sentinel through Is, so callers can write
//
//	if errors.Is(err, errors.ErrTransport) { ... }
//
// or recover the typed value with As.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Re-exported so callers only need this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

var (
	// ErrTransport matches every *TransportError.
	ErrTransport = New("transport error")
	// ErrSerialization matches every *SerializationError.
	ErrSerialization = New("serialization error")
	// ErrStorage matches every *StorageError.
	ErrStorage = New("storage error")
	// ErrNotFound matches every *NotFoundError.
	ErrNotFound = New("not found")
)

// TransportError is returned by the remote client when a request fails to
// complete or the server answers with a non-2xx status.
type TransportError struct {
	Method     string
	Path       string
	StatusCode int    // 0 when no response was received
	Body       string // response body text, if any
	Err        error  // underlying cause for connection failures and timeouts
}

// NewTransportError wraps a connection-level failure.
func NewTransportError(method, path string, err error) *TransportError {
	return &TransportError{Method: method, Path: path, Err: err}
}

// NewStatusError records a non-2xx response.
func NewStatusError(method, path string, status int, body string) *TransportError {
	return &TransportError{Method: method, Path: path, StatusCode: status, Body: body}
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: request failed with status %d %s: %s",
			e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Body)
	}
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// SerializationError is returned when a payload does not have the expected shape.
type SerializationError struct {
	What string // e.g. "tasks", "settings"
	Err  error
}

// NewSerializationError wraps a decode or encode failure for what.
func NewSerializationError(what string, err error) *SerializationError {
	return &SerializationError{What: what, Err: err}
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.What, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }

func (e *SerializationError) Is(target error) bool { return target == ErrSerialization }

// StorageError is returned by the local store for I/O and constraint failures.
type StorageError struct {
	Op  string // e.g. "list tasks", "update session"
	Err error
}

// NewStorageError wraps err with the failing store operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// NotFoundError is returned when a row addressed by id does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

// NewNotFoundError creates a NotFoundError for the given resource and id.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// Is matches ErrNotFound and ErrStorage: a missing row on update is a
// storage failure from the caller's point of view.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound || target == ErrStorage
}

// StatusCode extracts the HTTP status from err, or 0 if err is not a
// TransportError carrying a response.
func StatusCode(err error) int {
	var te *TransportError
	if As(err, &te) {
		return te.StatusCode
	}
	return 0
}
