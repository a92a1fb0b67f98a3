// Package common - Shared error taxonomy, configuration and logging.
package common

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// ValidationError reports a request that is rejected before any processing
// starts (missing or unnamed upload).
type ValidationError struct {
	// Reason is the message returned to the caller.
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// TransportError reports a failed exchange with the external detection service.
type TransportError struct {
	// Op names the step of the exchange that failed.
	Op string
	// StatusCode is the HTTP status returned by the service, zero when the
	// exchange never produced a response.
	StatusCode int
	// Err is the underlying cause.
	Err error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error { return e.Err }

// Cause returns the underlying cause for github.com/pkg/errors.Cause.
func (e *TransportError) Cause() error { return e.Err }

// ImageProcessingError reports an undecodable image or a malformed prediction.
type ImageProcessingError struct {
	Err error
}

func (e *ImageProcessingError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying cause.
func (e *ImageProcessingError) Unwrap() error { return e.Err }

// Cause returns the underlying cause for github.com/pkg/errors.Cause.
func (e *ImageProcessingError) Cause() error { return e.Err }

// StorageError reports a scratch file that could not be written or read back.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error { return e.Err }

// Cause returns the underlying cause for github.com/pkg/errors.Cause.
func (e *StorageError) Cause() error { return e.Err }

// NewValidationError creates a ValidationError with the given reason.
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}

// NewTransportError wraps err as a TransportError for the given step.
func NewTransportError(op string, status int, err error) error {
	return &TransportError{Op: op, StatusCode: status, Err: err}
}

// NewImageProcessingError wraps err with a message as an ImageProcessingError.
func NewImageProcessingError(err error, format string, args ...any) error {
	return &ImageProcessingError{Err: errors.Wrapf(err, format, args...)}
}

// NewStorageError wraps err as a StorageError.
func NewStorageError(op, path string, err error) error {
	return &StorageError{Op: op, Path: path, Err: err}
}

// StatusCode maps an error to the HTTP status returned to the caller.
//
// Arguments:
//   - err: The error returned by any stage of the upload pipeline.
//
// Returns:
//   - int: 400 for validation failures, 500 for everything else.
func StatusCode(err error) int {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
