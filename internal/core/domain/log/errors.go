package log

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an entry does not exist or belongs to a
	// different tenant; the two cases are deliberately indistinguishable.
	ErrNotFound = errors.New("log entry not found")

	// ErrInvalidContext is returned when no tenant context is resolved.
	ErrInvalidContext = errors.New("missing tenant context")

	// ErrInvalidRange is returned when start_date is after end_date.
	ErrInvalidRange = errors.New("start_date must not be after end_date")

	// ErrConflictingFilter is returned when severity and min_severity are
	// both set; the engine refuses to pick a precedence.
	ErrConflictingFilter = errors.New("severity and min_severity are mutually exclusive")

	// ErrInvalidPagination is returned for out-of-range page or page_size.
	ErrInvalidPagination = errors.New("page or page_size out of range")

	// ErrExportTooLarge is returned when the matching set exceeds the export
	// cap; callers must narrow the filter.
	ErrExportTooLarge = errors.New("export exceeds maximum record count")

	// ErrInvalidExportFormat is returned for formats other than csv or json.
	ErrInvalidExportFormat = errors.New("unsupported export format")
)

// Validation failure reasons.
const (
	ReasonEmptyField      = "must not be empty"
	ReasonInvalidValue    = "invalid value"
	ReasonPayloadTooLarge = "serialized payload exceeds the maximum size"
)

// ValidationError reports a malformed creation request or filter field.
// The caller must fix the input and resubmit; it is never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps a failure of the underlying store. It is surfaced
// unchanged to the caller; the engine never retries or swallows it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
