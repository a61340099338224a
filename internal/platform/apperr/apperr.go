// Package apperr defines the error kinds shared by the clinic domain
// services and their HTTP status mapping. Services return these errors
// verbatim; nothing in the core retries them.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// NotFoundError signals that a referenced entity does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NotFound builds a NotFoundError for the given resource and id.
func NotFound(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// GuardViolation signals that the lifecycle state of a case context forbids
// the requested mutation. The reason is human-readable and safe to surface.
type GuardViolation struct {
	Reason string
}

func (e *GuardViolation) Error() string { return e.Reason }

// Guard builds a GuardViolation with the given reason.
func Guard(reason string) *GuardViolation {
	return &GuardViolation{Reason: reason}
}

// ValidationError signals malformed or insufficient input. Fields lists the
// offending field names.
type ValidationError struct {
	Msg    string
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Msg
	}
	return fmt.Sprintf("%s: %s", e.Msg, strings.Join(e.Fields, ", "))
}

// Invalid builds a ValidationError.
func Invalid(msg string, fields ...string) *ValidationError {
	return &ValidationError{Msg: msg, Fields: fields}
}

// ConflictError signals that the operation would violate a uniqueness or
// single-holder invariant (e.g. a second primary diagnosis).
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// Conflict builds a ConflictError with the given reason.
func Conflict(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

// StorageTimeout signals that the storage layer hit a deadline. The enclosing
// transaction has been rolled back; callers decide whether to resubmit.
type StorageTimeout struct {
	Op  string
	Err error
}

func (e *StorageTimeout) Error() string {
	return fmt.Sprintf("storage timeout during %s: %v", e.Op, e.Err)
}

func (e *StorageTimeout) Unwrap() error { return e.Err }

// StorageError wraps any other infrastructure failure from the storage layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// FromStorage classifies a raw storage error as StorageTimeout or
// StorageError. Domain errors pass through unchanged so services can wrap
// repository calls without masking their own taxonomy.
func FromStorage(op string, err error) error {
	if err == nil {
		return nil
	}
	var nf *NotFoundError
	var gv *GuardViolation
	var ve *ValidationError
	var ce *ConflictError
	if errors.As(err, &nf) || errors.As(err, &gv) || errors.As(err, &ve) || errors.As(err, &ce) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &StorageTimeout{Op: op, Err: err}
	}
	var st *StorageTimeout
	var se *StorageError
	if errors.As(err, &st) || errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// HTTPStatus maps an error to the HTTP status code the API layer uses.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return http.StatusNotFound
	}
	var gv *GuardViolation
	if errors.As(err, &gv) {
		return http.StatusConflict
	}
	var ce *ConflictError
	if errors.As(err, &ce) {
		return http.StatusConflict
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest
	}
	var st *StorageTimeout
	if errors.As(err, &st) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
