package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return joinFieldErrors(err.Fields)
		}
		return ""
	}
	return err.Err.Error()
}

// NotFoundError reports a reference to an entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func NewNotFoundError(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func (err NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", err.Entity, err.ID)
}

// ConflictError reports an operation rejected by the current state of an entity:
// paying an installment twice, deleting a record still referenced, ...
type ConflictError struct {
	Entity string
	ID     string
	Reason string
}

func NewConflictError(entity, id, reason string) error {
	return &ConflictError{Entity: entity, ID: id, Reason: reason}
}

func (err ConflictError) Error() string {
	return fmt.Sprintf("%s %q: %s", err.Entity, err.ID, err.Reason)
}

// ConfigurationError reports malformed reminder rules.
type ConfigurationError struct {
	Fields []FieldError
}

func NewConfigurationError(flds ...FieldError) error {
	return &ConfigurationError{Fields: flds}
}

func (err ConfigurationError) Error() string {
	return "invalid configuration: " + joinFieldErrors(err.Fields)
}

// InternalError wraps storage failures.
type InternalError struct {
	Err error
}

func NewInternalError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &InternalError{Err: errors.Wrap(err, msg)}
}

func (err InternalError) Error() string {
	return err.Err.Error()
}

func (err InternalError) Unwrap() error { return err.Err }

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsConflict(err error) bool {
	_, ok := errors.Cause(err).(*ConflictError)
	return ok
}

func joinFieldErrors(flds []FieldError) string {
	parts := make([]string, 0, len(flds))
	for _, f := range flds {
		parts = append(parts, f.Field+": "+f.Error)
	}
	return strings.Join(parts, "; ")
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
