package utils

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrorUnauthorized   = errors.New("unauthorized")
)

// ValidationError reports malformed caller input. Message is safe to show to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func NewValidationError(field string, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports a uniqueness or concurrent-run collision.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func NewConflictError(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError wraps a failure of a remote collaborator (roster source, object storage).
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return e.Service + " unavailable: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// PersistenceError hides store failures from clients; the cause is kept for logs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "persistence failure during " + e.Op
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// TranslateDBError maps store errors onto the taxonomy. Errors already in the
// taxonomy pass through untouched.
func TranslateDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	var ve *ValidationError
	var ce *ConflictError
	var ue *UpstreamError
	var pe *PersistenceError
	switch {
	case errors.Is(err, ErrorRecordNotFound), errors.Is(err, ErrorUnauthorized), errors.As(err, &ve), errors.As(err, &ce), errors.As(err, &ue), errors.As(err, &pe):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrorRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), isDuplicateKeyMessage(err):
		return NewConflictError("duplicate record during %s", op)
	}
	return NewPersistenceError(op, err)
}

// drivers without gorm error translation still report the constraint by message
func isDuplicateKeyMessage(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry") || strings.Contains(msg, "duplicate key")
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
