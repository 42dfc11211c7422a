package apperr

import (
	"errors"
	"fmt"
)

// Sentinel errors for the service layer. Handlers map them to HTTP statuses.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrAuth         = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrMediaMissing = errors.New("image is required")
	ErrConflict     = errors.New("conflict")
)

// fieldsError attaches per-field detail to a sentinel.
type fieldsError struct {
	err    error
	fields map[string]string
}

func (e *fieldsError) Error() string {
	return fmt.Sprintf("%v: %v", e.err, e.fields)
}

func (e *fieldsError) Unwrap() error { return e.err }

func WithFields(err error, fields map[string]string) error {
	return &fieldsError{err: err, fields: fields}
}

func Field(err error, field, reason string) error {
	return WithFields(err, map[string]string{field: reason})
}

// FieldsOf returns the field detail carried by err, or nil.
func FieldsOf(err error) map[string]string {
	var fe *fieldsError
	if errors.As(err, &fe) {
		return fe.fields
	}
	return nil
}
