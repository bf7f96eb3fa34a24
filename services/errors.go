package services

import (
	"errors"
	"fmt"
)

// Recoverable outcome errors. Anything else bubbling out of a service is a
// storage failure and is surfaced to the transport layer as-is.
var (
	// ErrNotFound reports an unknown post id or slug.
	ErrNotFound = errors.New("post not found")
	// ErrSlugTaken reports a slug collision on create or update.
	ErrSlugTaken = errors.New("slug already exists")
	// ErrForbidden reports a mutation attempt by a non-owner.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports malformed caller input, such as an unparsable
// date filter or an unknown category.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
