package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Handlers switch on these with errors.Is.
var (
	// ErrValidation indicates malformed or missing input the caller can fix
	ErrValidation = errors.New("validation error")

	// ErrNotFound indicates the referenced entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrForbidden indicates an authenticated caller acting on something it doesn't own
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyLiked indicates the user already has a like on the post
	ErrAlreadyLiked = errors.New("post already liked")

	// ErrUnauthorized indicates a missing or invalid credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrConflict indicates a username or email that is already registered
	ErrConflict = errors.New("conflict")

	// ErrUpload indicates the image store failed to persist an attached image
	ErrUpload = errors.New("upload failed")

	// ErrStorage indicates a backend failure. Reads may be retried; counter
	// mutations must not be retried blindly.
	ErrStorage = errors.New("storage error")
)

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func postNotFound(id uint) error {
	return &NotFoundError{Resource: "post", ID: id}
}

// storageError wraps a backend failure so callers can match both ErrStorage
// and the underlying cause (e.g. context.Canceled).
func storageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
