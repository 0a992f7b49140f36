package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("admin access required")
)

// ValidationError reports a missing or malformed request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an unknown catalog entry or order.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

func newNotFoundError(resource string, id interface{}) error {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// ExternalServiceError wraps a failed call to the payment provider or mail transport.
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error {
	return e.Err
}

// SignatureVerificationError rejects a webhook whose signature or payload could not be trusted.
type SignatureVerificationError struct {
	Err error
}

func (e *SignatureVerificationError) Error() string {
	return fmt.Sprintf("webhook verification failed: %v", e.Err)
}

func (e *SignatureVerificationError) Unwrap() error {
	return e.Err
}
