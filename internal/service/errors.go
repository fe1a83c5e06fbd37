package service

import (
	"errors"
	"fmt"
)

// Common sentinel errors for the certificate services.
var (
	// ErrCertificateNotFound indicates that the certificate does not exist.
	ErrCertificateNotFound = errors.New("certificate not found")

	// ErrExampleCertificateNotFound indicates that no example certificate
	// matches the given correlation key.
	ErrExampleCertificateNotFound = errors.New("example certificate not found")

	// ErrGenerationDisabled indicates that certificate generation is
	// switched off globally or for the course.
	ErrGenerationDisabled = errors.New("certificate generation is disabled for this course")

	// ErrCallbackIncomplete indicates a callback body that carries neither
	// a success nor an error payload.
	ErrCallbackIncomplete = errors.New("callback body contains neither a download URL nor an error")
)

// CertificateServiceError wraps errors from the certificate services with context.
type CertificateServiceError struct {
	// Operation is the operation that failed (e.g., "generate", "apply_callback")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for CertificateServiceError.
func (e *CertificateServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("certificate service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("certificate service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *CertificateServiceError) Unwrap() error {
	return e.Err
}

// NewCertificateServiceError creates a new CertificateServiceError.
// Known sentinel errors pass through unwrapped.
func NewCertificateServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrCertificateNotFound) ||
		errors.Is(err, ErrExampleCertificateNotFound) ||
		errors.Is(err, ErrGenerationDisabled) ||
		errors.Is(err, ErrCallbackIncomplete) {
		return err
	}

	return &CertificateServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
