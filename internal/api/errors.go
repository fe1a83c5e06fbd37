package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/certify-api/internal/api/shared"
	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/platform/xqueue"
	"github.com/phrazzld/certify-api/internal/service"
	"github.com/phrazzld/certify-api/internal/service/auth"
	"github.com/phrazzld/certify-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var submitErr *xqueue.SubmitError

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return http.StatusUnauthorized

	// The generation gate is a policy refusal, not an auth failure
	case errors.Is(err, service.ErrGenerationDisabled):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, service.ErrCertificateNotFound),
		errors.Is(err, service.ErrExampleCertificateNotFound),
		errors.Is(err, store.ErrCertificateNotFound),
		errors.Is(err, store.ErrExampleCertificateNotFound):
		return http.StatusNotFound

	// State machine refusals
	case errors.Is(err, domain.ErrInvalidStateTransition):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidCertMode),
		errors.Is(err, domain.ErrInvalidCertStatus),
		errors.Is(err, service.ErrCallbackIncomplete):
		return http.StatusBadRequest

	// The queue refused or was unreachable; nothing was written locally
	case errors.As(err, &submitErr):
		return http.StatusBadGateway

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var submitErr *xqueue.SubmitError

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken):
		return "Invalid token"

	case errors.Is(err, service.ErrGenerationDisabled):
		return "Certificate generation is disabled for this course"

	case errors.Is(err, service.ErrCertificateNotFound),
		errors.Is(err, store.ErrCertificateNotFound):
		return "Certificate not found"

	case errors.Is(err, service.ErrExampleCertificateNotFound),
		errors.Is(err, store.ErrExampleCertificateNotFound):
		return "Example certificate not found"

	case errors.Is(err, domain.ErrInvalidStateTransition):
		return "Certificate is not in a state that allows this operation"

	case errors.Is(err, domain.ErrInvalidCertMode):
		return "Invalid certificate mode"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.As(err, &submitErr):
		return "Certificate queue did not accept the request"

	default:
		return "An unexpected error occurred"
	}
}

// HandleServiceError writes an error response for a service-layer error,
// using the standard status code and safe message mappings.
func HandleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := MapErrorToStatusCode(err)
	RespondWithMappedError(w, r, status, err)
}

// RespondWithMappedError writes the sanitized message for err with the
// given status, logging the underlying error.
func RespondWithMappedError(w http.ResponseWriter, r *http.Request, status int, err error) {
	message := GetSafeErrorMessage(err)
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
