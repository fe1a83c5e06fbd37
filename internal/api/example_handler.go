package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/certify-api/internal/api/shared"
	"github.com/phrazzld/certify-api/internal/domain"
)

// GenerateExamplesRequest represents the request body for starting an
// example certificate run. Modes defaults to honor when omitted.
type GenerateExamplesRequest struct {
	Modes []string `json:"modes" validate:"omitempty,dive,oneof=honor verified audit"`
}

// ExampleCertificateResponse represents one example certificate in a run.
type ExampleCertificateResponse struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Template    string    `json:"template"`
	Status      string    `json:"status"`
	ErrorReason string    `json:"error_reason,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExampleCertificateRunner defines the example certificate operations
// the handler needs from the service layer.
type ExampleCertificateRunner interface {
	Generate(ctx context.Context, courseID string, modes []domain.CertificateMode) ([]*domain.ExampleCertificate, error)
	Status(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error)
}

// ExampleCertificateHandler handles example certificate HTTP requests.
type ExampleCertificateHandler struct {
	exampleService ExampleCertificateRunner
	validator      *validator.Validate
}

// NewExampleCertificateHandler creates a new ExampleCertificateHandler.
func NewExampleCertificateHandler(exampleService ExampleCertificateRunner) *ExampleCertificateHandler {
	return &ExampleCertificateHandler{
		exampleService: exampleService,
		validator:      validator.New(),
	}
}

// Generate handles POST /api/courses/{courseID}/example-certificates requests.
func (h *ExampleCertificateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Course ID is required")
		return
	}

	var req GenerateExamplesRequest
	// An empty body is a valid request for the default mode set.
	if r.ContentLength > 0 {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
			return
		}
	}

	modes := make([]domain.CertificateMode, 0, len(req.Modes))
	for _, m := range req.Modes {
		modes = append(modes, domain.CertificateMode(m))
	}

	certs, err := h.exampleService.Generate(r.Context(), courseID, modes)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, examplesToDTOResponse(certs))
}

// Status handles GET /api/courses/{courseID}/example-certificates requests.
func (h *ExampleCertificateHandler) Status(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Course ID is required")
		return
	}

	certs, err := h.exampleService.Status(r.Context(), courseID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, examplesToDTOResponse(certs))
}

// examplesToDTOResponse converts example certificates to response DTOs.
func examplesToDTOResponse(certs []*domain.ExampleCertificate) []ExampleCertificateResponse {
	responses := make([]ExampleCertificateResponse, 0, len(certs))
	for _, cert := range certs {
		responses = append(responses, ExampleCertificateResponse{
			ID:          cert.ID.String(),
			Description: cert.Description,
			Template:    cert.Template,
			Status:      string(cert.Status),
			ErrorReason: cert.ErrorReason,
			DownloadURL: cert.DownloadURL,
			CreatedAt:   cert.CreatedAt,
			UpdatedAt:   cert.UpdatedAt,
		})
	}
	return responses
}
