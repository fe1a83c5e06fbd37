package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/certify-api/internal/api/shared"
	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/service"
)

// GenerateCertificateRequest represents the request body for requesting
// certificate generation.
type GenerateCertificateRequest struct {
	Username    string `json:"username" validate:"required,min=1"`
	FullName    string `json:"full_name" validate:"required,min=1"`
	Grade       string `json:"grade"`
	Mode        string `json:"mode" validate:"required,oneof=honor verified audit"`
	Distinction bool   `json:"distinction"`
}

// CertificateResponse represents the response data for a certificate.
type CertificateResponse struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Username    string    `json:"username"`
	Status      string    `json:"status"`
	Mode        string    `json:"mode"`
	VerifyKey   string    `json:"verify_key"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CertificateGenerator defines the certificate operations the handler
// needs from the service layer.
type CertificateGenerator interface {
	Generate(ctx context.Context, req service.GenerateRequest) (*domain.Certificate, error)
	Delete(ctx context.Context, subjectID uuid.UUID, courseID string) (*domain.Certificate, error)
	DownloadableStatus(ctx context.Context, subjectID uuid.UUID, courseID string) (service.DownloadableStatus, error)
}

// CertificateHandler handles certificate-related HTTP requests.
type CertificateHandler struct {
	certService CertificateGenerator
	validator   *validator.Validate
}

// NewCertificateHandler creates a new CertificateHandler.
func NewCertificateHandler(certService CertificateGenerator) *CertificateHandler {
	return &CertificateHandler{
		certService: certService,
		validator:   validator.New(),
	}
}

// Generate handles POST /api/certificates/{courseID} requests.
// Generation is asynchronous; a 202 means the task reached the queue,
// not that a certificate exists yet.
func (h *CertificateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	subjectID, courseID, ok := subjectAndCourse(w, r)
	if !ok {
		return
	}

	var req GenerateCertificateRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	cert, err := h.certService.Generate(r.Context(), service.GenerateRequest{
		SubjectID:   subjectID,
		CourseID:    courseID,
		Username:    req.Username,
		FullName:    req.FullName,
		Grade:       req.Grade,
		Mode:        domain.CertificateMode(req.Mode),
		Distinction: req.Distinction,
	})
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, certificateToDTOResponse(cert))
}

// Status handles GET /api/certificates/{courseID}/status requests. It
// returns the minimal downloadable-status view; a subject with no record
// gets the zero view, not a 404.
func (h *CertificateHandler) Status(w http.ResponseWriter, r *http.Request) {
	subjectID, courseID, ok := subjectAndCourse(w, r)
	if !ok {
		return
	}

	status, err := h.certService.DownloadableStatus(r.Context(), subjectID, courseID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, status)
}

// Delete handles DELETE /api/certificates/{courseID} requests. Like
// generation, deletion is asynchronous; the artifact disappears when the
// worker confirms.
func (h *CertificateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subjectID, courseID, ok := subjectAndCourse(w, r)
	if !ok {
		return
	}

	cert, err := h.certService.Delete(r.Context(), subjectID, courseID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, certificateToDTOResponse(cert))
}

// subjectAndCourse extracts the authenticated subject ID and the courseID
// path parameter, writing an error response if either is missing.
func subjectAndCourse(w http.ResponseWriter, r *http.Request) (uuid.UUID, string, bool) {
	subjectID, ok := r.Context().Value(shared.SubjectIDContextKey).(uuid.UUID)
	if !ok || subjectID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Subject ID not found or invalid")
		return uuid.Nil, "", false
	}

	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Course ID is required")
		return uuid.Nil, "", false
	}

	return subjectID, courseID, true
}

// certificateToDTOResponse converts a domain.Certificate to a CertificateResponse.
func certificateToDTOResponse(cert *domain.Certificate) CertificateResponse {
	resp := CertificateResponse{
		ID:        cert.ID.String(),
		CourseID:  cert.CourseID,
		Username:  cert.Username,
		Status:    string(cert.Status),
		Mode:      string(cert.Mode),
		VerifyKey: cert.VerifyKey,
		CreatedAt: cert.CreatedAt,
		UpdatedAt: cert.UpdatedAt,
	}
	if cert.Status == domain.CertStatusDownloadable {
		resp.DownloadURL = cert.DownloadURL
	}
	return resp
}
