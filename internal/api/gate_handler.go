package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/certify-api/internal/api/shared"
)

// GenerationSettingRequest represents the request body for toggling the
// generation gate.
type GenerationSettingRequest struct {
	Enabled bool `json:"enabled"`
}

// GenerationSettingResponse represents the current gate state for a course.
type GenerationSettingResponse struct {
	CourseID string `json:"course_id,omitempty"`
	Enabled  bool   `json:"enabled"`
}

// GateManager defines the gate operations the handler needs from the
// service layer.
type GateManager interface {
	IsEnabledForCourse(ctx context.Context, courseID string) (bool, error)
	SetCourseEnabled(ctx context.Context, courseID string, enabled bool) error
	SetGlobalEnabled(ctx context.Context, enabled bool) error
}

// GateHandler handles generation gate HTTP requests.
type GateHandler struct {
	gateService GateManager
}

// NewGateHandler creates a new GateHandler.
func NewGateHandler(gateService GateManager) *GateHandler {
	return &GateHandler{gateService: gateService}
}

// GetCourse handles GET /api/courses/{courseID}/certificate-generation
// requests. The response carries the effective value (global AND course),
// which is what callers actually need to know before requesting
// generation.
func (h *GateHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Course ID is required")
		return
	}

	enabled, err := h.gateService.IsEnabledForCourse(r.Context(), courseID)
	if err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GenerationSettingResponse{
		CourseID: courseID,
		Enabled:  enabled,
	})
}

// PutCourse handles PUT /api/courses/{courseID}/certificate-generation
// requests.
func (h *GateHandler) PutCourse(w http.ResponseWriter, r *http.Request) {
	courseID := chi.URLParam(r, "courseID")
	if courseID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Course ID is required")
		return
	}

	var req GenerationSettingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.gateService.SetCourseEnabled(r.Context(), courseID, req.Enabled); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GenerationSettingResponse{
		CourseID: courseID,
		Enabled:  req.Enabled,
	})
}

// PutGlobal handles PUT /api/certificate-generation requests.
func (h *GateHandler) PutGlobal(w http.ResponseWriter, r *http.Request) {
	var req GenerationSettingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.gateService.SetGlobalEnabled(r.Context(), req.Enabled); err != nil {
		HandleServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GenerationSettingResponse{Enabled: req.Enabled})
}
