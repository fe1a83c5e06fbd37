package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/certify-api/internal/api/shared"
	"github.com/phrazzld/certify-api/internal/platform/logger"
	"github.com/phrazzld/certify-api/internal/service"
)

// CallbackApplier applies a worker-reported result to the record
// addressed by its correlation key.
type CallbackApplier interface {
	ApplyCallback(ctx context.Context, key string, result service.CallbackResult) error
}

// AckResponse is the acknowledgment body returned to the worker on every
// callback, success or failure. The worker only inspects return_code;
// content is for its logs.
type AckResponse struct {
	ReturnCode int    `json:"return_code"`
	Content    string `json:"content"`
}

// callbackHeader is the envelope header the worker echoes back.
type callbackHeader struct {
	LMSKey string `json:"lms_key"`
}

// callbackBody is the worker's result payload. The error indicator and
// the success URL are not mutually exclusive at the transport level; the
// handler branches on the error indicator first.
type callbackBody struct {
	URL         *string `json:"url"`
	Error       *string `json:"error"`
	ErrorReason string  `json:"error_reason"`
}

// CallbackHandler handles the worker callback endpoints. Callbacks are
// unauthenticated; the only credential is the unguessable correlation
// key issued at submission time.
type CallbackHandler struct {
	certificates CallbackApplier
	examples     CallbackApplier
	logger       *slog.Logger
}

// NewCallbackHandler creates a new CallbackHandler.
func NewCallbackHandler(certificates, examples CallbackApplier, log *slog.Logger) *CallbackHandler {
	if log == nil {
		log = slog.Default()
	}

	return &CallbackHandler{
		certificates: certificates,
		examples:     examples,
		logger:       log.With(slog.String("component", "callback_handler")),
	}
}

// UpdateCertificate handles POST /xqueue/update_certificate requests.
func (h *CallbackHandler) UpdateCertificate(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.certificates)
}

// UpdateExampleCertificate handles POST /xqueue/update_example_certificate
// requests.
func (h *CallbackHandler) UpdateExampleCertificate(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.examples)
}

// handle runs the shared callback pipeline: parse the two form fields,
// validate them in order, and apply the result. Every exit path writes a
// structured acknowledgment; a worker must never see an unhandled fault.
func (h *CallbackHandler) handle(w http.ResponseWriter, r *http.Request, applier CallbackApplier) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := r.ParseForm(); err != nil {
		writeAck(w, r, http.StatusBadRequest, "invalid form encoding")
		return
	}

	rawHeader := r.PostFormValue("xqueue_header")
	if rawHeader == "" {
		writeAck(w, r, http.StatusBadRequest, "missing xqueue_header field")
		return
	}

	rawBody := r.PostFormValue("xqueue_body")
	if rawBody == "" {
		writeAck(w, r, http.StatusBadRequest, "missing xqueue_body field")
		return
	}

	var header callbackHeader
	if err := json.Unmarshal([]byte(rawHeader), &header); err != nil {
		writeAck(w, r, http.StatusBadRequest, "xqueue_header is not valid JSON")
		return
	}

	var body callbackBody
	if err := json.Unmarshal([]byte(rawBody), &body); err != nil {
		writeAck(w, r, http.StatusBadRequest, "xqueue_body is not valid JSON")
		return
	}

	if header.LMSKey == "" {
		writeAck(w, r, http.StatusBadRequest, "xqueue_header is missing lms_key")
		return
	}

	// The error indicator takes precedence over the success URL.
	var result service.CallbackResult
	switch {
	case body.Error != nil:
		result.IsError = true
		result.ErrorReason = body.ErrorReason
		if result.ErrorReason == "" {
			result.ErrorReason = *body.Error
		}
	case body.URL != nil:
		result.DownloadURL = *body.URL
	default:
		writeAck(w, r, http.StatusBadRequest, "xqueue_body contains neither url nor error")
		return
	}

	if err := applier.ApplyCallback(r.Context(), header.LMSKey, result); err != nil {
		switch {
		case errors.Is(err, service.ErrCertificateNotFound),
			errors.Is(err, service.ErrExampleCertificateNotFound):
			writeAck(w, r, http.StatusNotFound, "unknown lms_key")
		default:
			log.Error("failed to apply worker callback",
				slog.String("error", err.Error()),
				slog.String("path", r.URL.Path))
			writeAck(w, r, http.StatusInternalServerError, "failed to apply callback")
		}
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AckResponse{ReturnCode: 0, Content: ""})
}

// writeAck writes a failure acknowledgment with return_code 1.
func writeAck(w http.ResponseWriter, r *http.Request, status int, content string) {
	shared.RespondWithJSON(w, r, status, AckResponse{ReturnCode: 1, Content: content})
}
