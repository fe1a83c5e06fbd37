package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/events"
	"github.com/phrazzld/certify-api/internal/platform/logger"
	"github.com/phrazzld/certify-api/internal/platform/xqueue"
	"github.com/phrazzld/certify-api/internal/store"
)

// Callback paths workers post results to. Joined with the configured
// callback base URL when tasks are submitted.
const (
	CertificateCallbackPath = "/xqueue/update_certificate"
	ExampleCallbackPath     = "/xqueue/update_example_certificate"
)

// Task actions carried in queue submission bodies.
const (
	taskActionCreate = "create"
	taskActionDelete = "delete"
)

// taskBody is the task-specific payload submitted to the queue. The
// correlation key travels only in the envelope header, never here.
type taskBody struct {
	Action      string `json:"action"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	CourseID    string `json:"course_id"`
	Grade       string `json:"grade,omitempty"`
	TemplatePDF string `json:"template_pdf,omitempty"`
}

// GenerateRequest carries the inputs for one certificate generation
// request.
type GenerateRequest struct {
	SubjectID   uuid.UUID
	CourseID    string
	Username    string
	FullName    string
	Grade       string
	Mode        domain.CertificateMode
	Distinction bool
}

// DownloadableStatus is the minimal status view exposed to course pages.
// A record in the error state reports is_generating=true rather than
// surfacing the failure; the platform retries failed runs on its own
// schedule and learners cannot act on the error anyway.
type DownloadableStatus struct {
	IsDownloadable bool   `json:"is_downloadable"`
	IsGenerating   bool   `json:"is_generating"`
	DownloadURL    string `json:"download_url,omitempty"`
}

// CallbackResult is the outcome a worker reported for one task.
type CallbackResult struct {
	DownloadURL string
	ErrorReason string
	IsError     bool
}

// CertificateService orchestrates the certificate lifecycle: it gates
// and enqueues generation requests, answers status reads, and applies
// worker callbacks.
type CertificateService struct {
	repo            CertificateRepository
	gate            GenerationGate
	queue           xqueue.Client
	emitter         events.EventEmitter
	callbackBaseURL string
	logger          *slog.Logger
}

// NewCertificateService creates a CertificateService with the given
// dependencies.
func NewCertificateService(
	repo CertificateRepository,
	gate GenerationGate,
	queue xqueue.Client,
	emitter events.EventEmitter,
	callbackBaseURL string,
	log *slog.Logger,
) *CertificateService {
	if log == nil {
		log = slog.Default()
	}

	return &CertificateService{
		repo:            repo,
		gate:            gate,
		queue:           queue,
		emitter:         emitter,
		callbackBaseURL: strings.TrimSuffix(callbackBaseURL, "/"),
		logger:          log.With(slog.String("component", "certificate_service")),
	}
}

// Generate requests certificate generation for a subject in a course.
// The record is created (or refreshed) first, then the task is handed to
// the queue, and only after the queue accepts it does the status move to
// its in-flight value. A rejected or unreachable queue therefore leaves
// the record's status untouched, so the next request starts clean.
func (s *CertificateService) Generate(ctx context.Context, req GenerateRequest) (*domain.Certificate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	enabled, err := s.gate.IsEnabledForCourse(ctx, req.CourseID)
	if err != nil {
		return nil, NewCertificateServiceError("generate", "failed to check generation gate", err)
	}
	if !enabled {
		log.Info("generation request refused by gate",
			slog.String("course_id", req.CourseID))
		return nil, ErrGenerationDisabled
	}

	cert, err := s.repo.GetBySubjectAndCourse(ctx, req.SubjectID, req.CourseID)
	switch {
	case err == nil:
		// Refresh identity fields so a regenerated artifact carries the
		// subject's current name and grade. Keys stay stable.
		cert.Username = req.Username
		cert.FullName = req.FullName
		cert.Grade = req.Grade
		cert.Mode = req.Mode
		cert.Distinction = req.Distinction
	case store.IsNotFoundError(err):
		cert, err = domain.NewCertificate(req.SubjectID, req.CourseID, req.Username, req.FullName, req.Mode)
		if err != nil {
			return nil, NewCertificateServiceError("generate", "invalid certificate data", err)
		}
		cert.Grade = req.Grade
		cert.Distinction = req.Distinction
		if err := s.repo.Create(ctx, cert); err != nil {
			return nil, NewCertificateServiceError("generate", "failed to create certificate record", err)
		}
	default:
		return nil, NewCertificateServiceError("generate", "failed to load certificate record", err)
	}

	body := taskBody{
		Action:   taskActionCreate,
		Username: cert.Username,
		Name:     cert.FullName,
		CourseID: cert.CourseID,
		Grade:    cert.Grade,
	}

	if err := s.queue.Submit(ctx, cert.Key, s.callbackURL(CertificateCallbackPath), body); err != nil {
		log.Warn("certificate task submission failed",
			slog.String("course_id", cert.CourseID),
			slog.String("error", err.Error()))
		return nil, NewCertificateServiceError("generate", "queue submission failed", err)
	}

	cert.BeginGeneration()
	if err := s.repo.Update(ctx, cert); err != nil {
		return nil, NewCertificateServiceError("generate", "failed to record in-flight status", err)
	}

	log.Info("certificate generation enqueued",
		slog.String("certificate_id", cert.ID.String()),
		slog.String("course_id", cert.CourseID),
		slog.String("status", string(cert.Status)))

	s.emitCertificateEvent(ctx, cert)
	return cert, nil
}

// Delete requests removal of a subject's certificate artifact. Only
// records in a terminal state (downloadable or error) can be deleted;
// the transition check happens before the queue is touched, and the
// deleting status is persisted only after the queue accepts the task.
func (s *CertificateService) Delete(ctx context.Context, subjectID uuid.UUID, courseID string) (*domain.Certificate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cert, err := s.repo.GetBySubjectAndCourse(ctx, subjectID, courseID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, NewCertificateServiceError("delete", "failed to load certificate record", err)
	}

	if err := cert.BeginDeletion(); err != nil {
		return nil, err
	}

	body := taskBody{
		Action:   taskActionDelete,
		Username: cert.Username,
		Name:     cert.FullName,
		CourseID: cert.CourseID,
	}

	if err := s.queue.Submit(ctx, cert.Key, s.callbackURL(CertificateCallbackPath), body); err != nil {
		log.Warn("certificate deletion task submission failed",
			slog.String("course_id", cert.CourseID),
			slog.String("error", err.Error()))
		return nil, NewCertificateServiceError("delete", "queue submission failed", err)
	}

	if err := s.repo.Update(ctx, cert); err != nil {
		return nil, NewCertificateServiceError("delete", "failed to record deleting status", err)
	}

	log.Info("certificate deletion enqueued",
		slog.String("certificate_id", cert.ID.String()),
		slog.String("course_id", cert.CourseID))

	s.emitCertificateEvent(ctx, cert)
	return cert, nil
}

// Status returns the full certificate record for a subject in a course.
// Returns ErrCertificateNotFound if no record exists.
func (s *CertificateService) Status(ctx context.Context, subjectID uuid.UUID, courseID string) (*domain.Certificate, error) {
	cert, err := s.repo.GetBySubjectAndCourse(ctx, subjectID, courseID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrCertificateNotFound
		}
		return nil, NewCertificateServiceError("status", "failed to load certificate record", err)
	}
	return cert, nil
}

// DownloadableStatus returns the minimal status view for a subject in a
// course. A missing record is not an error; it reads as neither
// downloadable nor generating.
func (s *CertificateService) DownloadableStatus(ctx context.Context, subjectID uuid.UUID, courseID string) (DownloadableStatus, error) {
	cert, err := s.repo.GetBySubjectAndCourse(ctx, subjectID, courseID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return DownloadableStatus{}, nil
		}
		return DownloadableStatus{}, NewCertificateServiceError("status", "failed to load certificate record", err)
	}

	status := DownloadableStatus{
		IsDownloadable: cert.Status == domain.CertStatusDownloadable,
		IsGenerating:   cert.Status == domain.CertStatusGenerating || cert.Status == domain.CertStatusError,
	}
	if status.IsDownloadable {
		status.DownloadURL = cert.DownloadURL
	}
	return status, nil
}

// ApplyCallback applies a worker-reported result to the certificate
// addressed by its correlation key. The lookup and update run in one
// transaction with the row locked, so concurrent callbacks for the same
// key serialize and the last write wins. Returns ErrCertificateNotFound
// for unknown keys.
func (s *CertificateService) ApplyCallback(ctx context.Context, key string, result CallbackResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.Certificate
	err := store.RunInTransaction(ctx, s.repo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.repo.WithTx(tx)

		cert, err := txRepo.GetByKeyForUpdate(ctx, key)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrCertificateNotFound
			}
			return err
		}

		if result.IsError {
			cert.ApplyError(result.ErrorReason)
		} else {
			cert.ApplySuccess(result.DownloadURL)
		}

		if err := txRepo.Update(ctx, cert); err != nil {
			return err
		}

		updated = cert
		return nil
	})
	if err != nil {
		return NewCertificateServiceError("apply_callback", "failed to apply worker callback", err)
	}

	log.Info("worker callback applied",
		slog.String("certificate_id", updated.ID.String()),
		slog.String("course_id", updated.CourseID),
		slog.String("status", string(updated.Status)))

	s.emitCertificateEvent(ctx, updated)
	return nil
}

// callbackURL joins the configured base URL with a callback path.
func (s *CertificateService) callbackURL(path string) string {
	return s.callbackBaseURL + path
}

// emitCertificateEvent publishes a status change event. Emission
// failures are logged, never propagated; the record is already persisted.
func (s *CertificateService) emitCertificateEvent(ctx context.Context, cert *domain.Certificate) {
	if s.emitter == nil {
		return
	}

	payload := struct {
		CertificateID string `json:"certificate_id"`
		CourseID      string `json:"course_id"`
		Status        string `json:"status"`
	}{
		CertificateID: cert.ID.String(),
		CourseID:      cert.CourseID,
		Status:        string(cert.Status),
	}

	event, err := events.NewStatusChangeEvent(events.EventTypeCertificateStatus, payload)
	if err != nil {
		s.logger.Error("failed to build certificate status event",
			slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit certificate status event",
			slog.String("error", err.Error()))
	}
}
