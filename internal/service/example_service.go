package service

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/events"
	"github.com/phrazzld/certify-api/internal/platform/logger"
	"github.com/phrazzld/certify-api/internal/platform/xqueue"
	"github.com/phrazzld/certify-api/internal/store"
)

// ExampleCertificateService orchestrates dry-run certificate generation:
// one example certificate per enrollment mode, submitted to the same
// worker queue real certificates use, so course teams can verify their
// templates before opening generation to learners.
type ExampleCertificateService struct {
	repo            ExampleCertificateRepository
	queue           xqueue.Client
	emitter         events.EventEmitter
	callbackBaseURL string
	logger          *slog.Logger
}

// NewExampleCertificateService creates an ExampleCertificateService with
// the given dependencies.
func NewExampleCertificateService(
	repo ExampleCertificateRepository,
	queue xqueue.Client,
	emitter events.EventEmitter,
	callbackBaseURL string,
	log *slog.Logger,
) *ExampleCertificateService {
	if log == nil {
		log = slog.Default()
	}

	return &ExampleCertificateService{
		repo:            repo,
		queue:           queue,
		emitter:         emitter,
		callbackBaseURL: strings.TrimSuffix(callbackBaseURL, "/"),
		logger:          log.With(slog.String("component", "example_certificate_service")),
	}
}

// Generate starts a new example certificate run for a course: a fresh
// set, one certificate per mode, each submitted to the queue
// independently. A submission failure marks that certificate as errored
// with the failure reason and does not stop the remaining modes; example
// runs are not gated, since their whole point is testing templates
// before generation opens.
func (s *ExampleCertificateService) Generate(ctx context.Context, courseID string, modes []domain.CertificateMode) ([]*domain.ExampleCertificate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(modes) == 0 {
		modes = []domain.CertificateMode{domain.ModeHonor}
	}

	set, err := domain.NewExampleCertificateSet(courseID)
	if err != nil {
		return nil, NewCertificateServiceError("generate_examples", "invalid example set data", err)
	}

	if err := s.repo.CreateSet(ctx, set); err != nil {
		return nil, NewCertificateServiceError("generate_examples", "failed to create example set", err)
	}

	certs := make([]*domain.ExampleCertificate, 0, len(modes))
	for _, mode := range modes {
		cert, err := domain.NewExampleCertificate(set.ID, courseID, mode)
		if err != nil {
			return nil, NewCertificateServiceError("generate_examples", "invalid example certificate data", err)
		}

		if err := s.repo.CreateCertificate(ctx, cert); err != nil {
			return nil, NewCertificateServiceError("generate_examples", "failed to create example certificate", err)
		}

		body := taskBody{
			Action:      taskActionCreate,
			Username:    cert.Username,
			Name:        cert.FullName,
			CourseID:    courseID,
			TemplatePDF: cert.Template,
		}

		if err := s.queue.Submit(ctx, cert.Key, s.callbackBaseURL+ExampleCallbackPath, body); err != nil {
			log.Warn("example certificate task submission failed",
				slog.String("course_id", courseID),
				slog.String("mode", string(mode)),
				slog.String("error", err.Error()))

			// The failure is recorded on the certificate itself; the rest
			// of the set still gets submitted.
			if uerr := cert.UpdateStatus(domain.ExampleStatusError, err.Error(), ""); uerr == nil {
				if uerr := s.repo.Update(ctx, cert); uerr != nil {
					log.Error("failed to record example submission failure",
						slog.String("course_id", courseID),
						slog.String("error", uerr.Error()))
				}
			}
		} else {
			log.Info("example certificate enqueued",
				slog.String("course_id", courseID),
				slog.String("mode", string(mode)))
		}

		certs = append(certs, cert)
	}

	return certs, nil
}

// Status returns the certificates of the most recent example run for a
// course, newest first. A course with no runs yields an empty list, not
// an error.
func (s *ExampleCertificateService) Status(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error) {
	certs, err := s.repo.LatestSetCertificates(ctx, courseID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return []*domain.ExampleCertificate{}, nil
		}
		return nil, NewCertificateServiceError("example_status", "failed to load example certificates", err)
	}
	return certs, nil
}

// ApplyCallback applies a worker-reported result to the example
// certificate addressed by its correlation key. Returns
// ErrExampleCertificateNotFound for unknown keys.
func (s *ExampleCertificateService) ApplyCallback(ctx context.Context, key string, result CallbackResult) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var updated *domain.ExampleCertificate
	err := store.RunInTransaction(ctx, s.repo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		txRepo := s.repo.WithTx(tx)

		cert, err := txRepo.GetByKeyForUpdate(ctx, key)
		if err != nil {
			if store.IsNotFoundError(err) {
				return ErrExampleCertificateNotFound
			}
			return err
		}

		status := domain.ExampleStatusSuccess
		if result.IsError {
			status = domain.ExampleStatusError
		}

		if err := cert.UpdateStatus(status, result.ErrorReason, result.DownloadURL); err != nil {
			return err
		}

		if err := txRepo.Update(ctx, cert); err != nil {
			return err
		}

		updated = cert
		return nil
	})
	if err != nil {
		return NewCertificateServiceError("apply_example_callback", "failed to apply worker callback", err)
	}

	log.Info("example worker callback applied",
		slog.String("example_certificate_id", updated.ID.String()),
		slog.String("status", string(updated.Status)))

	s.emitExampleEvent(ctx, updated)
	return nil
}

// emitExampleEvent publishes a status change event for an example
// certificate. Emission failures are logged, never propagated.
func (s *ExampleCertificateService) emitExampleEvent(ctx context.Context, cert *domain.ExampleCertificate) {
	if s.emitter == nil {
		return
	}

	payload := struct {
		ExampleCertificateID string `json:"example_certificate_id"`
		SetID                string `json:"set_id"`
		Status               string `json:"status"`
	}{
		ExampleCertificateID: cert.ID.String(),
		SetID:                cert.SetID.String(),
		Status:               string(cert.Status),
	}

	event, err := events.NewStatusChangeEvent(events.EventTypeExampleCertificateStatus, payload)
	if err != nil {
		s.logger.Error("failed to build example certificate status event",
			slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit example certificate status event",
			slog.String("error", err.Error()))
	}
}
