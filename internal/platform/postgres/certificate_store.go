package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/platform/logger"
	"github.com/phrazzld/certify-api/internal/store"
)

// PostgresCertificateStore implements the store.CertificateStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCertificateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCertificateStore creates a new PostgreSQL implementation of
// the CertificateStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCertificateStore(db store.DBTX, logger *slog.Logger) *PostgresCertificateStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCertificateStore{
		db:     db,
		logger: logger.With(slog.String("component", "certificate_store")),
	}
}

// Ensure PostgresCertificateStore implements store.CertificateStore
var _ store.CertificateStore = (*PostgresCertificateStore)(nil)

const certificateColumns = `
	id, subject_id, course_id, username, full_name, grade,
	key, verify_key, download_key, download_url, distinction,
	status, mode, error_reason, created_at, updated_at
`

// Create implements store.CertificateStore.Create.
// Returns store.ErrCertificateExists when a record already exists for the
// subject/course pair.
func (s *PostgresCertificateStore) Create(ctx context.Context, cert *domain.Certificate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := cert.Validate(); err != nil {
		log.Warn("certificate validation failed during create",
			slog.String("error", err.Error()),
			slog.String("certificate_id", cert.ID.String()))
		return err
	}

	query := `
		INSERT INTO certificates (` + certificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		cert.ID,
		cert.SubjectID,
		cert.CourseID,
		cert.Username,
		cert.FullName,
		cert.Grade,
		cert.Key,
		cert.VerifyKey,
		cert.DownloadKey,
		cert.DownloadURL,
		cert.Distinction,
		cert.Status,
		cert.Mode,
		cert.ErrorReason,
		cert.CreatedAt,
		cert.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			log.Warn("certificate already exists for subject and course",
				slog.String("subject_id", cert.SubjectID.String()),
				slog.String("course_id", cert.CourseID))
			return fmt.Errorf("%w: subject %s course %s",
				store.ErrCertificateExists, cert.SubjectID, cert.CourseID)
		}

		log.Error("failed to create certificate",
			slog.String("error", err.Error()),
			slog.String("certificate_id", cert.ID.String()),
			slog.String("subject_id", cert.SubjectID.String()))
		return err
	}

	log.Info("certificate created",
		slog.String("certificate_id", cert.ID.String()),
		slog.String("subject_id", cert.SubjectID.String()),
		slog.String("course_id", cert.CourseID),
		slog.String("status", string(cert.Status)))
	return nil
}

// GetBySubjectAndCourse implements store.CertificateStore.GetBySubjectAndCourse.
func (s *PostgresCertificateStore) GetBySubjectAndCourse(
	ctx context.Context,
	subjectID uuid.UUID,
	courseID string,
) (*domain.Certificate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE subject_id = $1 AND course_id = $2
	`

	cert, err := s.scanCertificate(s.db.QueryRowContext(ctx, query, subjectID, courseID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("certificate not found",
				slog.String("subject_id", subjectID.String()),
				slog.String("course_id", courseID))
			return nil, store.ErrCertificateNotFound
		}
		log.Error("failed to get certificate",
			slog.String("error", err.Error()),
			slog.String("subject_id", subjectID.String()),
			slog.String("course_id", courseID))
		return nil, err
	}

	return cert, nil
}

// GetByKeyForUpdate implements store.CertificateStore.GetByKeyForUpdate.
// The row lock only takes effect when the store is used inside a
// transaction via WithTx.
func (s *PostgresCertificateStore) GetByKeyForUpdate(ctx context.Context, key string) (*domain.Certificate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE key = $1
		FOR UPDATE
	`

	cert, err := s.scanCertificate(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("certificate not found for correlation key")
			return nil, store.ErrCertificateNotFound
		}
		log.Error("failed to get certificate by correlation key",
			slog.String("error", err.Error()))
		return nil, err
	}

	return cert, nil
}

// Update implements store.CertificateStore.Update.
func (s *PostgresCertificateStore) Update(ctx context.Context, cert *domain.Certificate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := cert.Validate(); err != nil {
		log.Warn("certificate validation failed during update",
			slog.String("error", err.Error()),
			slog.String("certificate_id", cert.ID.String()))
		return err
	}

	cert.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE certificates
		SET username = $1, full_name = $2, grade = $3, download_url = $4,
		    distinction = $5, status = $6, mode = $7, error_reason = $8,
		    updated_at = $9
		WHERE id = $10
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		cert.Username,
		cert.FullName,
		cert.Grade,
		cert.DownloadURL,
		cert.Distinction,
		cert.Status,
		cert.Mode,
		cert.ErrorReason,
		cert.UpdatedAt,
		cert.ID,
	)

	if err != nil {
		log.Error("failed to update certificate",
			slog.String("error", err.Error()),
			slog.String("certificate_id", cert.ID.String()),
			slog.String("status", string(cert.Status)))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("certificate_id", cert.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("certificate not found for update",
			slog.String("certificate_id", cert.ID.String()))
		return store.ErrCertificateNotFound
	}

	log.Info("certificate updated",
		slog.String("certificate_id", cert.ID.String()),
		slog.String("status", string(cert.Status)))
	return nil
}

// WithTx implements store.CertificateStore.WithTx.
func (s *PostgresCertificateStore) WithTx(tx *sql.Tx) store.CertificateStore {
	return &PostgresCertificateStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanCertificate maps a certificate row into a domain entity.
func (s *PostgresCertificateStore) scanCertificate(row *sql.Row) (*domain.Certificate, error) {
	var cert domain.Certificate
	var status, mode string

	err := row.Scan(
		&cert.ID,
		&cert.SubjectID,
		&cert.CourseID,
		&cert.Username,
		&cert.FullName,
		&cert.Grade,
		&cert.Key,
		&cert.VerifyKey,
		&cert.DownloadKey,
		&cert.DownloadURL,
		&cert.Distinction,
		&status,
		&mode,
		&cert.ErrorReason,
		&cert.CreatedAt,
		&cert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cert.Status = domain.CertificateStatus(status)
	cert.Mode = domain.CertificateMode(mode)
	return &cert, nil
}
