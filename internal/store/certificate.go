package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/certify-api/internal/domain"
)

// CertificateStore defines the interface for certificate persistence.
// It is the single read path for certificate state; no other component
// reads raw storage fields directly.
type CertificateStore interface {
	// Create saves a new certificate to the store.
	// Returns ErrCertificateExists if a record already exists for the
	// subject/course pair, or validation errors from the domain entity.
	Create(ctx context.Context, cert *domain.Certificate) error

	// GetBySubjectAndCourse retrieves the certificate for a subject in a
	// course. Returns ErrCertificateNotFound if no record exists.
	GetBySubjectAndCourse(ctx context.Context, subjectID uuid.UUID, courseID string) (*domain.Certificate, error)

	// GetByKeyForUpdate retrieves the certificate addressed by its opaque
	// correlation key and locks the row for the remainder of the current
	// transaction, so the existence/state check stays atomic with respect
	// to concurrent deletes. Returns ErrCertificateNotFound for unknown keys.
	GetByKeyForUpdate(ctx context.Context, key string) (*domain.Certificate, error)

	// Update saves changes to an existing certificate.
	// Returns ErrCertificateNotFound if the record does not exist.
	Update(ctx context.Context, cert *domain.Certificate) error

	// WithTx returns a new CertificateStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) CertificateStore
}
