package store

import (
	"context"
	"database/sql"

	"github.com/phrazzld/certify-api/internal/domain"
)

// ExampleCertificateStore defines the interface for example certificate
// set and example certificate persistence.
type ExampleCertificateStore interface {
	// CreateSet saves a new example certificate set.
	CreateSet(ctx context.Context, set *domain.ExampleCertificateSet) error

	// CreateCertificate saves a new example certificate belonging to a set.
	CreateCertificate(ctx context.Context, cert *domain.ExampleCertificate) error

	// GetByKeyForUpdate retrieves the example certificate addressed by its
	// opaque correlation key and locks the row for the remainder of the
	// current transaction. Returns ErrExampleCertificateNotFound for
	// unknown keys.
	GetByKeyForUpdate(ctx context.Context, key string) (*domain.ExampleCertificate, error)

	// Update saves changes to an existing example certificate.
	// Returns ErrExampleCertificateNotFound if the record does not exist.
	Update(ctx context.Context, cert *domain.ExampleCertificate) error

	// LatestSetCertificates returns the certificates of the most recently
	// created set for a course, newest first. Returns ErrExampleSetNotFound
	// if no set has ever been created for the course.
	LatestSetCertificates(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error)

	// WithTx returns a new ExampleCertificateStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) ExampleCertificateStore
}
