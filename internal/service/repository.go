package service

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/store"
)

// CertificateRepository is the persistence surface the certificate
// service needs. It extends the store interface with access to the
// underlying database handle so the service can open transactions for
// callback application.
type CertificateRepository interface {
	// Create saves a new certificate.
	Create(ctx context.Context, cert *domain.Certificate) error

	// GetBySubjectAndCourse retrieves the certificate for a subject in a course.
	GetBySubjectAndCourse(ctx context.Context, subjectID uuid.UUID, courseID string) (*domain.Certificate, error)

	// GetByKeyForUpdate retrieves and row-locks the certificate addressed
	// by its opaque correlation key.
	GetByKeyForUpdate(ctx context.Context, key string) (*domain.Certificate, error)

	// Update saves changes to an existing certificate.
	Update(ctx context.Context, cert *domain.Certificate) error

	// WithTx returns a repository instance bound to the given transaction.
	WithTx(tx *sql.Tx) CertificateRepository

	// DB returns the underlying database handle for transaction management.
	DB() *sql.DB
}

// ExampleCertificateRepository is the persistence surface the example
// certificate service needs.
type ExampleCertificateRepository interface {
	// CreateSet saves a new example certificate set.
	CreateSet(ctx context.Context, set *domain.ExampleCertificateSet) error

	// CreateCertificate saves a new example certificate belonging to a set.
	CreateCertificate(ctx context.Context, cert *domain.ExampleCertificate) error

	// GetByKeyForUpdate retrieves and row-locks the example certificate
	// addressed by its opaque correlation key.
	GetByKeyForUpdate(ctx context.Context, key string) (*domain.ExampleCertificate, error)

	// Update saves changes to an existing example certificate.
	Update(ctx context.Context, cert *domain.ExampleCertificate) error

	// LatestSetCertificates returns the certificates of the most recently
	// created set for a course, newest first.
	LatestSetCertificates(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error)

	// WithTx returns a repository instance bound to the given transaction.
	WithTx(tx *sql.Tx) ExampleCertificateRepository

	// DB returns the underlying database handle for transaction management.
	DB() *sql.DB
}

// certificateRepositoryAdapter adapts a store.CertificateStore to the
// CertificateRepository interface.
type certificateRepositoryAdapter struct {
	store store.CertificateStore
	db    *sql.DB
}

// NewCertificateRepositoryAdapter creates a CertificateRepository backed
// by the given store and database handle.
func NewCertificateRepositoryAdapter(s store.CertificateStore, db *sql.DB) CertificateRepository {
	return &certificateRepositoryAdapter{store: s, db: db}
}

func (a *certificateRepositoryAdapter) Create(ctx context.Context, cert *domain.Certificate) error {
	return a.store.Create(ctx, cert)
}

func (a *certificateRepositoryAdapter) GetBySubjectAndCourse(ctx context.Context, subjectID uuid.UUID, courseID string) (*domain.Certificate, error) {
	return a.store.GetBySubjectAndCourse(ctx, subjectID, courseID)
}

func (a *certificateRepositoryAdapter) GetByKeyForUpdate(ctx context.Context, key string) (*domain.Certificate, error) {
	return a.store.GetByKeyForUpdate(ctx, key)
}

func (a *certificateRepositoryAdapter) Update(ctx context.Context, cert *domain.Certificate) error {
	return a.store.Update(ctx, cert)
}

func (a *certificateRepositoryAdapter) WithTx(tx *sql.Tx) CertificateRepository {
	return &certificateRepositoryAdapter{store: a.store.WithTx(tx), db: a.db}
}

func (a *certificateRepositoryAdapter) DB() *sql.DB {
	return a.db
}

// exampleRepositoryAdapter adapts a store.ExampleCertificateStore to the
// ExampleCertificateRepository interface.
type exampleRepositoryAdapter struct {
	store store.ExampleCertificateStore
	db    *sql.DB
}

// NewExampleCertificateRepositoryAdapter creates an
// ExampleCertificateRepository backed by the given store and database handle.
func NewExampleCertificateRepositoryAdapter(s store.ExampleCertificateStore, db *sql.DB) ExampleCertificateRepository {
	return &exampleRepositoryAdapter{store: s, db: db}
}

func (a *exampleRepositoryAdapter) CreateSet(ctx context.Context, set *domain.ExampleCertificateSet) error {
	return a.store.CreateSet(ctx, set)
}

func (a *exampleRepositoryAdapter) CreateCertificate(ctx context.Context, cert *domain.ExampleCertificate) error {
	return a.store.CreateCertificate(ctx, cert)
}

func (a *exampleRepositoryAdapter) GetByKeyForUpdate(ctx context.Context, key string) (*domain.ExampleCertificate, error) {
	return a.store.GetByKeyForUpdate(ctx, key)
}

func (a *exampleRepositoryAdapter) Update(ctx context.Context, cert *domain.ExampleCertificate) error {
	return a.store.Update(ctx, cert)
}

func (a *exampleRepositoryAdapter) LatestSetCertificates(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error) {
	return a.store.LatestSetCertificates(ctx, courseID)
}

func (a *exampleRepositoryAdapter) WithTx(tx *sql.Tx) ExampleCertificateRepository {
	return &exampleRepositoryAdapter{store: a.store.WithTx(tx), db: a.db}
}

func (a *exampleRepositoryAdapter) DB() *sql.DB {
	return a.db
}
