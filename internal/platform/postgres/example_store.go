package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/platform/logger"
	"github.com/phrazzld/certify-api/internal/store"
)

// PostgresExampleCertificateStore implements the
// store.ExampleCertificateStore interface using PostgreSQL.
type PostgresExampleCertificateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresExampleCertificateStore creates a new PostgreSQL
// implementation of the ExampleCertificateStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresExampleCertificateStore(db store.DBTX, logger *slog.Logger) *PostgresExampleCertificateStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresExampleCertificateStore{
		db:     db,
		logger: logger.With(slog.String("component", "example_certificate_store")),
	}
}

// Ensure PostgresExampleCertificateStore implements store.ExampleCertificateStore
var _ store.ExampleCertificateStore = (*PostgresExampleCertificateStore)(nil)

const exampleCertificateColumns = `
	id, set_id, description, key, username, full_name, template,
	status, error_reason, download_url, created_at, updated_at
`

// CreateSet implements store.ExampleCertificateStore.CreateSet.
func (s *PostgresExampleCertificateStore) CreateSet(ctx context.Context, set *domain.ExampleCertificateSet) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO example_certificate_sets (id, course_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query, set.ID, set.CourseID, set.CreatedAt, set.UpdatedAt)
	if err != nil {
		log.Error("failed to create example certificate set",
			slog.String("error", err.Error()),
			slog.String("set_id", set.ID.String()),
			slog.String("course_id", set.CourseID))
		return err
	}

	log.Info("example certificate set created",
		slog.String("set_id", set.ID.String()),
		slog.String("course_id", set.CourseID))
	return nil
}

// CreateCertificate implements store.ExampleCertificateStore.CreateCertificate.
// Returns store.ErrInvalidEntity when the referenced set does not exist.
func (s *PostgresExampleCertificateStore) CreateCertificate(ctx context.Context, cert *domain.ExampleCertificate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO example_certificates (` + exampleCertificateColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		cert.ID,
		cert.SetID,
		cert.Description,
		cert.Key,
		cert.Username,
		cert.FullName,
		cert.Template,
		cert.Status,
		cert.ErrorReason,
		cert.DownloadURL,
		cert.CreatedAt,
		cert.UpdatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			log.Warn("example certificate references missing set",
				slog.String("set_id", cert.SetID.String()))
			return fmt.Errorf("%w: example certificate set %s not found",
				store.ErrInvalidEntity, cert.SetID)
		}

		log.Error("failed to create example certificate",
			slog.String("error", err.Error()),
			slog.String("example_certificate_id", cert.ID.String()))
		return err
	}

	log.Info("example certificate created",
		slog.String("example_certificate_id", cert.ID.String()),
		slog.String("set_id", cert.SetID.String()),
		slog.String("description", cert.Description))
	return nil
}

// GetByKeyForUpdate implements store.ExampleCertificateStore.GetByKeyForUpdate.
// The row lock only takes effect when the store is used inside a
// transaction via WithTx.
func (s *PostgresExampleCertificateStore) GetByKeyForUpdate(ctx context.Context, key string) (*domain.ExampleCertificate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT ` + exampleCertificateColumns + `
		FROM example_certificates
		WHERE key = $1
		FOR UPDATE
	`

	cert, err := scanExampleCertificate(s.db.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("example certificate not found for correlation key")
			return nil, store.ErrExampleCertificateNotFound
		}
		log.Error("failed to get example certificate by correlation key",
			slog.String("error", err.Error()))
		return nil, err
	}

	return cert, nil
}

// Update implements store.ExampleCertificateStore.Update.
func (s *PostgresExampleCertificateStore) Update(ctx context.Context, cert *domain.ExampleCertificate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	cert.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE example_certificates
		SET status = $1, error_reason = $2, download_url = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		cert.Status,
		cert.ErrorReason,
		cert.DownloadURL,
		cert.UpdatedAt,
		cert.ID,
	)

	if err != nil {
		log.Error("failed to update example certificate",
			slog.String("error", err.Error()),
			slog.String("example_certificate_id", cert.ID.String()))
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		log.Error("failed to get rows affected",
			slog.String("error", err.Error()),
			slog.String("example_certificate_id", cert.ID.String()))
		return err
	}

	if rowsAffected == 0 {
		log.Debug("example certificate not found for update",
			slog.String("example_certificate_id", cert.ID.String()))
		return store.ErrExampleCertificateNotFound
	}

	log.Info("example certificate updated",
		slog.String("example_certificate_id", cert.ID.String()),
		slog.String("status", string(cert.Status)))
	return nil
}

// LatestSetCertificates implements store.ExampleCertificateStore.LatestSetCertificates.
func (s *PostgresExampleCertificateStore) LatestSetCertificates(
	ctx context.Context,
	courseID string,
) ([]*domain.ExampleCertificate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	setQuery := `
		SELECT id
		FROM example_certificate_sets
		WHERE course_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var setID string
	err := s.db.QueryRowContext(ctx, setQuery, courseID).Scan(&setID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("no example certificate set for course",
				slog.String("course_id", courseID))
			return nil, store.ErrExampleSetNotFound
		}
		log.Error("failed to get latest example certificate set",
			slog.String("error", err.Error()),
			slog.String("course_id", courseID))
		return nil, err
	}

	certQuery := `
		SELECT ` + exampleCertificateColumns + `
		FROM example_certificates
		WHERE set_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, certQuery, setID)
	if err != nil {
		log.Error("failed to query example certificates",
			slog.String("error", err.Error()),
			slog.String("set_id", setID))
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var certs []*domain.ExampleCertificate
	for rows.Next() {
		var cert domain.ExampleCertificate
		var status string

		err := rows.Scan(
			&cert.ID,
			&cert.SetID,
			&cert.Description,
			&cert.Key,
			&cert.Username,
			&cert.FullName,
			&cert.Template,
			&status,
			&cert.ErrorReason,
			&cert.DownloadURL,
			&cert.CreatedAt,
			&cert.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to scan example certificate row",
				slog.String("error", err.Error()))
			return nil, err
		}

		cert.Status = domain.ExampleCertificateStatus(status)
		certs = append(certs, &cert)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, err
	}

	if certs == nil {
		certs = []*domain.ExampleCertificate{}
	}

	return certs, nil
}

// WithTx implements store.ExampleCertificateStore.WithTx.
func (s *PostgresExampleCertificateStore) WithTx(tx *sql.Tx) store.ExampleCertificateStore {
	return &PostgresExampleCertificateStore{
		db:     tx,
		logger: s.logger,
	}
}

// scanExampleCertificate maps an example certificate row into a domain entity.
func scanExampleCertificate(row *sql.Row) (*domain.ExampleCertificate, error) {
	var cert domain.ExampleCertificate
	var status string

	err := row.Scan(
		&cert.ID,
		&cert.SetID,
		&cert.Description,
		&cert.Key,
		&cert.Username,
		&cert.FullName,
		&cert.Template,
		&status,
		&cert.ErrorReason,
		&cert.DownloadURL,
		&cert.CreatedAt,
		&cert.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cert.Status = domain.ExampleCertificateStatus(status)
	return &cert, nil
}
