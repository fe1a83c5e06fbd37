package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/platform/logger"
	"github.com/phrazzld/certify-api/internal/store"
)

// PostgresGenerationSettingStore implements the
// store.GenerationSettingStore interface using PostgreSQL. Both logs are
// append-only; toggling inserts a new row and history is never mutated.
type PostgresGenerationSettingStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGenerationSettingStore creates a new PostgreSQL
// implementation of the GenerationSettingStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresGenerationSettingStore(db store.DBTX, logger *slog.Logger) *PostgresGenerationSettingStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGenerationSettingStore{
		db:     db,
		logger: logger.With(slog.String("component", "generation_setting_store")),
	}
}

// Ensure PostgresGenerationSettingStore implements store.GenerationSettingStore
var _ store.GenerationSettingStore = (*PostgresGenerationSettingStore)(nil)

// AppendGlobal implements store.GenerationSettingStore.AppendGlobal.
func (s *PostgresGenerationSettingStore) AppendGlobal(ctx context.Context, enabled bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO certificate_generation_settings (enabled, created_at)
		VALUES ($1, $2)
	`
	_, err := s.db.ExecContext(ctx, query, enabled, time.Now().UTC())
	if err != nil {
		log.Error("failed to append global generation setting",
			slog.String("error", err.Error()),
			slog.Bool("enabled", enabled))
		return err
	}

	log.Info("global generation setting appended", slog.Bool("enabled", enabled))
	return nil
}

// AppendCourse implements store.GenerationSettingStore.AppendCourse.
func (s *PostgresGenerationSettingStore) AppendCourse(ctx context.Context, courseID string, enabled bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO certificate_generation_course_settings (course_id, enabled, created_at)
		VALUES ($1, $2, $3)
	`
	_, err := s.db.ExecContext(ctx, query, courseID, enabled, time.Now().UTC())
	if err != nil {
		log.Error("failed to append course generation setting",
			slog.String("error", err.Error()),
			slog.String("course_id", courseID),
			slog.Bool("enabled", enabled))
		return err
	}

	log.Info("course generation setting appended",
		slog.String("course_id", courseID),
		slog.Bool("enabled", enabled))
	return nil
}

// LatestGlobal implements store.GenerationSettingStore.LatestGlobal.
// Insertion order breaks timestamp ties.
func (s *PostgresGenerationSettingStore) LatestGlobal(ctx context.Context) (*domain.GenerationSetting, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, enabled, created_at
		FROM certificate_generation_settings
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var setting domain.GenerationSetting
	err := s.db.QueryRowContext(ctx, query).Scan(&setting.ID, &setting.Enabled, &setting.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Error("failed to get latest global generation setting",
			slog.String("error", err.Error()))
		return nil, err
	}

	return &setting, nil
}

// LatestCourse implements store.GenerationSettingStore.LatestCourse.
func (s *PostgresGenerationSettingStore) LatestCourse(
	ctx context.Context,
	courseID string,
) (*domain.CourseGenerationSetting, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, course_id, enabled, created_at
		FROM certificate_generation_course_settings
		WHERE course_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var setting domain.CourseGenerationSetting
	err := s.db.QueryRowContext(ctx, query, courseID).
		Scan(&setting.ID, &setting.CourseID, &setting.Enabled, &setting.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		log.Error("failed to get latest course generation setting",
			slog.String("error", err.Error()),
			slog.String("course_id", courseID))
		return nil, err
	}

	return &setting, nil
}
