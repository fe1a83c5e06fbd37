package store

import (
	"context"

	"github.com/phrazzld/certify-api/internal/domain"
)

// GenerationSettingStore defines the interface for the append-only
// generation toggle logs. Rows are only ever appended; "current" is the
// most recent row by insertion order.
type GenerationSettingStore interface {
	// AppendGlobal appends a row to the global toggle log.
	AppendGlobal(ctx context.Context, enabled bool) error

	// AppendCourse appends a row to a course's toggle log.
	AppendCourse(ctx context.Context, courseID string, enabled bool) error

	// LatestGlobal returns the most recent global toggle row.
	// Returns ErrNotFound if the log is empty.
	LatestGlobal(ctx context.Context) (*domain.GenerationSetting, error)

	// LatestCourse returns the most recent toggle row for a course.
	// Returns ErrNotFound if the course has no rows.
	LatestCourse(ctx context.Context, courseID string) (*domain.CourseGenerationSetting, error)
}
