package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/certify-api/internal/events"
	"github.com/phrazzld/certify-api/internal/platform/logger"
	"github.com/phrazzld/certify-api/internal/store"
)

// GenerationGate answers whether self-service certificate generation is
// currently allowed for a course.
type GenerationGate interface {
	// IsEnabledForCourse reports the effective gate value for a course.
	IsEnabledForCourse(ctx context.Context, courseID string) (bool, error)
}

// GateService manages the generation feature gate. The gate is two
// append-only toggle logs: a global one and a per-course one. Generation
// is allowed only when the latest row of both logs says enabled; an
// empty log counts as disabled.
type GateService struct {
	settings store.GenerationSettingStore
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// Ensure GateService implements the GenerationGate interface
var _ GenerationGate = (*GateService)(nil)

// NewGateService creates a GateService with the given dependencies.
func NewGateService(settings store.GenerationSettingStore, emitter events.EventEmitter, log *slog.Logger) *GateService {
	if log == nil {
		log = slog.Default()
	}

	return &GateService{
		settings: settings,
		emitter:  emitter,
		logger:   log.With(slog.String("component", "gate_service")),
	}
}

// GlobalEnabled returns the latest global toggle value. An empty log
// means disabled.
func (s *GateService) GlobalEnabled(ctx context.Context) (bool, error) {
	setting, err := s.settings.LatestGlobal(ctx)
	if err != nil {
		if store.IsNotFoundError(err) {
			return false, nil
		}
		return false, NewCertificateServiceError("gate_read", "failed to read global generation setting", err)
	}
	return setting.Enabled, nil
}

// CourseEnabled returns the latest per-course toggle value, ignoring the
// global log. An empty log means disabled.
func (s *GateService) CourseEnabled(ctx context.Context, courseID string) (bool, error) {
	setting, err := s.settings.LatestCourse(ctx, courseID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return false, nil
		}
		return false, NewCertificateServiceError("gate_read", "failed to read course generation setting", err)
	}
	return setting.Enabled, nil
}

// IsEnabledForCourse reports the effective gate value for a course:
// global AND course, with empty logs counting as disabled. The global
// check short-circuits so a disabled platform never touches course rows.
func (s *GateService) IsEnabledForCourse(ctx context.Context, courseID string) (bool, error) {
	global, err := s.GlobalEnabled(ctx)
	if err != nil {
		return false, err
	}
	if !global {
		return false, nil
	}

	return s.CourseEnabled(ctx, courseID)
}

// SetGlobalEnabled appends a row to the global toggle log.
func (s *GateService) SetGlobalEnabled(ctx context.Context, enabled bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.settings.AppendGlobal(ctx, enabled); err != nil {
		return NewCertificateServiceError("gate_write", "failed to append global generation setting", err)
	}

	log.Info("global certificate generation toggled",
		slog.Bool("enabled", enabled))

	s.emitSettingEvent(ctx, "global", "", enabled)
	return nil
}

// SetCourseEnabled appends a row to a course's toggle log.
func (s *GateService) SetCourseEnabled(ctx context.Context, courseID string, enabled bool) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.settings.AppendCourse(ctx, courseID, enabled); err != nil {
		return NewCertificateServiceError("gate_write", "failed to append course generation setting", err)
	}

	log.Info("course certificate generation toggled",
		slog.String("course_id", courseID),
		slog.Bool("enabled", enabled))

	s.emitSettingEvent(ctx, "course", courseID, enabled)
	return nil
}

// emitSettingEvent publishes a gate change event. Emission failures are
// logged, never propagated; the toggle row is already committed.
func (s *GateService) emitSettingEvent(ctx context.Context, scope, courseID string, enabled bool) {
	if s.emitter == nil {
		return
	}

	payload := struct {
		Scope    string `json:"scope"`
		CourseID string `json:"course_id,omitempty"`
		Enabled  bool   `json:"enabled"`
	}{Scope: scope, CourseID: courseID, Enabled: enabled}

	event, err := events.NewStatusChangeEvent(events.EventTypeGenerationSetting, payload)
	if err != nil {
		s.logger.Error("failed to build generation setting event",
			slog.String("error", err.Error()))
		return
	}

	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit generation setting event",
			slog.String("error", err.Error()))
	}
}
