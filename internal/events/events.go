package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type constants.
const (
	// EventTypeCertificateStatus announces a certificate status transition.
	EventTypeCertificateStatus = "certificate_status"

	// EventTypeExampleCertificateStatus announces an example certificate
	// status transition.
	EventTypeExampleCertificateStatus = "example_certificate_status"

	// EventTypeGenerationSetting announces a generation gate toggle.
	EventTypeGenerationSetting = "generation_setting"
)

// StatusChangeEvent records that a certificate (or example certificate,
// or gate setting) changed state.
type StatusChangeEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates which kind of record changed
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *StatusChangeEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewStatusChangeEvent creates a new StatusChangeEvent with the specified
// type and payload.
func NewStatusChangeEvent(eventType string, payload interface{}) (*StatusChangeEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &StatusChangeEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *StatusChangeEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *StatusChangeEvent) error
}
