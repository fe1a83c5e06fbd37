package xqueue

import (
	"errors"
	"fmt"
)

// Error definitions for the xqueue package.
var (
	// ErrInvalidConfig is returned when the queue client configuration is
	// incomplete or invalid.
	ErrInvalidConfig = errors.New("invalid queue configuration")
)

// SubmitError reports a rejected or failed task submission. Code mirrors
// the queue's acknowledgment contract: the queue returns a non-zero
// return code with a message when it rejects a task; transport-level
// failures use CodeTransport since no acknowledgment was received.
type SubmitError struct {
	Code    int
	Message string
}

// CodeTransport marks submissions that failed before the queue could
// acknowledge them (unreachable endpoint, timeout, bad response).
const CodeTransport = -1

// Error implements the error interface for SubmitError.
func (e *SubmitError) Error() string {
	return fmt.Sprintf("queue submission failed (code %d): %s", e.Code, e.Message)
}

// IsTransport reports whether the failure happened at the transport
// level, before the queue acknowledged the task. Transport failures are
// safe to retry; explicit rejections are not.
func (e *SubmitError) IsTransport() bool {
	return e.Code == CodeTransport
}
