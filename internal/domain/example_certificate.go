package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExampleCertificateStatus represents the state of an example
// (dry-run) certificate.
type ExampleCertificateStatus string

// Possible example certificate status values.
const (
	ExampleStatusStarted ExampleCertificateStatus = "started"
	ExampleStatusSuccess ExampleCertificateStatus = "success"
	ExampleStatusError   ExampleCertificateStatus = "error"
)

// Placeholder identity used for example certificates, which are not tied
// to a real subject.
const (
	ExampleUsername = "example_cert_test_user"
	ExampleFullName = "John Doë"
)

// Common validation errors for example certificates.
var (
	ErrEmptyExampleSetID     = errors.New("example certificate set ID cannot be empty")
	ErrInvalidExampleStatus  = errors.New("invalid example certificate status")
	ErrExampleStatusNotFinal = errors.New("example certificate status must be success or error")
)

// ExampleCertificateSet groups the example certificates created together
// for a single "test this course's templates" run. The most recently
// created set for a course is the one reported by status reads.
type ExampleCertificateSet struct {
	ID        uuid.UUID `json:"id"`
	CourseID  string    `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewExampleCertificateSet creates a new set for the given course.
func NewExampleCertificateSet(courseID string) (*ExampleCertificateSet, error) {
	if courseID == "" {
		return nil, ErrEmptyCourseID
	}

	now := time.Now().UTC()
	return &ExampleCertificateSet{
		ID:        uuid.New(),
		CourseID:  courseID,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ExampleCertificate is one dry-run certificate within a set, one per
// enrollment mode. Its Key is the sole lookup handle for worker callbacks.
type ExampleCertificate struct {
	ID          uuid.UUID                `json:"id"`
	SetID       uuid.UUID                `json:"set_id"`
	Description string                   `json:"description"`
	Key         string                   `json:"-"`
	Username    string                   `json:"username"`
	FullName    string                   `json:"full_name"`
	Template    string                   `json:"template"`
	Status      ExampleCertificateStatus `json:"status"`
	ErrorReason string                   `json:"error_reason,omitempty"`
	DownloadURL string                   `json:"download_url,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// NewExampleCertificate creates an example certificate for one enrollment
// mode of a course. The template name is derived deterministically from
// (course, mode) and the correlation key is a fresh random token.
func NewExampleCertificate(setID uuid.UUID, courseID string, mode CertificateMode) (*ExampleCertificate, error) {
	if setID == uuid.Nil {
		return nil, ErrEmptyExampleSetID
	}

	if !IsValidCertificateMode(mode) {
		return nil, ErrInvalidCertMode
	}

	now := time.Now().UTC()
	return &ExampleCertificate{
		ID:          uuid.New(),
		SetID:       setID,
		Description: string(mode),
		Key:         NewOpaqueKey(),
		Username:    ExampleUsername,
		FullName:    ExampleFullName,
		Template:    TemplateForMode(mode, courseID),
		Status:      ExampleStatusStarted,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateStatus applies a terminal status to the example certificate.
// Only success and error are accepted; anything else leaves the record
// unchanged. The download URL is recorded only on success and the error
// reason only on error.
func (c *ExampleCertificate) UpdateStatus(status ExampleCertificateStatus, errorReason, downloadURL string) error {
	if status != ExampleStatusSuccess && status != ExampleStatusError {
		return ErrExampleStatusNotFinal
	}

	c.Status = status

	if status == ExampleStatusError && errorReason != "" {
		c.ErrorReason = errorReason
	}

	if status == ExampleStatusSuccess && downloadURL != "" {
		c.DownloadURL = downloadURL
	}

	c.UpdatedAt = time.Now().UTC()
	return nil
}

// TemplateForMode returns the PDF template name for a (course, mode) pair.
// Verified certificates use a dedicated template; every other mode shares
// the course default.
func TemplateForMode(mode CertificateMode, courseID string) string {
	org, course := splitCourseID(courseID)
	if mode == ModeVerified {
		return fmt.Sprintf("certificate-template-%s-%s-verified.pdf", org, course)
	}
	return fmt.Sprintf("certificate-template-%s-%s.pdf", org, course)
}

// splitCourseID extracts the organization and course number from a course
// key. Keys look like "course-v1:Org+Course+Run" or the older "Org/Course/Run".
func splitCourseID(courseID string) (org, course string) {
	key := courseID
	if idx := strings.IndexByte(key, ':'); idx >= 0 {
		key = key[idx+1:]
	}

	var parts []string
	if strings.ContainsRune(key, '+') {
		parts = strings.Split(key, "+")
	} else {
		parts = strings.Split(key, "/")
	}

	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return key, key
}
