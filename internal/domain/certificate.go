package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CertificateStatus represents the lifecycle state of a certificate.
//
// State diagram:
//
//	[unavailable, deleted] --generate--> [generating]
//	[downloadable, error] --generate--> [regenerating]
//	[downloadable, error] --delete----> [deleting]
//	[generating, regenerating] --worker success--> [downloadable]
//	[generating, regenerating, deleting] --worker error--> [error]
//	[deleting] --delete completion--> [deleted]
//
// Terminal transitions are only ever observed asynchronously via worker
// callbacks; no request-path operation skips the in-flight state.
type CertificateStatus string

// Possible certificate status values.
const (
	CertStatusUnavailable  CertificateStatus = "unavailable"
	CertStatusGenerating   CertificateStatus = "generating"
	CertStatusRegenerating CertificateStatus = "regenerating"
	CertStatusDeleting     CertificateStatus = "deleting"
	CertStatusDeleted      CertificateStatus = "deleted"
	CertStatusDownloadable CertificateStatus = "downloadable"
	CertStatusError        CertificateStatus = "error"
	CertStatusNotPassing   CertificateStatus = "notpassing"
	CertStatusRestricted   CertificateStatus = "restricted"
)

// CertificateMode represents the enrollment track a certificate reflects.
type CertificateMode string

// Possible certificate modes.
const (
	ModeHonor    CertificateMode = "honor"
	ModeVerified CertificateMode = "verified"
	ModeAudit    CertificateMode = "audit"
)

// Common validation errors for Certificate.
var (
	ErrEmptyCertificateID     = errors.New("certificate ID cannot be empty")
	ErrEmptySubjectID         = errors.New("certificate subject ID cannot be empty")
	ErrEmptyCourseID          = errors.New("certificate course ID cannot be empty")
	ErrInvalidCertStatus      = errors.New("invalid certificate status")
	ErrInvalidCertMode        = errors.New("invalid certificate mode")
	ErrInvalidStateTransition = errors.New("invalid certificate state transition")
)

// Certificate represents one certificate record for a (subject, course)
// pair. The pair is unique; re-requests update the existing record.
type Certificate struct {
	ID          uuid.UUID         `json:"id"`
	SubjectID   uuid.UUID         `json:"subject_id"`
	CourseID    string            `json:"course_id"`
	Username    string            `json:"username"`
	FullName    string            `json:"full_name"`
	Grade       string            `json:"grade,omitempty"`
	Key         string            `json:"-"`
	VerifyKey   string            `json:"verify_key"`
	DownloadKey string            `json:"download_key"`
	DownloadURL string            `json:"download_url,omitempty"`
	Distinction bool              `json:"distinction"`
	Status      CertificateStatus `json:"status"`
	Mode        CertificateMode   `json:"mode"`
	ErrorReason string            `json:"-"`
	CreatedAt   time.Time         `json:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// NewCertificate creates a new Certificate for the given subject and course.
// It issues the opaque verify/download keys and the correlation key up
// front so they stay stable across resubmissions, and starts the record in
// the unavailable state. Returns an error if validation fails.
func NewCertificate(
	subjectID uuid.UUID,
	courseID string,
	username string,
	fullName string,
	mode CertificateMode,
) (*Certificate, error) {
	now := time.Now().UTC()
	cert := &Certificate{
		ID:          uuid.New(),
		SubjectID:   subjectID,
		CourseID:    courseID,
		Username:    username,
		FullName:    fullName,
		Key:         NewOpaqueKey(),
		VerifyKey:   NewOpaqueKey(),
		DownloadKey: NewOpaqueKey(),
		Status:      CertStatusUnavailable,
		Mode:        mode,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := cert.Validate(); err != nil {
		return nil, err
	}

	return cert, nil
}

// Validate checks if the Certificate has valid data.
func (c *Certificate) Validate() error {
	if c.ID == uuid.Nil {
		return ErrEmptyCertificateID
	}

	if c.SubjectID == uuid.Nil {
		return ErrEmptySubjectID
	}

	if c.CourseID == "" {
		return ErrEmptyCourseID
	}

	if !IsValidCertificateStatus(c.Status) {
		return ErrInvalidCertStatus
	}

	if !IsValidCertificateMode(c.Mode) {
		return ErrInvalidCertMode
	}

	return nil
}

// NextGenerationStatus returns the in-flight status a new generation
// request should move this record to: regenerating when a prior run
// reached a terminal result (downloadable or error), generating otherwise.
// A request for a record that is already downloadable is treated as a
// regeneration rather than rejected, so retrying callers stay idempotent.
func (c *Certificate) NextGenerationStatus() CertificateStatus {
	switch c.Status {
	case CertStatusDownloadable, CertStatusError:
		return CertStatusRegenerating
	default:
		return CertStatusGenerating
	}
}

// BeginGeneration moves the record into its in-flight generation state.
func (c *Certificate) BeginGeneration() {
	c.Status = c.NextGenerationStatus()
	c.UpdatedAt = time.Now().UTC()
}

// BeginDeletion moves the record into the deleting state. Only records
// with a generated artifact (downloadable) or a failed run (error) can be
// deleted.
func (c *Certificate) BeginDeletion() error {
	switch c.Status {
	case CertStatusDownloadable, CertStatusError:
		c.Status = CertStatusDeleting
		c.UpdatedAt = time.Now().UTC()
		return nil
	default:
		return ErrInvalidStateTransition
	}
}

// ApplySuccess records a successful worker callback. The update applies
// last-write-wins even if the record already reached a terminal state,
// matching the worker's at-least-once delivery semantics.
func (c *Certificate) ApplySuccess(downloadURL string) {
	if c.Status == CertStatusDeleting {
		c.Status = CertStatusDeleted
		c.DownloadURL = ""
	} else {
		c.Status = CertStatusDownloadable
		c.DownloadURL = downloadURL
	}
	c.ErrorReason = ""
	c.UpdatedAt = time.Now().UTC()
}

// ApplyError records a worker-reported generation failure. The reason is
// kept verbatim for operator visibility.
func (c *Certificate) ApplyError(reason string) {
	c.Status = CertStatusError
	c.ErrorReason = reason
	c.DownloadURL = ""
	c.UpdatedAt = time.Now().UTC()
}

// IsInFlight reports whether the record is awaiting a worker callback.
func (c *Certificate) IsInFlight() bool {
	switch c.Status {
	case CertStatusGenerating, CertStatusRegenerating, CertStatusDeleting:
		return true
	default:
		return false
	}
}

// IsValidCertificateStatus checks if the given status is a recognized
// CertificateStatus.
func IsValidCertificateStatus(status CertificateStatus) bool {
	switch status {
	case CertStatusUnavailable, CertStatusGenerating, CertStatusRegenerating,
		CertStatusDeleting, CertStatusDeleted, CertStatusDownloadable,
		CertStatusError, CertStatusNotPassing, CertStatusRestricted:
		return true
	default:
		return false
	}
}

// IsValidCertificateMode checks if the given mode is a recognized
// CertificateMode.
func IsValidCertificateMode(mode CertificateMode) bool {
	switch mode {
	case ModeHonor, ModeVerified, ModeAudit:
		return true
	default:
		return false
	}
}

// NewOpaqueKey returns a new random correlation token. Keys are UUID4 hex
// so they cannot be guessed from sequential identifiers; primary keys are
// never exposed across the queue boundary.
func NewOpaqueKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
