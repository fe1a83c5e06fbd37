package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCertificate(t *testing.T) {
	subjectID := uuid.New()

	cert, err := NewCertificate(subjectID, "course-v1:edX+Demo+2026", "jdoe", "Jane Doe", ModeHonor)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, cert.ID)
	assert.Equal(t, subjectID, cert.SubjectID)
	assert.Equal(t, CertStatusUnavailable, cert.Status)
	assert.Equal(t, ModeHonor, cert.Mode)
	assert.Len(t, cert.Key, 32)
	assert.Len(t, cert.VerifyKey, 32)
	assert.Len(t, cert.DownloadKey, 32)
	assert.NotEqual(t, cert.VerifyKey, cert.DownloadKey)
	assert.Empty(t, cert.DownloadURL)
	assert.Empty(t, cert.ErrorReason)
}

func TestNewCertificateValidation(t *testing.T) {
	_, err := NewCertificate(uuid.Nil, "course-v1:edX+Demo+2026", "jdoe", "Jane Doe", ModeHonor)
	assert.ErrorIs(t, err, ErrEmptySubjectID)

	_, err = NewCertificate(uuid.New(), "", "jdoe", "Jane Doe", ModeHonor)
	assert.ErrorIs(t, err, ErrEmptyCourseID)

	_, err = NewCertificate(uuid.New(), "course-v1:edX+Demo+2026", "jdoe", "Jane Doe", CertificateMode("premium"))
	assert.ErrorIs(t, err, ErrInvalidCertMode)
}

func TestNextGenerationStatus(t *testing.T) {
	tests := []struct {
		current CertificateStatus
		want    CertificateStatus
	}{
		{CertStatusUnavailable, CertStatusGenerating},
		{CertStatusDeleted, CertStatusGenerating},
		{CertStatusNotPassing, CertStatusGenerating},
		{CertStatusDownloadable, CertStatusRegenerating},
		{CertStatusError, CertStatusRegenerating},
	}

	for _, tc := range tests {
		cert := newTestCertificate(t)
		cert.Status = tc.current
		assert.Equal(t, tc.want, cert.NextGenerationStatus(), "from %s", tc.current)
	}
}

func TestBeginDeletion(t *testing.T) {
	cert := newTestCertificate(t)
	cert.Status = CertStatusDownloadable
	require.NoError(t, cert.BeginDeletion())
	assert.Equal(t, CertStatusDeleting, cert.Status)

	cert.Status = CertStatusGenerating
	assert.ErrorIs(t, cert.BeginDeletion(), ErrInvalidStateTransition)
	assert.Equal(t, CertStatusGenerating, cert.Status)
}

func TestApplySuccess(t *testing.T) {
	cert := newTestCertificate(t)
	cert.Status = CertStatusGenerating
	cert.ErrorReason = "previous failure"

	cert.ApplySuccess("https://certs.example.com/abc.pdf")

	assert.Equal(t, CertStatusDownloadable, cert.Status)
	assert.Equal(t, "https://certs.example.com/abc.pdf", cert.DownloadURL)
	assert.Empty(t, cert.ErrorReason)
}

func TestApplySuccessCompletesDeletion(t *testing.T) {
	cert := newTestCertificate(t)
	cert.Status = CertStatusDeleting
	cert.DownloadURL = "https://certs.example.com/abc.pdf"

	cert.ApplySuccess("")

	assert.Equal(t, CertStatusDeleted, cert.Status)
	assert.Empty(t, cert.DownloadURL)
}

func TestApplyError(t *testing.T) {
	cert := newTestCertificate(t)
	cert.Status = CertStatusRegenerating
	cert.DownloadURL = "https://certs.example.com/abc.pdf"

	cert.ApplyError("template render failed")

	assert.Equal(t, CertStatusError, cert.Status)
	assert.Equal(t, "template render failed", cert.ErrorReason)
	assert.Empty(t, cert.DownloadURL)
}

func TestIsInFlight(t *testing.T) {
	inFlight := []CertificateStatus{CertStatusGenerating, CertStatusRegenerating, CertStatusDeleting}
	settled := []CertificateStatus{
		CertStatusUnavailable, CertStatusDeleted, CertStatusDownloadable,
		CertStatusError, CertStatusNotPassing, CertStatusRestricted,
	}

	cert := newTestCertificate(t)
	for _, s := range inFlight {
		cert.Status = s
		assert.True(t, cert.IsInFlight(), "%s should be in flight", s)
	}
	for _, s := range settled {
		cert.Status = s
		assert.False(t, cert.IsInFlight(), "%s should not be in flight", s)
	}
}

func TestIsValidCertificateStatus(t *testing.T) {
	assert.True(t, IsValidCertificateStatus(CertStatusDownloadable))
	assert.False(t, IsValidCertificateStatus(CertificateStatus("printed")))
}

func newTestCertificate(t *testing.T) *Certificate {
	t.Helper()
	cert, err := NewCertificate(uuid.New(), "course-v1:edX+Demo+2026", "jdoe", "Jane Doe", ModeHonor)
	require.NoError(t, err)
	return cert
}
