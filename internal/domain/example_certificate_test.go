package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExampleCertificate(t *testing.T) {
	set, err := NewExampleCertificateSet("course-v1:edX+Demo+2026")
	require.NoError(t, err)

	cert, err := NewExampleCertificate(set.ID, set.CourseID, ModeHonor)
	require.NoError(t, err)

	assert.Equal(t, set.ID, cert.SetID)
	assert.Equal(t, "honor", cert.Description)
	assert.Equal(t, ExampleStatusStarted, cert.Status)
	assert.Equal(t, ExampleUsername, cert.Username)
	assert.Equal(t, ExampleFullName, cert.FullName)
	assert.Len(t, cert.Key, 32)
}

func TestNewExampleCertificateValidation(t *testing.T) {
	_, err := NewExampleCertificate(uuid.Nil, "course-v1:edX+Demo+2026", ModeHonor)
	assert.ErrorIs(t, err, ErrEmptyExampleSetID)

	_, err = NewExampleCertificate(uuid.New(), "course-v1:edX+Demo+2026", CertificateMode("premium"))
	assert.ErrorIs(t, err, ErrInvalidCertMode)
}

func TestTemplateForMode(t *testing.T) {
	courseID := "course-v1:edX+Demo+2026"

	assert.Equal(t,
		"certificate-template-edX-Demo-verified.pdf",
		TemplateForMode(ModeVerified, courseID))
	assert.Equal(t,
		"certificate-template-edX-Demo.pdf",
		TemplateForMode(ModeHonor, courseID))
	assert.Equal(t,
		"certificate-template-edX-Demo.pdf",
		TemplateForMode(ModeAudit, courseID))

	// Old-style slash-separated course keys.
	assert.Equal(t,
		"certificate-template-MITx-6002x.pdf",
		TemplateForMode(ModeHonor, "MITx/6002x/2026_Spring"))
}

func TestExampleUpdateStatusSuccess(t *testing.T) {
	cert := newTestExampleCertificate(t)

	err := cert.UpdateStatus(ExampleStatusSuccess, "", "https://certs.example.com/x.pdf")
	require.NoError(t, err)

	assert.Equal(t, ExampleStatusSuccess, cert.Status)
	assert.Equal(t, "https://certs.example.com/x.pdf", cert.DownloadURL)
	assert.Empty(t, cert.ErrorReason)
}

func TestExampleUpdateStatusError(t *testing.T) {
	cert := newTestExampleCertificate(t)

	err := cert.UpdateStatus(ExampleStatusError, "missing template", "")
	require.NoError(t, err)

	assert.Equal(t, ExampleStatusError, cert.Status)
	assert.Equal(t, "missing template", cert.ErrorReason)
	assert.Empty(t, cert.DownloadURL)
}

func TestExampleUpdateStatusRejectsNonTerminal(t *testing.T) {
	cert := newTestExampleCertificate(t)

	err := cert.UpdateStatus(ExampleStatusStarted, "", "")
	assert.ErrorIs(t, err, ErrExampleStatusNotFinal)

	err = cert.UpdateStatus(ExampleCertificateStatus("finished"), "", "")
	assert.ErrorIs(t, err, ErrExampleStatusNotFinal)

	// The record is left unchanged.
	assert.Equal(t, ExampleStatusStarted, cert.Status)
	assert.Empty(t, cert.DownloadURL)
	assert.Empty(t, cert.ErrorReason)
}

func newTestExampleCertificate(t *testing.T) *ExampleCertificate {
	t.Helper()
	cert, err := NewExampleCertificate(uuid.New(), "course-v1:edX+Demo+2026", ModeHonor)
	require.NoError(t, err)
	return cert
}
