package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/certify-api/internal/domain"
	"github.com/phrazzld/certify-api/internal/platform/xqueue"
	"github.com/phrazzld/certify-api/internal/store"
)

func newTestExampleService(repo *mockExampleRepo, queue *mockQueue) *ExampleCertificateService {
	return NewExampleCertificateService(repo, queue, nil, "https://lms.example.com", nil)
}

func TestGenerateExampleCertificates(t *testing.T) {
	repo := newMockExampleRepo()
	queue := &mockQueue{}
	svc := newTestExampleService(repo, queue)

	modes := []domain.CertificateMode{domain.ModeHonor, domain.ModeVerified}
	certs, err := svc.Generate(context.Background(), testCourseID, modes)
	require.NoError(t, err)

	require.Len(t, repo.createdSets, 1)
	require.Len(t, certs, 2)
	require.Len(t, queue.submissions, 2)

	for i, cert := range certs {
		assert.Equal(t, repo.createdSets[0].ID, cert.SetID)
		assert.Equal(t, domain.ExampleStatusStarted, cert.Status)
		assert.Equal(t, domain.ExampleUsername, cert.Username)

		sub := queue.submissions[i]
		assert.Equal(t, cert.Key, sub.key)
		assert.Equal(t, "https://lms.example.com/xqueue/update_example_certificate", sub.callbackURL)

		body, ok := sub.body.(taskBody)
		require.True(t, ok)
		assert.Equal(t, taskActionCreate, body.Action)
		assert.Equal(t, cert.Template, body.TemplatePDF)
		assert.Empty(t, body.Grade)
	}

	assert.Equal(t, "certificate-template-TestOrg-CS101.pdf", certs[0].Template)
	assert.Equal(t, "certificate-template-TestOrg-CS101-verified.pdf", certs[1].Template)
}

func TestGenerateExamplesDefaultsToHonorMode(t *testing.T) {
	repo := newMockExampleRepo()
	queue := &mockQueue{}
	svc := newTestExampleService(repo, queue)

	certs, err := svc.Generate(context.Background(), testCourseID, nil)
	require.NoError(t, err)

	require.Len(t, certs, 1)
	assert.Equal(t, string(domain.ModeHonor), certs[0].Description)
}

func TestGenerateExamplesIsolatesSubmissionFailures(t *testing.T) {
	repo := newMockExampleRepo()
	queue := &mockQueue{errs: map[int]error{
		0: &xqueue.SubmitError{Code: xqueue.CodeTransport, Message: "queue unreachable"},
	}}
	svc := newTestExampleService(repo, queue)

	modes := []domain.CertificateMode{domain.ModeHonor, domain.ModeVerified}
	certs, err := svc.Generate(context.Background(), testCourseID, modes)
	require.NoError(t, err, "one failed submission must not fail the run")

	require.Len(t, certs, 2)
	assert.Equal(t, domain.ExampleStatusError, certs[0].Status)
	assert.Contains(t, certs[0].ErrorReason, "queue unreachable")
	assert.Equal(t, domain.ExampleStatusStarted, certs[1].Status)

	require.Len(t, queue.submissions, 2, "remaining modes still reach the queue")
	require.Len(t, repo.updatedCerts, 1, "only the failed certificate is rewritten")
}

func TestExampleStatusNoRuns(t *testing.T) {
	repo := newMockExampleRepo()
	svc := newTestExampleService(repo, &mockQueue{})

	certs, err := svc.Status(context.Background(), testCourseID)
	require.NoError(t, err)
	assert.Empty(t, certs)
	assert.NotNil(t, certs, "no runs yields an empty list, not nil")
}

func TestExampleStatusReturnsLatestSet(t *testing.T) {
	set, err := domain.NewExampleCertificateSet(testCourseID)
	require.NoError(t, err)
	cert, err := domain.NewExampleCertificate(set.ID, testCourseID, domain.ModeHonor)
	require.NoError(t, err)

	repo := newMockExampleRepo()
	repo.latestFn = func(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error) {
		return []*domain.ExampleCertificate{cert}, nil
	}
	svc := newTestExampleService(repo, &mockQueue{})

	certs, err := svc.Status(context.Background(), testCourseID)
	require.NoError(t, err)
	require.Len(t, certs, 1)
	assert.Equal(t, cert.ID, certs[0].ID)
}

func TestExampleApplyCallbackSuccess(t *testing.T) {
	set, err := domain.NewExampleCertificateSet(testCourseID)
	require.NoError(t, err)
	cert, err := domain.NewExampleCertificate(set.ID, testCourseID, domain.ModeHonor)
	require.NoError(t, err)

	repo := newMockExampleRepo()
	repo.getByKeyFn = func(ctx context.Context, key string) (*domain.ExampleCertificate, error) {
		if key == cert.Key {
			return cert, nil
		}
		return nil, store.ErrExampleCertificateNotFound
	}
	svc := newTestExampleService(repo, &mockQueue{})

	err = svc.ApplyCallback(context.Background(), cert.Key, CallbackResult{
		DownloadURL: "https://certs.example.com/example.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ExampleStatusSuccess, cert.Status)
	assert.Equal(t, "https://certs.example.com/example.pdf", cert.DownloadURL)
	require.Len(t, repo.updatedCerts, 1)
}

func TestExampleApplyCallbackError(t *testing.T) {
	set, err := domain.NewExampleCertificateSet(testCourseID)
	require.NoError(t, err)
	cert, err := domain.NewExampleCertificate(set.ID, testCourseID, domain.ModeVerified)
	require.NoError(t, err)

	repo := newMockExampleRepo()
	repo.getByKeyFn = func(ctx context.Context, key string) (*domain.ExampleCertificate, error) {
		return cert, nil
	}
	svc := newTestExampleService(repo, &mockQueue{})

	err = svc.ApplyCallback(context.Background(), cert.Key, CallbackResult{
		IsError:     true,
		ErrorReason: "cannot open template",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ExampleStatusError, cert.Status)
	assert.Equal(t, "cannot open template", cert.ErrorReason)
}

func TestExampleApplyCallbackUnknownKey(t *testing.T) {
	repo := newMockExampleRepo()
	svc := newTestExampleService(repo, &mockQueue{})

	err := svc.ApplyCallback(context.Background(), "deadbeef", CallbackResult{})

	assert.ErrorIs(t, err, ErrExampleCertificateNotFound)
	assert.Empty(t, repo.updatedCerts)
}
