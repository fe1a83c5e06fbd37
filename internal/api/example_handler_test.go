package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/certify-api/internal/domain"
)

// mockExampleRunner implements ExampleCertificateRunner for tests.
type mockExampleRunner struct {
	generateFn func(ctx context.Context, courseID string, modes []domain.CertificateMode) ([]*domain.ExampleCertificate, error)
	statusFn   func(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error)
}

func (m *mockExampleRunner) Generate(ctx context.Context, courseID string, modes []domain.CertificateMode) ([]*domain.ExampleCertificate, error) {
	return m.generateFn(ctx, courseID, modes)
}

func (m *mockExampleRunner) Status(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error) {
	return m.statusFn(ctx, courseID)
}

func doExampleRequest(handler http.HandlerFunc, method, body, courseID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/courses/"+courseID+"/example-certificates", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("courseID", courseID)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)

	rec := httptest.NewRecorder()
	handler(rec, req.WithContext(ctx))
	return rec
}

func newExampleCerts(t *testing.T, modes ...domain.CertificateMode) []*domain.ExampleCertificate {
	t.Helper()
	set, err := domain.NewExampleCertificateSet(testCourseID)
	require.NoError(t, err)

	certs := make([]*domain.ExampleCertificate, 0, len(modes))
	for _, mode := range modes {
		cert, err := domain.NewExampleCertificate(set.ID, testCourseID, mode)
		require.NoError(t, err)
		certs = append(certs, cert)
	}
	return certs
}

func TestExampleGenerateHandler(t *testing.T) {
	var gotModes []domain.CertificateMode
	svc := &mockExampleRunner{
		generateFn: func(ctx context.Context, courseID string, modes []domain.CertificateMode) ([]*domain.ExampleCertificate, error) {
			gotModes = modes
			return newExampleCerts(t, modes...), nil
		},
	}
	handler := NewExampleCertificateHandler(svc)

	body := `{"modes":["honor","verified"]}`
	rec := doExampleRequest(handler.Generate, http.MethodPost, body, testCourseID)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []domain.CertificateMode{domain.ModeHonor, domain.ModeVerified}, gotModes)

	var resp []ExampleCertificateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "started", resp[0].Status)
}

func TestExampleGenerateHandlerEmptyBody(t *testing.T) {
	svc := &mockExampleRunner{
		generateFn: func(ctx context.Context, courseID string, modes []domain.CertificateMode) ([]*domain.ExampleCertificate, error) {
			assert.Empty(t, modes)
			return newExampleCerts(t, domain.ModeHonor), nil
		},
	}
	handler := NewExampleCertificateHandler(svc)

	rec := doExampleRequest(handler.Generate, http.MethodPost, "", testCourseID)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestExampleGenerateHandlerUnknownMode(t *testing.T) {
	handler := NewExampleCertificateHandler(&mockExampleRunner{})

	rec := doExampleRequest(handler.Generate, http.MethodPost, `{"modes":["premium"]}`, testCourseID)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExampleStatusHandlerEmpty(t *testing.T) {
	svc := &mockExampleRunner{
		statusFn: func(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error) {
			return []*domain.ExampleCertificate{}, nil
		},
	}
	handler := NewExampleCertificateHandler(svc)

	rec := doExampleRequest(handler.Status, http.MethodGet, "", testCourseID)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestExampleStatusHandler(t *testing.T) {
	certs := newExampleCerts(t, domain.ModeHonor)
	require.NoError(t, certs[0].UpdateStatus(domain.ExampleStatusError, "template missing", ""))

	svc := &mockExampleRunner{
		statusFn: func(ctx context.Context, courseID string) ([]*domain.ExampleCertificate, error) {
			return certs, nil
		},
	}
	handler := NewExampleCertificateHandler(svc)

	rec := doExampleRequest(handler.Status, http.MethodGet, "", testCourseID)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []ExampleCertificateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "error", resp[0].Status)
	assert.Equal(t, "template missing", resp[0].ErrorReason)
}
