package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/certify-api/internal/config"
)

const testSecret = "test-secret-key-thats-long-enough-for-hmac"

func newTestJWTService(t *testing.T) *hmacJWTService {
	t.Helper()
	svc, err := NewJWTService(config.AuthConfig{JWTSecret: testSecret})
	require.NoError(t, err)
	return svc.(*hmacJWTService)
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	_, err := NewJWTService(config.AuthConfig{JWTSecret: "too-short"})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)
	subjectID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), subjectID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, subjectID, claims.SubjectID)
	assert.Equal(t, subjectID.String(), claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateTokenExpired(t *testing.T) {
	svc := newTestJWTService(t)
	subjectID := uuid.New()

	issued := time.Now().Add(-2 * tokenLifetime)
	svc.timeFunc = func() time.Time { return issued }
	token, err := svc.GenerateToken(context.Background(), subjectID)
	require.NoError(t, err)

	svc.timeFunc = time.Now
	_, err = svc.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	svc := newTestJWTService(t)
	token, err := svc.GenerateToken(context.Background(), uuid.New())
	require.NoError(t, err)

	other, err := NewJWTService(config.AuthConfig{JWTSecret: "another-secret-key-thats-long-enough-too"})
	require.NoError(t, err)

	_, err = other.ValidateToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenMalformed(t *testing.T) {
	svc := newTestJWTService(t)

	_, err := svc.ValidateToken(context.Background(), "not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
