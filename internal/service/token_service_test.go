package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/classpulse-api/internal/models"
	appErrors "github.com/noah-isme/classpulse-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "school-idp", TTL: time.Hour})

	token, expiresAt, err := svc.Issue("teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Minute)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "teacher-1", claims.UserID)
	assert.Equal(t, models.RoleTeacher, claims.Role)
}

func TestTokenServiceRejects(t *testing.T) {
	svc := NewTokenService(TokenConfig{Secret: "secret", Issuer: "school-idp", TTL: time.Hour})

	other := NewTokenService(TokenConfig{Secret: "other", Issuer: "school-idp"})
	forged, _, err := other.Issue("teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	_, err = svc.ValidateToken(forged)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	wrongIssuer := NewTokenService(TokenConfig{Secret: "secret", Issuer: "elsewhere"})
	token, _, err := wrongIssuer.Issue("teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.Error(t, err)

	expired := NewTokenService(TokenConfig{Secret: "secret", Issuer: "school-idp", TTL: time.Minute})
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	token, _, err = expired.Issue("teacher-1", models.RoleTeacher)
	require.NoError(t, err)
	_, err = svc.ValidateToken(token)
	require.Error(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &models.JWTClaims{Role: models.RoleAdmin}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(none)
	require.Error(t, err)

	noRole, _, err := svc.Issue("teacher-1", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(noRole)
	require.Error(t, err)
}
