package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/matflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() *TokenValidator {
	return NewTokenValidator(config.JWTConfig{
		Secret: "test-secret-key-at-least-32-chars",
		Issuer: "matflow-test",
	})
}

func TestTokenValidator_RoundTrip(t *testing.T) {
	v := newTestValidator()
	userID := uuid.New()

	token, err := v.Issue(userID, "planner", time.Minute)
	require.NoError(t, err)

	claims, err := v.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "planner", claims.Username)
	assert.Equal(t, "matflow-test", claims.Issuer)

	actor, err := v.ActorID(token)
	require.NoError(t, err)
	assert.Equal(t, userID, actor)
}

func TestTokenValidator_Rejects(t *testing.T) {
	v := newTestValidator()
	userID := uuid.New()

	expired, err := v.Issue(userID, "", -time.Minute)
	require.NoError(t, err)

	otherSecret, err := NewTokenValidator(config.JWTConfig{Secret: "another-secret", Issuer: "matflow-test"}).
		Issue(userID, "", time.Minute)
	require.NoError(t, err)

	otherIssuer, err := NewTokenValidator(config.JWTConfig{Secret: "test-secret-key-at-least-32-chars", Issuer: "someone-else"}).
		Issue(userID, "", time.Minute)
	require.NoError(t, err)

	noUser, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "matflow-test",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}).SignedString([]byte("test-secret-key-at-least-32-chars"))
	require.NoError(t, err)

	notYet, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "matflow-test",
			NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: userID.String(),
	}).SignedString([]byte("test-secret-key-at-least-32-chars"))
	require.NoError(t, err)

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"garbage", "not-a-token", ErrInvalidToken},
		{"expired", expired, ErrExpiredToken},
		{"not yet valid", notYet, ErrTokenNotYetValid},
		{"wrong secret", otherSecret, ErrInvalidToken},
		{"wrong issuer", otherIssuer, ErrInvalidToken},
		{"missing user id", noUser, ErrMissingUserID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate(tt.token)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTokenValidator_RejectsOtherAlgorithms(t *testing.T) {
	v := newTestValidator()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Issuer: "matflow-test"},
		UserID:           uuid.NewString(),
	}).SignedString([]byte("test-secret-key-at-least-32-chars"))
	require.NoError(t, err)

	_, err = v.Validate(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClaims_UserUUID(t *testing.T) {
	_, err := (&Claims{UserID: "nope"}).UserUUID()
	assert.ErrorIs(t, err, ErrMissingUserID)

	_, err = (&Claims{UserID: uuid.Nil.String()}).UserUUID()
	assert.ErrorIs(t, err, ErrMissingUserID)
}
