package api

import (
	"testing"
	"time"

	"challenger/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToken(t *testing.T) {
	cfg := config.NewTestConfig()

	t.Run("round trip", func(t *testing.T) {
		userID := uuid.New()
		token, err := GenerateToken(cfg, userID, "player@example.com", time.Hour)
		require.NoError(t, err)

		claims, err := ParseToken(cfg, token)
		require.NoError(t, err)
		assert.Equal(t, userID.String(), claims.Subject)
		assert.Equal(t, "player@example.com", claims.Email)
	})

	t.Run("subject must be a uuid", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			Issuer:    cfg.JWTIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
		require.NoError(t, err)

		_, err = ParseToken(cfg, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("issuer must match", func(t *testing.T) {
		other := config.NewTestConfig()
		other.JWTIssuer = "someone-else"
		token, err := GenerateToken(other, uuid.New(), "", time.Hour)
		require.NoError(t, err)

		_, err = ParseToken(cfg, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm is rejected", func(t *testing.T) {
		claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject: uuid.New().String(),
			Issuer:  cfg.JWTIssuer,
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ParseToken(cfg, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
