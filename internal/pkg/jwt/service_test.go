package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACService_RoundTrip(t *testing.T) {
	svc := NewHMACService("secret", time.Minute, "staff-match")

	tok, err := svc.GenerateAccessToken("recruiter-7", "recruiter")
	require.NoError(t, err)

	c, err := svc.ValidateToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "recruiter-7", c.ActorID)
	assert.Equal(t, "recruiter-7", c.Subject)
	assert.Equal(t, "recruiter", c.Role)
}

func TestHMACService_Expired(t *testing.T) {
	svc := NewHMACService("secret", time.Minute, "")
	issued := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	tok, err := svc.GenerateAccessToken("a", "")
	require.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = svc.ValidateToken(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestHMACService_Rejects(t *testing.T) {
	svc := NewHMACService("secret", time.Minute, "staff-match")

	other, err := NewHMACService("other", time.Minute, "staff-match").GenerateAccessToken("a", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(other)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	wrongIssuer, err := NewHMACService("secret", time.Minute, "elsewhere").GenerateAccessToken("a", "")
	require.NoError(t, err)
	_, err = svc.ValidateToken(wrongIssuer)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	refresh := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, Claims{
		ActorID:   "a",
		TokenType: "refresh",
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    "staff-match",
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	signed, err := refresh.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(signed)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = svc.GenerateAccessToken(" ", "")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
