package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerificationToken_RoundTrip(t *testing.T) {
	token, err := GenerateVerificationToken(42, "fp-abc", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateVerificationToken(token, "secret")
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "fp-abc", claims.Fingerprint)
	assert.Equal(t, PurposeVerifyEmail, claims.Purpose)
	assert.Equal(t, "42", claims.Subject)
}

func TestValidateVerificationToken_Rejects(t *testing.T) {
	token, err := GenerateVerificationToken(42, "fp", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateVerificationToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ValidateVerificationToken(token+"x", "secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ValidateVerificationToken("garbage", "secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	expired, err := GenerateVerificationToken(42, "fp", "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ValidateVerificationToken(expired, "secret")
	assert.ErrorIs(t, err, ErrTokenExpired)
}
