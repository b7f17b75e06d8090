//go:build !integration

package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	InitJWT("test-secret", time.Hour)

	token, err := GenerateJWT("42", "admin")
	require.NoError(t, err)

	claims, err := ParseJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.UserID)
	assert.Equal(t, "admin", claims.Role)

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp.Time, time.Minute)
}

func TestParseJWTRejectsForeignSecret(t *testing.T) {
	InitJWT("first-secret", time.Hour)
	token, err := GenerateJWT("1", "staff")
	require.NoError(t, err)

	InitJWT("second-secret", time.Hour)
	_, err = ParseJWT(token)
	assert.Error(t, err)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)

	assert.True(t, CheckPassword("s3cret!", string(hash)))
	assert.False(t, CheckPassword("wrong", string(hash)))
}
