package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveKey_PurposeSeparates(t *testing.T) {
	a, err := DeriveKey("secret", "one")
	require.NoError(t, err)
	b, err := DeriveKey("secret", "two")
	require.NoError(t, err)
	again, err := DeriveKey("secret", "one")
	require.NoError(t, err)

	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, again)
}

func TestSealer_RoundTrip(t *testing.T) {
	key, err := DeriveKey("secret", "seal")
	require.NoError(t, err)
	s, err := NewSealer(key)
	require.NoError(t, err)

	sealed, err := s.Seal("$2a$10$hash", "jti-1")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "$2a$")

	opened, err := s.Open(sealed, "jti-1")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$hash", opened)

	_, err = s.Open(sealed, "jti-2")
	assert.Error(t, err, "associated data is bound")
	flipped := byte('A')
	if sealed[0] == 'A' {
		flipped = 'B'
	}
	_, err = s.Open(string(flipped)+sealed[1:], "jti-1")
	assert.Error(t, err, "tampered payload")
	_, err = s.Open("@@", "jti-1")
	assert.Error(t, err)
}

func TestOTPDigest(t *testing.T) {
	key := []byte("k")
	digest := OTPDigest(key, "jti-1", "123456")

	assert.NotContains(t, digest, "123456")
	assert.True(t, MatchOTPDigest(key, "jti-1", "123456", digest))
	assert.False(t, MatchOTPDigest(key, "jti-1", "123457", digest))
	assert.False(t, MatchOTPDigest(key, "jti-2", "123456", digest))
	assert.False(t, MatchOTPDigest([]byte("other"), "jti-1", "123456", digest))
}
