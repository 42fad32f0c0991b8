package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=2$"))

	ok, err := VerifyPassword("correct horse", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("battery staple", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSalts(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"plain",
		"$argon2id$v=19$m=65536,t=3,p=2$onlysalt",
		"$argon2id$v=18$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=3,p=2$c2FsdA$aGFzaA",
	} {
		_, err := VerifyPassword("pw", in)
		assert.Error(t, err, in)
	}
}

func TestVerifyPasswordRejectsOutOfBoundsParams(t *testing.T) {
	for _, params := range []string{"m=65536,t=0,p=1", "m=65536,t=3,p=0", "m=2097152,t=1,p=1", "m=4,t=1,p=1"} {
		encoded := "$argon2id$v=19$" + params + "$" + validSalt + "$" + validKey
		ok, err := VerifyPassword("secret", encoded)
		assert.ErrorIs(t, err, ErrMalformedHash, params)
		assert.False(t, ok)
	}
}
