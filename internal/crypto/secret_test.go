package crypto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSecret_Length(t *testing.T) {
	for _, n := range []int{1, 16, 64, 200} {
		assert.Len(t, GenerateSecret(n), n)
	}
	assert.Equal(t, "", GenerateSecret(0))
}

func TestGenerateSecret_Alphabet(t *testing.T) {
	s := GenerateSecret(2048)
	for _, c := range s {
		require.True(t, strings.ContainsRune(SecretAlphabet, c), "unexpected character %q", c)
	}
}

func TestGenerateSecret_Distinct(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		s := GenerateSecret(64)
		assert.False(t, seen[s], "duplicate secret generated")
		seen[s] = true
	}
}

func TestGeneratePassword(t *testing.T) {
	assert.Len(t, GeneratePassword(), DefaultPasswordLength)
}

func TestHashPassword_Verify(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

	assert.True(t, VerifyPassword("correct horse", hash))
	assert.False(t, VerifyPassword("wrong horse", hash))
}

func TestVerifyPassword_Malformed(t *testing.T) {
	assert.False(t, VerifyPassword("x", ""))
	assert.False(t, VerifyPassword("x", "$bcrypt$v=19$m=1,t=1,p=1$aa$bb"))
	assert.False(t, VerifyPassword("x", "$argon2id$v=19$m=1,t=1$aa$bb"))
	assert.False(t, VerifyPassword("x", "$argon2id$v=19$m=1,t=1,p=1$!!$bb"))
}
