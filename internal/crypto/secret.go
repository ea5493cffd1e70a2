package crypto

import (
	"crypto/rand"
	"math/big"
)

// SecretAlphabet is the character set used for generated credentials and
// WordPress keys. It contains no quote or backslash, so generated values
// can be embedded in single-quoted PHP strings verbatim.
const SecretAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// DefaultPasswordLength is the length of generated database passwords.
const DefaultPasswordLength = 16

// GenerateSecret returns a string of exactly length characters drawn
// uniformly from SecretAlphabet using the OS CSPRNG. It panics if the
// random source fails.
func GenerateSecret(length int) string {
	if length <= 0 {
		return ""
	}
	max := big.NewInt(int64(len(SecretAlphabet)))
	b := make([]byte, length)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand: " + err.Error())
		}
		b[i] = SecretAlphabet[n.Int64()]
	}
	return string(b)
}

// GeneratePassword returns a database password of DefaultPasswordLength.
func GeneratePassword() string {
	return GenerateSecret(DefaultPasswordLength)
}
