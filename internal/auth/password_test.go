package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Low-cost parameters so the suite stays fast
func testPasswordConfig() *PasswordConfig {
	return &PasswordConfig{
		Memory:      16 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashPassword_VerifiesCorrectPassword(t *testing.T) {
	cfg := testPasswordConfig()

	hash, salt, err := HashPassword("correct horse battery staple", cfg)
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	require.NotEmpty(t, salt)

	match, err := VerifyPassword("correct horse battery staple", hash, salt, cfg)
	require.NoError(t, err)
	assert.True(t, match)
}

func TestVerifyPassword_RejectsWrongPassword(t *testing.T) {
	cfg := testPasswordConfig()

	hash, salt, err := HashPassword("correct horse battery staple", cfg)
	require.NoError(t, err)

	match, err := VerifyPassword("wrong password", hash, salt, cfg)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestHashPassword_SaltsAreUnique(t *testing.T) {
	cfg := testPasswordConfig()

	hash1, salt1, err := HashPassword("password1", cfg)
	require.NoError(t, err)
	hash2, salt2, err := HashPassword("password1", cfg)
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestVerifyPassword_RejectsMalformedEncoding(t *testing.T) {
	cfg := testPasswordConfig()

	_, err := VerifyPassword("password", "!!not-base64!!", "c2FsdA==", cfg)
	assert.Error(t, err)

	_, err = VerifyPassword("password", "aGFzaA==", "!!not-base64!!", cfg)
	assert.Error(t, err)
}

func TestGenerateRandomBytes(t *testing.T) {
	b1, err := GenerateRandomBytes(32)
	require.NoError(t, err)
	assert.Len(t, b1, 32)

	b2, err := GenerateRandomBytes(32)
	require.NoError(t, err)
	assert.NotEqual(t, b1, b2)
}
