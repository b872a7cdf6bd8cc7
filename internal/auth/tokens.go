// Package auth provides authentication primitives for the SessionWarden
// application: token fingerprinting and encryption, JWT issuance and
// validation, password hashing, and request identity middleware.
package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/sessionwarden/sessionwarden/internal/constants"
)

// TokenVault derives lookup fingerprints from bearer tokens and encrypts the
// token material held at rest. Fingerprints are one-way; ciphertexts are
// reversible only with the vault key.
type TokenVault struct {
	encryptionKey []byte
}

// NewTokenVault creates a vault from the configured encryption key.
//
// Parameters:
//   - encryptionKey: The AES-256 key material (must be at least 32 bytes)
//
// Returns:
//   - A configured vault
//   - An error if the key is too short
func NewTokenVault(encryptionKey []byte) (*TokenVault, error) {
	if len(encryptionKey) < constants.MinEncryptionKeyLength {
		return nil, fmt.Errorf("encryption key must be at least %d bytes, got %d",
			constants.MinEncryptionKeyLength, len(encryptionKey))
	}
	return &TokenVault{encryptionKey: encryptionKey}, nil
}

// Fingerprint computes the SHA-256 hex fingerprint of a token. The same token
// always yields the same fingerprint, which is what makes the indexed session
// lookup work.
func (v *TokenVault) Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Encrypt encrypts a token using AES-256-GCM and returns the base64-encoded
// ciphertext with the nonce prepended.
func (v *TokenVault) Encrypt(token string) (string, error) {
	block, err := aes.NewCipher(v.encryptionKey[:32])
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to create nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(token), nil)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a token that was encrypted with Encrypt. It fails closed:
// any tampering or key mismatch surfaces as an error, never as garbage
// plaintext.
func (v *TokenVault) Decrypt(encryptedToken string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedToken)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64: %w", err)
	}

	block, err := aes.NewCipher(v.encryptionKey[:32])
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonceSize := gcm.NonceSize()
	if len(ciphertext) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	nonce, ciphertext := ciphertext[:nonceSize], ciphertext[nonceSize:]

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}

	return string(plaintext), nil
}
