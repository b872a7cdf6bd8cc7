// Package constants provides shared constant values used throughout the application.
//
// The securityparams.go file defines security-sensitive parameters: token
// handling, encryption key requirements, and password hashing settings.
package constants

// Bearer token handling.
const (
	// BearerTokenPrefix is the expected prefix on the Authorization header.
	BearerTokenPrefix = "Bearer "

	// TokenTypeAccess and TokenTypeRefresh identify the two token flavors
	// carried in JWT claims.
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Encryption requirements.
const (
	// EnvSessionEncryptionKey is the environment variable carrying the token
	// encryption key. The key is env-only and never read from a config file.
	EnvSessionEncryptionKey = "SESSION_ENCRYPTION_KEY"

	// MinEncryptionKeyLength is the minimum byte length for the session token
	// encryption key (AES-256 requires a 32-byte key). A configuration that
	// fails this check is rejected at startup; there is no plaintext fallback.
	MinEncryptionKeyLength = 32

	// FingerprintLength is the hex length of a SHA-256 token fingerprint.
	FingerprintLength = 64
)

// Password hashing (argon2id) defaults.
const (
	DefaultPasswordHashMemory      = 64 * 1024
	DefaultPasswordHashIterations  = 3
	DefaultPasswordHashParallelism = 2
	DefaultPasswordHashSaltLength  = 16
	DefaultPasswordHashKeyLength   = 32

	DevPasswordHashMemory     = 16 * 1024
	DevPasswordHashIterations = 1
)

// Credential validation bounds.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 32
	MinPasswordLength = 8
)

// MaxRequestBodySize bounds JSON request bodies.
const MaxRequestBodySize = 1 << 20
