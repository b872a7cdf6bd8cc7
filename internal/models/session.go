// Package models provides data structures and operations for the SessionWarden application.
// This file contains the session model, the central entity of the session
// validation and lifecycle engine. A session is created for every successful
// login, tracks the tokens issued for it, and carries the liveness state that
// decides whether a presented token is still authorized.
package models

import (
	"time"

	"github.com/sessionwarden/sessionwarden/internal/constants"
)

// SessionStatus is the lifecycle state of a session. A tagged state is used
// instead of a pair of booleans so the invalid combination "revoked but still
// active" cannot be represented.
type SessionStatus string

const (
	// StatusLive marks a session whose tokens are currently authorized.
	StatusLive SessionStatus = "live"

	// StatusIdle marks a session deactivated by the idle sweep. An idle
	// session is recoverable: presenting a still-valid token reactivates it.
	StatusIdle SessionStatus = "idle"

	// StatusRevoked marks a session terminated by an explicit logout or an
	// administrative action. Revoked is permanent; no code path transitions a
	// session out of it.
	StatusRevoked SessionStatus = "revoked"
)

// Session represents one login's server-side state.
//
// Token secrets are stored twice: a SHA-256 fingerprint used for indexed
// lookup, and an AES-GCM ciphertext kept for rotation bookkeeping and audit.
// The two columns of a pair are only ever written together, in a single
// statement, so a lookup can never resolve a fingerprint whose ciphertext
// belongs to a different token generation.
type Session struct {
	// ID is the unique identifier for this session, assigned at creation and
	// never reused across logins.
	ID string `json:"id" db:"session_id"`

	// UserID references the user who owns this session. A user may hold any
	// number of concurrent sessions (one per device/login).
	UserID int64 `json:"user_id" db:"user_id"`

	// AccessTokenHash is the fingerprint of the current access token.
	AccessTokenHash string `json:"-" db:"access_token_hash"`

	// AccessTokenCipher is the encrypted current access token.
	AccessTokenCipher string `json:"-" db:"access_token_cipher"`

	// RefreshTokenHash is the fingerprint of the current refresh token, empty
	// when refresh is disabled upstream. Empty refresh material is persisted
	// as NULL so the live-fingerprint unique index ignores it.
	RefreshTokenHash string `json:"-" db:"refresh_token_hash"`

	// RefreshTokenCipher is the encrypted current refresh token.
	RefreshTokenCipher string `json:"-" db:"refresh_token_cipher"`

	// Status is the lifecycle state. See SessionStatus.
	Status SessionStatus `json:"status" db:"status"`

	// IPAddress is the client network address at login. Immutable.
	IPAddress string `json:"ip_address" db:"ip_address"`

	// UserAgent is the client agent string at login. Immutable.
	UserAgent string `json:"user_agent" db:"user_agent"`

	// CreatedAt records when this session was initiated.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// LastActiveAt is the most recent persisted liveness touch. It only ever
	// advances, and only while the session is live.
	LastActiveAt time.Time `json:"last_active_at" db:"last_active_at"`

	// TerminatedAt records when the session was revoked; nil until then.
	TerminatedAt *time.Time `json:"terminated_at,omitempty" db:"terminated_at"`
}

// TableName returns the database table name for the Session model.
func (s *Session) TableName() string {
	return constants.TableSessions
}

// NewSession creates a live Session for the given owner and request context.
// Token hashes and ciphertexts are filled in by the lifecycle service, which
// owns the fingerprint/encryption step.
func NewSession(userID int64, ipAddress, userAgent string) *Session {
	now := time.Now().UTC()
	return &Session{
		UserID:       userID,
		Status:       StatusLive,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActiveAt: now,
	}
}

// IsLive reports whether the session currently authorizes its tokens.
func (s *Session) IsLive() bool {
	return s.Status == StatusLive
}

// CanReactivate reports whether the session may return to live status. Only
// idle sessions qualify; revocation is permanent.
func (s *Session) CanReactivate() bool {
	return s.Status == StatusIdle
}

// IdleSince reports whether the session's last activity is older than the
// given threshold.
func (s *Session) IdleSince(threshold time.Duration) bool {
	return time.Since(s.LastActiveAt) > threshold
}

// TokenRotation carries the replacement token material for a refresh
// rotation. Both pairs are swapped in a single statement so the stored
// fingerprints and ciphertexts always belong to the same token generation.
type TokenRotation struct {
	AccessTokenHash    string
	AccessTokenCipher  string
	RefreshTokenHash   string
	RefreshTokenCipher string
	RotatedAt          time.Time
}

// SessionInfo is the summary shape returned to users listing their own
// sessions. It exposes no token material.
type SessionInfo struct {
	ID           string        `json:"id"`
	UserID       int64         `json:"user_id"`
	Status       SessionStatus `json:"status"`
	IPAddress    string        `json:"ip_address"`
	UserAgent    string        `json:"user_agent"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActiveAt time.Time     `json:"last_active_at"`
}

// Info returns the user-facing summary of the session.
func (s *Session) Info() *SessionInfo {
	return &SessionInfo{
		ID:           s.ID,
		UserID:       s.UserID,
		Status:       s.Status,
		IPAddress:    s.IPAddress,
		UserAgent:    s.UserAgent,
		CreatedAt:    s.CreatedAt,
		LastActiveAt: s.LastActiveAt,
	}
}
