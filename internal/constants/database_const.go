// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines table names, column names, and database
// error codes. Centralizing these prevents drift between the migrations, the
// repositories, and the query log redaction rules.
package constants

// Table names.
const (
	TableUsers    = "users"
	TableSessions = "sessions"
)

// Session table columns.
const (
	ColumnSessionID         = "session_id"
	ColumnUserID            = "user_id"
	ColumnAccessTokenHash   = "access_token_hash"
	ColumnAccessTokenCipher = "access_token_cipher"
	ColumnRefreshTokenHash  = "refresh_token_hash"
	ColumnRefreshTokenCiph  = "refresh_token_cipher"
	ColumnStatus            = "status"
	ColumnIPAddress         = "ip_address"
	ColumnUserAgent         = "user_agent"
	ColumnCreatedAt         = "created_at"
	ColumnLastActiveAt      = "last_active_at"
	ColumnTerminatedAt      = "terminated_at"
)

// User table columns referenced outside the user repository.
const (
	ColumnUsername     = "username"
	ColumnPasswordHash = "password_hash"
)

// Index names referenced when interpreting unique-violation errors.
const (
	IndexLiveAccessHash  = "idx_sessions_access_hash_live"
	IndexLiveRefreshHash = "idx_sessions_refresh_hash_live"
)

// PostgreSQL error codes.
const (
	// PGErrorDuplicateConstraint is the unique_violation SQLSTATE code.
	PGErrorDuplicateConstraint = "23505"

	// PGErrorForeignKeyViolation is the foreign_key_violation SQLSTATE code.
	PGErrorForeignKeyViolation = "23503"
)

// Database connection defaults.
const (
	DefaultDBMaxConnections = 25
	DefaultDBMinConnections = 5
)
