// Package repository provides data access interfaces and implementations for
// the SessionWarden application. It follows the repository pattern to abstract
// database operations and provide a clean API for data persistence.
//
// This file implements the session repository, which stores the server-side
// state of every login. Lifecycle transitions are expressed as conditional
// UPDATE statements so that concurrent requests, the background sweep and
// administrative revocation can race safely: each transition states its
// precondition in the WHERE clause and the affected row count says whether it
// won.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/sessionwarden/sessionwarden/internal/constants"
	"github.com/sessionwarden/sessionwarden/internal/database"
	"github.com/sessionwarden/sessionwarden/internal/models"
	"github.com/sessionwarden/sessionwarden/internal/utils"
)

// sessionColumns is the column list shared by every SELECT in this file.
const sessionColumns = `session_id, user_id, access_token_hash, access_token_cipher,
		refresh_token_hash, refresh_token_cipher, status, ip_address, user_agent,
		created_at, last_active_at, terminated_at`

// SessionRepository defines methods for interacting with sessions in the
// database. Transitions are idempotent where the lifecycle requires it:
// revoking an already revoked session reports success without touching the
// row, and a liveness touch that has been overtaken by a newer one is a no-op.
type SessionRepository interface {
	// Create adds a new session to the database.
	//
	// If the session ID is empty, a new UUID is generated automatically.
	//
	// Returns:
	//   - DuplicateError if a live session with the same token fingerprint exists
	//   - Other errors for database issues
	//   - nil on successful creation
	Create(ctx context.Context, session *models.Session) error

	// GetByID retrieves a session by its unique identifier.
	//
	// Returns:
	//   - The session if found
	//   - NotFoundError if the session doesn't exist
	GetByID(ctx context.Context, id string) (*models.Session, error)

	// GetByAccessTokenHash retrieves a session by its current access token
	// fingerprint, regardless of status. Callers decide what a revoked or idle
	// match means; the lookup itself is status-blind so a revoked session still
	// resolves and can be rejected explicitly.
	//
	// Returns:
	//   - The session if found
	//   - NotFoundError if no session carries the fingerprint
	GetByAccessTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)

	// GetByRefreshTokenHash retrieves a session by its current refresh token
	// fingerprint, regardless of status.
	GetByRefreshTokenHash(ctx context.Context, tokenHash string) (*models.Session, error)

	// GetByUserID retrieves all sessions owned by a user, newest first.
	GetByUserID(ctx context.Context, userID int64) ([]*models.Session, error)

	// ListAll retrieves a page of sessions ordered newest first, for the
	// administrative listing.
	ListAll(ctx context.Context, page, pageSize int) ([]*models.Session, int, error)

	// TouchLastActive advances a session's last activity timestamp. The update
	// only applies while the session is live and only moves the timestamp
	// forward; a stale touch that lost a race reports no error and no effect.
	//
	// Returns:
	//   - true if the timestamp advanced
	//   - false if the session is not live or a newer touch already landed
	TouchLastActive(ctx context.Context, id string, at time.Time) (bool, error)

	// Reactivate returns an idle session to live status and records the given
	// time as its last activity. Only idle sessions transition; a revoked or
	// already-live session is left untouched.
	//
	// Returns:
	//   - true if the session transitioned idle -> live
	//   - false otherwise
	Reactivate(ctx context.Context, id string, at time.Time) (bool, error)

	// MarkTerminated permanently revokes a session. Idempotent: revoking an
	// already revoked session succeeds without updating the row, preserving
	// the original termination time.
	MarkTerminated(ctx context.Context, id string, at time.Time) error

	// MarkTerminatedByUser permanently revokes every non-revoked session owned
	// by a user.
	//
	// Returns:
	//   - The number of sessions revoked by this call
	MarkTerminatedByUser(ctx context.Context, userID int64, at time.Time) (int64, error)

	// DeactivateIdle marks live sessions whose last activity predates the
	// threshold as idle. Used by the background sweep.
	//
	// Returns:
	//   - The number of sessions transitioned live -> idle
	DeactivateIdle(ctx context.Context, threshold time.Time) (int64, error)

	// RotateTokens atomically replaces a session's token pairs. The update is
	// guarded on the old refresh token fingerprint and live status, so of two
	// concurrent rotations presenting the same refresh token exactly one wins.
	//
	// Returns:
	//   - true if this call performed the rotation
	//   - false if the guard failed (already rotated, revoked, or idle)
	RotateTokens(ctx context.Context, id, oldRefreshHash string, rotation *models.TokenRotation) (bool, error)

	// DeleteInactive removes sessions that are no longer live and whose
	// termination or last activity predates the threshold. Used by the
	// retention purge.
	//
	// Returns:
	//   - The number of sessions deleted
	DeleteInactive(ctx context.Context, threshold time.Time) (int64, error)

	// Delete removes a single session row.
	//
	// Returns:
	//   - NotFoundError if the session doesn't exist
	Delete(ctx context.Context, id string) error

	// CountByStatus returns the number of sessions per lifecycle status.
	CountByStatus(ctx context.Context) (map[models.SessionStatus]int64, error)
}

// PostgresSessionRepository is a PostgreSQL implementation of SessionRepository.
type PostgresSessionRepository struct {
	db *database.Pool
}

// NewSessionRepository creates a new SessionRepository implementation for PostgreSQL.
//
// Parameters:
//   - db: A connection pool for PostgreSQL database access
//
// Returns:
//   - An implementation of the SessionRepository interface
func NewSessionRepository(db *database.Pool) SessionRepository {
	return &PostgresSessionRepository{
		db: db,
	}
}

// nullString maps an empty string to SQL NULL. The refresh token columns are
// NULL for sessions created without refresh material, so the partial unique
// index on live refresh fingerprints never collides on empties.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// scanSession scans one row into a Session. NULL refresh columns come back as
// empty strings.
func scanSession(row interface{ Scan(...interface{}) error }) (*models.Session, error) {
	session := &models.Session{}
	var refreshHash, refreshCipher sql.NullString
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.AccessTokenHash,
		&session.AccessTokenCipher,
		&refreshHash,
		&refreshCipher,
		&session.Status,
		&session.IPAddress,
		&session.UserAgent,
		&session.CreatedAt,
		&session.LastActiveAt,
		&session.TerminatedAt,
	)
	if err != nil {
		return nil, err
	}
	session.RefreshTokenHash = refreshHash.String
	session.RefreshTokenCipher = refreshCipher.String
	return session, nil
}

// Create adds a new session to the database.
func (r *PostgresSessionRepository) Create(ctx context.Context, session *models.Session) error {
	// Start query timer
	startTime := time.Now()

	// Generate a unique ID if not already set
	if session.ID == "" {
		session.ID = uuid.New().String()
	}

	// Define the query
	query := `
		INSERT INTO sessions (session_id, user_id, access_token_hash, access_token_cipher,
			refresh_token_hash, refresh_token_cipher, status, ip_address, user_agent,
			created_at, last_active_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	// Execute the query
	_, err := r.db.ExecContext(
		ctx,
		query,
		session.ID,
		session.UserID,
		session.AccessTokenHash,
		session.AccessTokenCipher,
		nullString(session.RefreshTokenHash),
		nullString(session.RefreshTokenCipher),
		session.Status,
		session.IPAddress,
		session.UserAgent,
		session.CreatedAt,
		session.LastActiveAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{session.ID, session.UserID, session.Status, session.IPAddress},
		time.Since(startTime),
		err,
	)

	if err != nil {
		// Check for unique constraint violations
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == constants.PGErrorDuplicateConstraint {
				if pqErr.Constraint == "sessions_pkey" {
					return utils.NewDuplicateError("Session", "id", session.ID)
				}
				if pqErr.Constraint == constants.IndexLiveAccessHash ||
					pqErr.Constraint == constants.IndexLiveRefreshHash {
					return utils.NewDuplicateError("Session", constants.ColumnAccessTokenHash, "[fingerprint]")
				}
			}
		}
		return fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().
		Str(constants.ColumnSessionID, session.ID).
		Int64(constants.ColumnUserID, session.UserID).
		Str(constants.ColumnIPAddress, session.IPAddress).
		Msg("Session created")

	return nil
}

// GetByID retrieves a session by ID.
func (r *PostgresSessionRepository) GetByID(ctx context.Context, id string) (*models.Session, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE session_id = $1
	`

	// Execute the query
	session, err := scanSession(r.db.QueryRowContext(ctx, query, id))

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{id},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Session", id)
		}
		return nil, fmt.Errorf("failed to get session by ID: %w", err)
	}

	return session, nil
}

// GetByAccessTokenHash retrieves a session by its access token fingerprint.
func (r *PostgresSessionRepository) GetByAccessTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	return r.getByTokenHash(ctx, constants.ColumnAccessTokenHash, tokenHash)
}

// GetByRefreshTokenHash retrieves a session by its refresh token fingerprint.
func (r *PostgresSessionRepository) GetByRefreshTokenHash(ctx context.Context, tokenHash string) (*models.Session, error) {
	return r.getByTokenHash(ctx, constants.ColumnRefreshTokenHash, tokenHash)
}

// getByTokenHash resolves a fingerprint against the named column. The lookup
// is deliberately status-blind; the caller interprets the status.
func (r *PostgresSessionRepository) getByTokenHash(ctx context.Context, column, tokenHash string) (*models.Session, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE ` + column + ` = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	// Execute the query
	session, err := scanSession(r.db.QueryRowContext(ctx, query, tokenHash))

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{tokenHash},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("Session", "token fingerprint")
		}
		return nil, fmt.Errorf("failed to get session by token fingerprint: %w", err)
	}

	return session, nil
}

// GetByUserID retrieves all sessions for a user, newest first.
func (r *PostgresSessionRepository) GetByUserID(ctx context.Context, userID int64) ([]*models.Session, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	// Execute the query
	rows, err := r.db.QueryContext(ctx, query, userID)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{userID},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get sessions by user ID: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	// Parse the results
	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, nil
}

// ListAll retrieves a page of sessions ordered newest first.
func (r *PostgresSessionRepository) ListAll(ctx context.Context, page, pageSize int) ([]*models.Session, int, error) {
	// Start query timer
	startTime := time.Now()

	// Count total rows first
	var total int
	countQuery := `SELECT COUNT(*) FROM sessions`
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sessions: %w", err)
	}

	// Define the query
	query := `
		SELECT ` + sessionColumns + `
		FROM sessions
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	offset := (page - 1) * pageSize
	rows, err := r.db.QueryContext(ctx, query, pageSize, offset)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{pageSize, offset},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	var sessions []*models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan session row: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating session rows: %w", err)
	}

	return sessions, total, nil
}

// TouchLastActive advances the last activity timestamp of a live session.
// The last_active_at guard makes the write monotonic: a touch carrying an
// older timestamp than the stored one affects zero rows.
func (r *PostgresSessionRepository) TouchLastActive(ctx context.Context, id string, at time.Time) (bool, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		UPDATE sessions
		SET last_active_at = $2
		WHERE session_id = $1 AND status = 'live' AND last_active_at < $2
	`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, id, at)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{id, at},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return false, fmt.Errorf("failed to touch session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// Reactivate returns an idle session to live status.
func (r *PostgresSessionRepository) Reactivate(ctx context.Context, id string, at time.Time) (bool, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		UPDATE sessions
		SET status = 'live', last_active_at = $2
		WHERE session_id = $1 AND status = 'idle'
	`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, id, at)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{id, at},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return false, fmt.Errorf("failed to reactivate session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		log.Info().
			Str(constants.ColumnSessionID, id).
			Msg("Session reactivated")
	}

	return rowsAffected > 0, nil
}

// MarkTerminated permanently revokes a session. The status guard keeps the
// operation idempotent and preserves the original terminated_at.
func (r *PostgresSessionRepository) MarkTerminated(ctx context.Context, id string, at time.Time) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		UPDATE sessions
		SET status = 'revoked', terminated_at = $2
		WHERE session_id = $1 AND status <> 'revoked'
	`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, id, at)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{id, at},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to terminate session: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Either the session doesn't exist or it is already revoked. The
		// second case is a success; distinguish with a cheap existence check.
		var exists bool
		checkQuery := `SELECT EXISTS(SELECT 1 FROM sessions WHERE session_id = $1)`
		if err := r.db.QueryRowContext(ctx, checkQuery, id).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check session existence: %w", err)
		}
		if !exists {
			return utils.NewNotFoundError("Session", id)
		}
		return nil
	}

	log.Info().
		Str(constants.ColumnSessionID, id).
		Msg("Session terminated")

	return nil
}

// MarkTerminatedByUser permanently revokes every non-revoked session of a user.
func (r *PostgresSessionRepository) MarkTerminatedByUser(ctx context.Context, userID int64, at time.Time) (int64, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		UPDATE sessions
		SET status = 'revoked', terminated_at = $2
		WHERE user_id = $1 AND status <> 'revoked'
	`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, userID, at)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{userID, at},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return 0, fmt.Errorf("failed to terminate sessions for user: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info().
		Int64(constants.ColumnUserID, userID).
		Int64("count", count).
		Msg("Sessions terminated for user")

	return count, nil
}

// DeactivateIdle marks stale live sessions idle.
func (r *PostgresSessionRepository) DeactivateIdle(ctx context.Context, threshold time.Time) (int64, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		UPDATE sessions
		SET status = 'idle'
		WHERE status = 'live' AND last_active_at < $1
	`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, threshold)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{threshold},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return 0, fmt.Errorf("failed to deactivate idle sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if count > 0 {
		log.Info().
			Int64("count", count).
			Time("threshold", threshold).
			Msg("Idle sessions deactivated")
	}

	return count, nil
}

// RotateTokens atomically replaces the token pairs of a live session. The
// guard on the old refresh fingerprint is what resolves concurrent rotations:
// the loser's fingerprint no longer matches, it affects zero rows, and its
// caller falls back to the generic authentication failure. A rotation carrying
// no new refresh material updates the access pair only; the stored refresh
// columns are not touched.
func (r *PostgresSessionRepository) RotateTokens(ctx context.Context, id, oldRefreshHash string, rotation *models.TokenRotation) (bool, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		UPDATE sessions
		SET access_token_hash = $3, access_token_cipher = $4,
			refresh_token_hash = $5, refresh_token_cipher = $6,
			last_active_at = $7
		WHERE session_id = $1 AND refresh_token_hash = $2 AND status = 'live'
	`
	args := []interface{}{
		id,
		oldRefreshHash,
		rotation.AccessTokenHash,
		rotation.AccessTokenCipher,
		rotation.RefreshTokenHash,
		rotation.RefreshTokenCipher,
		rotation.RotatedAt,
	}

	if rotation.RefreshTokenHash == "" {
		query = `
			UPDATE sessions
			SET access_token_hash = $3, access_token_cipher = $4,
				last_active_at = $5
			WHERE session_id = $1 AND refresh_token_hash = $2 AND status = 'live'
		`
		args = []interface{}{
			id,
			oldRefreshHash,
			rotation.AccessTokenHash,
			rotation.AccessTokenCipher,
			rotation.RotatedAt,
		}
	}

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, args...)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{id, oldRefreshHash},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return false, fmt.Errorf("failed to rotate session tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		log.Info().
			Str(constants.ColumnSessionID, id).
			Msg("Session tokens rotated")
	}

	return rowsAffected > 0, nil
}

// DeleteInactive removes non-live sessions past the retention threshold.
func (r *PostgresSessionRepository) DeleteInactive(ctx context.Context, threshold time.Time) (int64, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		DELETE FROM sessions
		WHERE status <> 'live'
		  AND COALESCE(terminated_at, last_active_at) < $1
	`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, threshold)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{threshold},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return 0, fmt.Errorf("failed to delete inactive sessions: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	log.Info().
		Int64("count", count).
		Msg("Inactive sessions deleted")

	return count, nil
}

// Delete removes a session from the database.
func (r *PostgresSessionRepository) Delete(ctx context.Context, id string) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `DELETE FROM sessions WHERE session_id = $1`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, id)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{id},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	// Check if any rows were affected
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return utils.NewNotFoundError("Session", id)
	}

	log.Info().
		Str(constants.ColumnSessionID, id).
		Msg("Session deleted")

	return nil
}

// CountByStatus returns session counts per lifecycle status.
func (r *PostgresSessionRepository) CountByStatus(ctx context.Context) (map[models.SessionStatus]int64, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `SELECT status, COUNT(*) FROM sessions GROUP BY status`

	// Execute the query
	rows, err := r.db.QueryContext(ctx, query)

	// Log the query execution
	utils.LogDBQuery(
		query,
		nil,
		time.Since(startTime),
		err,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to count sessions by status: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Error().Err(closeErr).Msg("failed to close rows")
		}
	}()

	counts := make(map[models.SessionStatus]int64)
	for rows.Next() {
		var status models.SessionStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}

	return counts, nil
}
