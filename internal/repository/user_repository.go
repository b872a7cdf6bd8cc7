// Package repository provides data access interfaces and implementations for
// the SessionWarden application.
//
// This file implements the user repository. The engine is not an identity
// provider; users exist so logins can be verified and sessions can be tied to
// an owner.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/sessionwarden/sessionwarden/internal/constants"
	"github.com/sessionwarden/sessionwarden/internal/database"
	"github.com/sessionwarden/sessionwarden/internal/models"
	"github.com/sessionwarden/sessionwarden/internal/utils"
)

// UserRepository defines methods for interacting with users in the database.
type UserRepository interface {
	// Create adds a new user to the database and fills in the generated ID.
	//
	// Returns:
	//   - DuplicateError if the username is taken
	//   - Other errors for database issues
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID.
	//
	// Returns:
	//   - NotFoundError if the user doesn't exist
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByUsername retrieves a user by username.
	//
	// Returns:
	//   - NotFoundError if the user doesn't exist
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// PostgresUserRepository is a PostgreSQL implementation of UserRepository.
type PostgresUserRepository struct {
	db *database.Pool
}

// NewUserRepository creates a new UserRepository implementation for PostgreSQL.
func NewUserRepository(db *database.Pool) UserRepository {
	return &PostgresUserRepository{
		db: db,
	}
}

// Create adds a new user to the database.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	// Start query timer
	startTime := time.Now()

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}

	// Define the query
	query := `
		INSERT INTO users (username, password_hash, salt, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING user_id
	`

	// Execute the query
	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.PasswordHash,
		user.Salt,
		user.Role,
		user.CreatedAt,
	).Scan(&user.ID)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{user.Username, user.Role, user.CreatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == constants.PGErrorDuplicateConstraint {
				return utils.NewDuplicateError("User", constants.ColumnUsername, user.Username)
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Int64(constants.ColumnUserID, user.ID).
		Str(constants.ColumnUsername, user.Username).
		Msg("User created")

	return nil
}

// GetByID retrieves a user by ID.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT user_id, username, password_hash, salt, role, created_at
		FROM users
		WHERE user_id = $1
	`

	// Execute the query
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Salt,
		&user.Role,
		&user.CreatedAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{id},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("User", id)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username.
func (r *PostgresUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT user_id, username, password_hash, salt, role, created_at
		FROM users
		WHERE username = $1
	`

	// Execute the query
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Salt,
		&user.Role,
		&user.CreatedAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{username},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("User", username)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}
