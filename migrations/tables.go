package migrations

import (
	"context"
	"database/sql"
)

// createUsersTable creates the users table.
func createUsersTable() Migration {
	return Migration{
		Name:        "create_users_table",
		Description: "Creates the users table",
		TableName:   "users",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			query := `
				CREATE TABLE IF NOT EXISTS users (
					user_id BIGSERIAL PRIMARY KEY,
					username VARCHAR(50) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					salt VARCHAR(255) NOT NULL,
					role VARCHAR(20) NOT NULL DEFAULT 'user',
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT idx_username UNIQUE (username)
				)
			`
			_, err := tx.ExecContext(ctx, query)
			return err
		},
	}
}

// createSessionsTable creates the sessions table along with the indexes the
// lifecycle engine depends on. The partial unique indexes enforce that a
// token fingerprint maps to at most one live session while still letting
// revoked rows with the same fingerprint linger for auditing.
func createSessionsTable() Migration {
	return Migration{
		Name:        "create_sessions_table",
		Description: "Creates the sessions table and its fingerprint indexes",
		TableName:   "sessions",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			query := `
				CREATE TABLE IF NOT EXISTS sessions (
					session_id TEXT PRIMARY KEY,
					user_id BIGINT NOT NULL,
					access_token_hash CHAR(64) NOT NULL,
					access_token_cipher TEXT NOT NULL,
					refresh_token_hash CHAR(64),
					refresh_token_cipher TEXT,
					status TEXT NOT NULL DEFAULT 'live'
						CHECK (status IN ('live', 'idle', 'revoked')),
					ip_address VARCHAR(45),
					user_agent TEXT,
					created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					last_active_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
					terminated_at TIMESTAMP,
					CONSTRAINT fk_user FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_access_hash_live
					ON sessions(access_token_hash) WHERE status = 'live';
				CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_refresh_hash_live
					ON sessions(refresh_token_hash) WHERE status = 'live';
				CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id);
				CREATE INDEX IF NOT EXISTS idx_sessions_last_active_at
					ON sessions(last_active_at) WHERE status = 'live';
			`
			_, err := tx.ExecContext(ctx, query)
			return err
		},
	}
}

// GetMigrations returns all migrations in execution order. Users must come
// first: sessions reference them.
func GetMigrations() []Migration {
	return []Migration{
		createUsersTable(),
		createSessionsTable(),
	}
}
