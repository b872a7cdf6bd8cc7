// Package models provides data structures and operations for the SessionWarden application.
package models

import (
	"time"

	"github.com/sessionwarden/sessionwarden/internal/constants"
)

// User is the authenticated principal that owns sessions. SessionWarden is not
// an identity provider; this model carries only what the login collaborator
// and ownership checks need.
type User struct {
	ID           int64     `json:"user_id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Salt         string    `json:"-" db:"salt"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Roles understood by the admin routes.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// TableName returns the database table name for the User model.
func (u *User) TableName() string {
	return constants.TableUsers
}

// IsAdmin reports whether the user may call the administrative session API.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Sanitize returns a copy safe to serialize to clients.
func (u *User) Sanitize() *User {
	clean := *u
	clean.PasswordHash = ""
	clean.Salt = ""
	return &clean
}

// UserCredentials is the login request payload.
type UserCredentials struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=8"`
}
