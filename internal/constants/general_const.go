// Package constants provides shared constant values used throughout the application.
//
// The general_const.go file defines general-purpose constants related to routing
// and request parameters. These constants ensure consistent API patterns and URL
// structure throughout the application.
package constants

// Base Routes define the root URL paths for different parts of the API.
const (
	// APIBasePath is the root path prefix for all API endpoints.
	APIBasePath = "/api"

	// HealthPath is the endpoint for health checks and system status.
	HealthPath = "/health"

	// VersionPath is the endpoint for build/version information.
	VersionPath = "/version"
)

// URL Parameters define path parameter names used in route definitions.
const (
	// ParamSessionID is the URL parameter for session identifiers.
	ParamSessionID = "sessionID"

	// ParamUserID is the URL parameter for user identifiers.
	ParamUserID = "userID"
)

// Query Parameters define common query string parameter names.
const (
	// QueryParamPage is the query parameter for pagination page number.
	QueryParamPage = "page"

	// QueryParamPageSize is the query parameter for pagination page size.
	QueryParamPageSize = "page_size"
)

// Context keys used to stash authenticated request state. The auth package
// wraps these in a typed ContextKey to avoid collisions.
const (
	UserIDContextKey    = "user_id"
	UsernameContextKey  = "username"
	RoleContextKey      = "role"
	SessionContextKey   = "session"
	RequestIDContextKey = "request_id"
)

// Environment names recognized by the configuration layer.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// Response envelope flags.
const (
	ResponseSuccess = true
	ResponseFailure = false
)

// LogRedactedValue replaces sensitive values in query logs.
const LogRedactedValue = "[REDACTED]"
