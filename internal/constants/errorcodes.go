// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines machine-readable error codes and the
// user-facing messages paired with them. Error codes are stable API surface;
// messages may be reworded without breaking clients.
package constants

// Machine-readable error codes returned in the error envelope.
const (
	CodeAuthenticationFailed = "authentication_failed"
	CodeInvalidCredentials   = "invalid_credentials"
	CodeSessionTerminated    = "session_terminated"
	CodeTokenExpired         = "token_expired"
	CodeInvalidToken         = "invalid_token"
	CodeForbidden            = "forbidden"
	CodeNotFound             = "not_found"
	CodeValidationError      = "validation_error"
	CodeBadRequest           = "bad_request"
	CodeDuplicateResource    = "duplicate_resource"
	CodeInternalError        = "internal_error"
	CodeServiceUnavailable   = "service_unavailable"
)

// User-facing messages.
//
// MsgSessionTerminated is deliberately generic: idle timeout, explicit logout
// and admin revocation all present identically so callers cannot probe which
// path revoked them.
const (
	MsgAuthRequired        = "Authentication required"
	MsgSessionTerminated   = "Session terminated, please re-authenticate"
	MsgInvalidCredentials  = "Invalid username or password"
	MsgTokenExpired        = "Token has expired"
	MsgForbiddenOwner      = "You may only manage your own sessions"
	MsgRequestBodyTooLarge = "Request body is too large"
	MsgEmptyRequestBody    = "Request body must not be empty"
	MsgMalformedJSON       = "Request body contains malformed JSON"
)
