// Package utils provides utility functions and helpers for the application.
// This file implements a standardized API response system that ensures
// consistent response formats across all API endpoints.
//
// The response system includes:
//   - A standard Response structure for all API responses
//   - Convenience functions for common response types (success, error, pagination)
//   - Pagination parameter extraction
package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/sessionwarden/sessionwarden/internal/constants"
)

// Response represents a standardized API response.
// All API endpoints return responses in this format for consistency.
type Response struct {
	Success bool        `json:"success"`         // Whether the request was successful
	Data    interface{} `json:"data,omitempty"`  // The response data (omitted for error responses)
	Error   *ErrorInfo  `json:"error,omitempty"` // Error information (omitted for successful responses)
	Meta    *MetaInfo   `json:"meta,omitempty"`  // Metadata such as pagination information
}

// ErrorInfo represents error information in the response.
type ErrorInfo struct {
	Code    string            `json:"code"`              // A machine-readable error code
	Message string            `json:"message"`           // A human-readable error message
	Details map[string]string `json:"details,omitempty"` // Additional details about the error
}

// MetaInfo represents metadata in the response, primarily pagination.
type MetaInfo struct {
	Page       int `json:"page,omitempty"`
	PageSize   int `json:"page_size,omitempty"`
	TotalItems int `json:"total_items,omitempty"`
	TotalPages int `json:"total_pages,omitempty"`
}

// PaginationParams contains parameters for pagination.
type PaginationParams struct {
	Page     int
	PageSize int
}

// GetPaginationParams extracts page/page_size from the query string, applying
// sane bounds.
func GetPaginationParams(r *http.Request) PaginationParams {
	params := PaginationParams{Page: 1, PageSize: 50}

	if v := r.URL.Query().Get(constants.QueryParamPage); v != "" {
		if page, err := strconv.Atoi(v); err == nil && page > 0 {
			params.Page = page
		}
	}
	if v := r.URL.Query().Get(constants.QueryParamPageSize); v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 && size <= 200 {
			params.PageSize = size
		}
	}

	return params
}

// JSON sends a JSON response with the given status code and data.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	}

	SendJSON(w, statusCode, response)
}

// JSONWithMeta sends a JSON response including pagination metadata.
func JSONWithMeta(w http.ResponseWriter, statusCode int, data interface{}, meta *MetaInfo) {
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
		Meta:    meta,
	}

	SendJSON(w, statusCode, response)
}

// Error sends an error response with the given status code and error information.
func Error(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	response := Response{
		Success: constants.ResponseFailure,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	SendJSON(w, statusCode, response)
}

// ErrorFromAppError sends an error response based on an AppError.
func ErrorFromAppError(w http.ResponseWriter, appErr *AppError) {
	code := codeForAppError(appErr)

	var details map[string]string
	if len(appErr.Details) > 0 {
		details = make(map[string]string, len(appErr.Details))
		for k, v := range appErr.Details {
			if s, ok := v.(string); ok {
				details[k] = s
			}
		}
	} else if appErr.Field != "" {
		details = map[string]string{appErr.Field: appErr.Message}
	}

	Error(w, appErr.StatusCode, code, appErr.Message, details)
}

// codeForAppError maps an AppError's underlying sentinel to its wire code.
func codeForAppError(appErr *AppError) string {
	switch {
	case IsSessionTerminatedError(appErr):
		return constants.CodeSessionTerminated
	case IsValidationError(appErr):
		return constants.CodeValidationError
	case IsNotFoundError(appErr):
		return constants.CodeNotFound
	case IsDuplicateError(appErr):
		return constants.CodeDuplicateResource
	}

	switch appErr.StatusCode {
	case http.StatusUnauthorized:
		return constants.CodeAuthenticationFailed
	case http.StatusForbidden:
		return constants.CodeForbidden
	case http.StatusBadRequest:
		return constants.CodeBadRequest
	default:
		return constants.CodeInternalError
	}
}

// Unauthorized sends a 401 Unauthorized error response.
func Unauthorized(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgAuthRequired
	}
	Error(w, http.StatusUnauthorized, constants.CodeAuthenticationFailed, message, nil)
}

// Forbidden sends a 403 Forbidden error response.
func Forbidden(w http.ResponseWriter, message string) {
	if message == "" {
		message = "You don't have permission to access this resource"
	}
	Error(w, http.StatusForbidden, constants.CodeForbidden, message, nil)
}

// SessionTerminated sends the generic revocation response.
func SessionTerminated(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, constants.CodeSessionTerminated, constants.MsgSessionTerminated, nil)
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// SendJSON marshals and writes the response, logging write failures.
func SendJSON(w http.ResponseWriter, statusCode int, response Response) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}
