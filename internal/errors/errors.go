package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Sentinel errors
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternalServer = errors.New("internal server error")

	// Client flow errors
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrBookingInProgress  = errors.New("booking already in progress for this ride")
	ErrRouteQuotaExceeded = errors.New("routing provider quota exceeded")
	ErrRideNotListed      = errors.New("ride is not in the current list")
	ErrNoSelection        = errors.New("no ride selected")
)

// NetworkError means the request failed before any response was received.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError represents a structured API error
type APIError struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Is lets errors.Is match an APIError against the sentinel of its status.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrBadRequest:
		return e.StatusCode == http.StatusBadRequest
	}
	return false
}

// NewAPIError creates a new API error
func NewAPIError(code, message string, statusCode int) *APIError {
	return &APIError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

// RouteResolutionError is returned when the routing provider answers with a
// non-OK status or without any route.
type RouteResolutionError struct {
	Status string
	Err    error
}

func (e *RouteResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("route resolution failed (%s): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("route resolution failed: %s", e.Status)
}

func (e *RouteResolutionError) Unwrap() error {
	return e.Err
}

// Common API errors
func NotFound(resource string) *APIError {
	return NewAPIError("not_found", fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func BadRequest(message string) *APIError {
	return NewAPIError("bad_request", message, http.StatusBadRequest)
}

func Conflict(message string) *APIError {
	return NewAPIError("conflict", message, http.StatusConflict)
}

func InternalError(message string) *APIError {
	return NewAPIError("internal_error", message, http.StatusInternalServerError)
}

func Unauthorized(message string) *APIError {
	return NewAPIError("unauthorized", message, http.StatusUnauthorized)
}

func BadGateway(message string) *APIError {
	return NewAPIError("upstream_error", message, http.StatusBadGateway)
}

// FromResponse builds an APIError from a backend error body. The backend
// reports failures as {"errors": ...} where the value is either a plain
// string, a list of strings or a map of field names to messages.
func FromResponse(statusCode int, body []byte) *APIError {
	message := http.StatusText(statusCode)

	var payload struct {
		Errors json.RawMessage `json:"errors"`
		Detail string          `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := flattenErrors(payload.Errors); msg != "" {
			message = msg
		} else if payload.Detail != "" {
			message = payload.Detail
		}
	}

	return NewAPIError(codeForStatus(statusCode), message, statusCode)
}

func flattenErrors(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(list, "; ")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err == nil {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			msg := flattenErrors(fields[k])
			if msg == "" {
				continue
			}
			if k == "non_field_errors" || k == "detail" {
				parts = append(parts, msg)
			} else {
				parts = append(parts, k+": "+msg)
			}
		}
		return strings.Join(parts, "; ")
	}

	return ""
}

func codeForStatus(statusCode int) string {
	switch {
	case statusCode == http.StatusNotFound:
		return "not_found"
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return "unauthorized"
	case statusCode == http.StatusConflict:
		return "conflict"
	case statusCode >= 500:
		return "upstream_error"
	default:
		return "bad_request"
	}
}
