package utils

import (
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/carnest/carnest-go/internal/errors"
)

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success sends a success response
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, data)
}

// Error sends an error response
func Error(w http.ResponseWriter, err *apperrors.APIError) {
	JSON(w, err.StatusCode, map[string]string{
		"error":   err.Code,
		"message": err.Message,
	})
}

// FromError maps any error returned by the client core onto an error response.
func FromError(w http.ResponseWriter, err error) {
	var apiErr *apperrors.APIError
	if errors.As(err, &apiErr) {
		// Backend failures surface as a gateway error, keeping the backend message.
		if apiErr.StatusCode >= 500 {
			Error(w, apperrors.BadGateway(apiErr.Message))
			return
		}
		Error(w, apiErr)
		return
	}

	var netErr *apperrors.NetworkError
	if errors.As(err, &netErr) {
		Error(w, apperrors.BadGateway("backend unreachable"))
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrNotAuthenticated):
		Error(w, apperrors.Unauthorized("login required"))
	case errors.Is(err, apperrors.ErrBookingInProgress):
		Error(w, apperrors.Conflict(err.Error()))
	case errors.Is(err, apperrors.ErrRideNotListed), errors.Is(err, apperrors.ErrNotFound):
		Error(w, apperrors.NotFound("ride"))
	case errors.Is(err, apperrors.ErrNoSelection):
		Error(w, apperrors.BadRequest(err.Error()))
	default:
		InternalError(w, "internal server error")
	}
}

// BadRequest sends a 400 error
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, apperrors.BadRequest(message))
}

// NotFound sends a 404 error
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, apperrors.NotFound(resource))
}

// InternalError sends a 500 error
func InternalError(w http.ResponseWriter, message string) {
	Error(w, apperrors.InternalError(message))
}

// NoContent sends a 204 response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
