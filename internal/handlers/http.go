package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	"github.com/abrezinsky/everyonevotes/internal/errors"
)

// Error codes for standardized API error responses. Service errors carry
// their own codes; these cover errors raised by the HTTP layer itself.
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeInternalServer  = "INTERNAL_SERVER_ERROR"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status      int      `json:"-"`
	Code        string   `json:"code"`
	Message     string   `json:"error"`
	FailedSteps []string `json:"failed_steps,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error with custom message and code
func NewAPIError(status int, code, message string) *APIError {
	return &APIError{Status: status, Code: code, Message: message}
}

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// Unauthorized creates a 401 error with custom message
func Unauthorized(message string) *APIError {
	return &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: message}
}

// Forbidden creates a 403 error with custom message
func Forbidden(message string) *APIError {
	return &APIError{Status: http.StatusForbidden, Code: ErrCodeForbidden, Message: message}
}

// InternalError creates a 500 error that hides the original error
func InternalError() *APIError {
	return &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data interface{}) {
	respondJSON(w, http.StatusCreated, data)
}

// respondError writes an error response, logging anything that maps to a 500
func (h *Handlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		apiErr = ToAPIError(err)
	}
	if apiErr.Status >= http.StatusInternalServerError && h.Log != nil {
		h.Log.Error("Internal error", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	respondJSON(w, apiErr.Status, apiErr)
}

// maxRequestBytes caps every JSON request body
const maxRequestBytes = 1 << 20

// decodeJSON decodes JSON from request body into the target
func decodeJSON(w http.ResponseWriter, r *http.Request, target interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case err == io.EOF:
			return BadRequest("Request body is empty")
		case stderrors.As(err, &tooLarge):
			return NewAPIError(http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, "Request body too large")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return nil
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(err error) *APIError {
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		return InternalError()
	}

	code := appErr.Code
	withCode := func(status int, fallback string) *APIError {
		if code == "" {
			code = fallback
		}
		return &APIError{Status: status, Code: code, Message: appErr.Message}
	}

	switch appErr.Kind {
	case errors.ErrNotFound:
		return withCode(http.StatusNotFound, ErrCodeNotFound)
	case errors.ErrValidation, errors.ErrInvalidInput:
		return withCode(http.StatusBadRequest, ErrCodeValidation)
	case errors.ErrConflict:
		return withCode(http.StatusConflict, ErrCodeConflict)
	case errors.ErrUnauthorized:
		return withCode(http.StatusUnauthorized, ErrCodeUnauthorized)
	case errors.ErrIneligible:
		apiErr := withCode(http.StatusForbidden, errors.CodeIneligible)
		apiErr.FailedSteps = appErr.Failed
		return apiErr
	default:
		return InternalError()
	}
}
