package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name: "error with cause",
			err: &AppError{
				Code:       ErrCodeInvalidRequest,
				Message:    "validation failed",
				StatusCode: http.StatusBadRequest,
				Cause:      errors.New("bucket name is required"),
			},
			expected: "validation failed: bucket name is required",
		},
		{
			name: "error without cause",
			err: &AppError{
				Code:       ErrCodeNotFound,
				Message:    "resource not found",
				StatusCode: http.StatusNotFound,
				Cause:      nil,
			},
			expected: "resource not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.err.Error()
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &AppError{
		Code:       ErrCodeInternalError,
		Message:    "something went wrong",
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}

	assert.Equal(t, cause, err.Unwrap())
	assert.True(t, errors.Is(err, cause))
}

func TestNewClientError_PanicsOnServerRange(t *testing.T) {
	assert.Panics(t, func() {
		NewClientError(http.StatusInternalServerError, ErrCodeInternalError, "oops", nil)
	})
}

func TestNewServerError_PanicsOnClientRange(t *testing.T) {
	assert.Panics(t, func() {
		NewServerError(http.StatusBadRequest, ErrCodeInvalidRequest, "oops", nil)
	})
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name           string
		err            *AppError
		expectedCode   string
		expectedStatus int
	}{
		{"unauthorized", ErrUnauthorized("no key", nil), ErrCodeUnauthorized, http.StatusUnauthorized},
		{"forbidden", ErrForbidden("denied", nil), ErrCodeForbidden, http.StatusForbidden},
		{"not found", ErrNotFound("missing", nil), ErrCodeNotFound, http.StatusNotFound},
		{"conflict", ErrConflict("exists", nil), ErrCodeConflict, http.StatusConflict},
		{"bad request", ErrBadRequest("invalid", nil), ErrCodeInvalidRequest, http.StatusBadRequest},
		{"unknown check", ErrUnknownCheck("dns"), ErrCodeUnknownCheck, http.StatusNotFound},
		{"internal", ErrInternalError("boom", nil), ErrCodeInternalError, http.StatusInternalServerError},
		{"credential", ErrCredentialError("no token", nil), ErrCodeCredentialError, http.StatusServiceUnavailable},
		{"unavailable", ErrServiceUnavailable("down", nil), ErrCodeServiceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedCode, tt.err.Code)
			assert.Equal(t, tt.expectedStatus, tt.err.StatusCode)
		})
	}
}

func TestErrUnknownCheck_Message(t *testing.T) {
	err := ErrUnknownCheck("dns")
	assert.Equal(t, "unknown check: dns", err.Message)
}

func TestFromGoogleAPI(t *testing.T) {
	tests := []struct {
		name           string
		apiStatus      int
		expectedCode   string
		expectedStatus int
	}{
		{"permission denied", http.StatusForbidden, ErrCodeForbidden, http.StatusForbidden},
		{"unauthenticated", http.StatusUnauthorized, ErrCodeUnauthorized, http.StatusUnauthorized},
		{"not found", http.StatusNotFound, ErrCodeNotFound, http.StatusNotFound},
		{"conflict", http.StatusConflict, ErrCodeConflict, http.StatusConflict},
		{"bad request", http.StatusBadRequest, ErrCodeInvalidRequest, http.StatusBadRequest},
		{"server error", http.StatusInternalServerError, ErrCodeInternalError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := &googleapi.Error{Code: tt.apiStatus, Message: "from api"}
			appErr := FromGoogleAPI("storage check failed", apiErr)

			require.NotNil(t, appErr)
			assert.Equal(t, tt.expectedCode, appErr.Code)
			assert.Equal(t, tt.expectedStatus, appErr.StatusCode)
			assert.Equal(t, apiErr, appErr.Cause)
		})
	}
}

func TestFromGoogleAPI_NonAPIError(t *testing.T) {
	plain := errors.New("connection refused")
	appErr := FromGoogleAPI("storage check failed", plain)

	require.NotNil(t, appErr)
	assert.Equal(t, ErrCodeInternalError, appErr.Code)
	assert.Equal(t, plain, appErr.Cause)
}

func TestGetStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetStatusCode(ErrNotFound("gone", nil)))
	assert.Equal(t, http.StatusInternalServerError, GetStatusCode(errors.New("plain")))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrCodeForbidden, GetErrorCode(ErrForbidden("nope", nil)))
	assert.Equal(t, "", GetErrorCode(errors.New("plain")))
}
