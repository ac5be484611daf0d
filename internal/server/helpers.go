package server

import (
	"encoding/json"
	"net/http"

	"github.com/andrew-woosnam/crossgrant/internal/api"
	apperrors "github.com/andrew-woosnam/crossgrant/internal/errors"
)

// writeJSONResponse encodes v as the response body with the given status.
func writeJSONResponse(w http.ResponseWriter, statusCode int, v any) {
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErrorResponse writes a standardized error body without an error code.
func writeErrorResponse(w http.ResponseWriter, statusCode int, message, details string) {
	writeJSONResponse(w, statusCode, api.ErrorResponse{
		Error:   message,
		Details: details,
	})
}

// writeErrorResponseWithCode writes a standardized error body including the
// programmatic error code.
func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, code, message, details string) {
	writeJSONResponse(w, statusCode, api.ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	})
}

// handleAndLogError logs an error and writes a standardized error response.
// Status code, error code, and details are extracted from the AppError
// taxonomy; raw Google API errors only ever appear in the details field.
func (r *Router) handleAndLogError(
	w http.ResponseWriter,
	req *http.Request,
	err error,
	operationName string,
) {
	logger := r.GetLoggerFromContext(req.Context())
	statusCode := apperrors.GetStatusCode(err)
	errorCode := apperrors.GetErrorCode(err)

	logger.Error(
		"operation failed",
		"operation", operationName,
		"error", err,
		"status_code", statusCode,
		"error_code", errorCode,
	)

	writeErrorResponseWithCode(w, statusCode, errorCode,
		"failed to "+operationName, apperrors.GetErrorDetails(err))
}
