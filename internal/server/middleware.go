package server

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
	loggerPkg "github.com/andrew-woosnam/crossgrant/internal/logger"
)

type contextKey string

const loggerContextKey contextKey = "logger"

// generateRequestID generates a random request ID using crypto/rand
func generateRequestID() string {
	b := make([]byte, constants.RequestIDByteSize)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))
	}
	return hex.EncodeToString(b)
}

// requestIDMiddleware attaches a request ID and a request-scoped logger to
// the context. An ID already present in the context (e.g. set by a fronting
// proxy integration) is kept.
func (r *Router) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		requestID := loggerPkg.GetRequestID(req.Context())
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := loggerPkg.WithRequestID(req.Context(), requestID)
		log := loggerPkg.DeriveRequestLogger(ctx, r.log)
		ctx = context.WithValue(ctx, loggerContextKey, log)

		next.ServeHTTP(w, req.WithContext(ctx))
	})
}

// requestTimeoutMiddleware creates a context with timeout for each request.
// The timeout starts when the request is received, ensuring each request has
// a fair timeout regardless of connection reuse.
func requestTimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx, cancel := context.WithTimeout(req.Context(), timeout)
			defer cancel()

			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

// setContentTypeJSONMiddleware sets Content-Type to application/json for all responses
func setContentTypeJSONMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set(constants.ContentTypeHeader, "application/json")
		next.ServeHTTP(w, req)
	})
}

// apiKeyMiddleware requires the configured API key in the X-API-Key header.
func (r *Router) apiKeyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		provided := req.Header.Get(constants.APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(provided), []byte(r.cfg.APIKey)) != 1 {
			r.GetLoggerFromContext(req.Context()).Warn("rejected request with invalid API key",
				"path", req.URL.Path)
			w.Header().Set(constants.ContentTypeHeader, "application/json")
			writeErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, req)
	})
}

// GetLoggerFromContext returns the request-scoped logger, falling back to the
// router's base logger.
func (r *Router) GetLoggerFromContext(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return log
	}
	return r.log
}
