package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-woosnam/crossgrant/internal/config"
	loggerPkg "github.com/andrew-woosnam/crossgrant/internal/logger"
)

// logCapture stores records emitted through capturingHandler so tests can
// assert on attributes attached by middleware.
type logCapture struct {
	mu      sync.Mutex
	records []slog.Record
}

func (c *logCapture) find(key string) (slog.Value, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.records {
		var value slog.Value
		var found bool
		rec.Attrs(func(attr slog.Attr) bool {
			if attr.Key == key {
				value, found = attr.Value, true
				return false
			}
			return true
		})
		if found {
			return value, true
		}
	}
	return slog.Value{}, false
}

type capturingHandler struct {
	capture *logCapture
	attrs   []slog.Attr
}

func (h *capturingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capturingHandler) Handle(_ context.Context, rec slog.Record) error {
	rec.AddAttrs(h.attrs...)
	h.capture.mu.Lock()
	defer h.capture.mu.Unlock()
	h.capture.records = append(h.capture.records, rec)
	return nil
}

func (h *capturingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &capturingHandler{capture: h.capture, attrs: merged}
}

func (h *capturingHandler) WithGroup(string) slog.Handler { return h }

func newCapturingLogger() (*slog.Logger, *logCapture) {
	capture := &logCapture{}
	return slog.New(&capturingHandler{capture: capture}), capture
}

func TestRequestIDMiddleware_DerivesRequestLogger(t *testing.T) {
	log, capture := newCapturingLogger()
	router := NewRouter(&config.Env{}, newFakeRunner(), log)

	var seenRequestID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seenRequestID = loggerPkg.GetRequestID(req.Context())
		router.GetLoggerFromContext(req.Context()).Info("handling")
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	router.requestIDMiddleware(inner).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/check", nil))

	require.NotEmpty(t, seenRequestID)

	value, found := capture.find("requestID")
	require.True(t, found, "context logger should carry the request ID")
	assert.Equal(t, seenRequestID, value.String())
}

func TestRequestIDMiddleware_KeepsExistingID(t *testing.T) {
	router := newTestRouter(nil)

	var seenRequestID string
	inner := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		seenRequestID = loggerPkg.GetRequestID(req.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check", nil)
	req = req.WithContext(loggerPkg.WithRequestID(req.Context(), "upstream-id"))
	router.requestIDMiddleware(inner).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "upstream-id", seenRequestID)
}
