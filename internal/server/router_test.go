package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-woosnam/crossgrant/internal/api"
	"github.com/andrew-woosnam/crossgrant/internal/config"
	apperrors "github.com/andrew-woosnam/crossgrant/internal/errors"
	"github.com/andrew-woosnam/crossgrant/internal/probe"
)

// fakeRunner serves canned check results.
type fakeRunner struct {
	results map[string]probe.CheckResult
	order   []string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		order: []string{"storage", "pubsub", "token"},
		results: map[string]probe.CheckResult{
			"storage": {Name: "storage", OK: true, Detail: map[string]any{"bucket": "b"}},
			"pubsub":  {Name: "pubsub", OK: true},
			"token":   {Name: "token", OK: false, Error: "no token"},
		},
	}
}

func (f *fakeRunner) Run(_ context.Context, name string) (probe.CheckResult, error) {
	result, ok := f.results[name]
	if !ok {
		return probe.CheckResult{}, apperrors.ErrUnknownCheck(name)
	}
	return result, nil
}

func (f *fakeRunner) RunAll(_ context.Context) *probe.Report {
	report := &probe.Report{Credential: "adc", StartedAt: time.Now(), OK: true}
	for _, name := range f.order {
		result := f.results[name]
		report.Checks = append(report.Checks, result)
		if !result.OK {
			report.OK = false
		}
	}
	return report
}

func (f *fakeRunner) RunAllStreaming(ctx context.Context, sink probe.EventSink) *probe.Report {
	for _, name := range f.order {
		sink.CheckStarted(name)
		sink.CheckFinished(f.results[name])
	}
	return f.RunAll(ctx)
}

func newTestRouter(cfg *config.Env) *Router {
	if cfg == nil {
		cfg = &config.Env{}
	}
	return NewRouter(cfg, newFakeRunner(), slog.Default())
}

func TestHandleHealth(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp api.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Version)
}

func TestHandleCheckAll(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	// Check failures are data, not HTTP errors.
	assert.Equal(t, http.StatusOK, rec.Code)

	var report probe.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.False(t, report.OK)
	assert.Len(t, report.Checks, 3)
}

func TestHandleCheck(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check/storage", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var result probe.CheckResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "storage", result.Name)
	assert.True(t, result.OK)
}

func TestHandleCheck_Unknown(t *testing.T) {
	router := newTestRouter(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/check/dns", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.ErrCodeUnknownCheck, resp.Code)
	assert.Contains(t, resp.Details, "dns")
}

func TestAPIKeyMiddleware(t *testing.T) {
	tests := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{"valid key", "secret-key", http.StatusOK},
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "other-key", http.StatusUnauthorized},
	}

	router := newTestRouter(&config.Env{APIKey: "secret-key"})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/check", nil)
			if tt.header != "" {
				req.Header.Set("X-API-Key", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedCode, rec.Code)
		})
	}
}

func TestAPIKey_HealthStaysOpen(t *testing.T) {
	router := newTestRouter(&config.Env{APIKey: "secret-key"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGenerateRequestID(t *testing.T) {
	id1 := generateRequestID()
	id2 := generateRequestID()

	assert.Len(t, id1, 16)
	assert.NotEqual(t, id1, id2)
}

func TestHandleCheckStream(t *testing.T) {
	router := newTestRouter(nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/check/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer func() {
		_ = conn.Close()
		_ = resp.Body.Close()
	}()

	var frames []api.StreamFrame
	for {
		var frame api.StreamFrame
		readErr := conn.ReadJSON(&frame)
		if readErr != nil {
			// Normal closure after the report frame ends the stream.
			assert.True(t, websocket.IsCloseError(readErr, websocket.CloseNormalClosure))
			break
		}
		frames = append(frames, frame)
	}

	// Three checks produce a started/result pair each, then the report.
	require.Len(t, frames, 7)
	assert.Equal(t, api.FrameCheckStarted, frames[0].Type)
	assert.Equal(t, "storage", frames[0].Name)
	assert.Equal(t, api.FrameCheckResult, frames[1].Type)
	assert.Equal(t, api.FrameReport, frames[6].Type)
	assert.NotNil(t, frames[6].Report)
}
