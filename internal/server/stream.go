package server

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/andrew-woosnam/crossgrant/internal/api"
	"github.com/andrew-woosnam/crossgrant/internal/probe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The probe endpoint carries no browser credentials, so cross-origin
	// connections are fine.
	CheckOrigin: func(*http.Request) bool { return true },
}

// streamSink forwards check progress onto a WebSocket connection. Writes are
// serialized because gorilla connections allow one concurrent writer.
type streamSink struct {
	mu   sync.Mutex
	conn *websocket.Conn
	err  error
}

func (s *streamSink) send(frame api.StreamFrame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return
	}
	s.err = s.conn.WriteJSON(frame)
}

func (s *streamSink) CheckStarted(name string) {
	s.send(api.StreamFrame{Type: api.FrameCheckStarted, Name: name})
}

func (s *streamSink) CheckFinished(result probe.CheckResult) {
	s.send(api.StreamFrame{Type: api.FrameCheckResult, Name: result.Name, Check: result})
}

// handleCheckStream handles GET /api/v1/check/stream. The connection receives
// a started/result frame pair per check, then the final report, then a normal
// close.
func (r *Router) handleCheckStream(w http.ResponseWriter, req *http.Request) {
	logger := r.GetLoggerFromContext(req.Context())

	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	sink := &streamSink{conn: conn}
	report := r.runner.RunAllStreaming(req.Context(), sink)
	sink.send(api.StreamFrame{Type: api.FrameReport, Report: report})

	if sink.err != nil {
		logger.Warn("check stream interrupted", "error", sink.err)
		return
	}

	_ = conn.WriteMessage(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "checks complete"),
	)
}
