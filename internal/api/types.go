// Package api defines the wire types served by the probe HTTP service.
package api

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// HealthResponse represents the response to a health check request
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// StreamFrameType distinguishes the frames sent on the check stream.
type StreamFrameType string

const (
	// FrameCheckStarted announces that a named check has begun.
	FrameCheckStarted StreamFrameType = "check_started"
	// FrameCheckResult carries the result of a finished check.
	FrameCheckResult StreamFrameType = "check_result"
	// FrameReport is the final frame carrying the aggregated report.
	FrameReport StreamFrameType = "report"
)

// StreamFrame is one JSON message on the WebSocket check stream. Exactly one
// of Check and Report is set, matching Type.
type StreamFrame struct {
	Type   StreamFrameType `json:"type"`
	Name   string          `json:"name,omitempty"`
	Check  any             `json:"check,omitempty"`
	Report any             `json:"report,omitempty"`
}
