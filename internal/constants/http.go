package constants

import "time"

// ContentTypeHeader is the HTTP Content-Type header name.
const ContentTypeHeader = "Content-Type"

// APIKeyHeader carries the probe API key when one is configured.
const APIKeyHeader = "X-API-Key"

// RequestIDByteSize is the number of random bytes in a generated request ID.
const RequestIDByteSize = 8

// HTTP server timeouts for the probe service.
const (
	ServerReadTimeout     = 30 * time.Second
	ServerWriteTimeout    = 5 * time.Minute
	ServerIdleTimeout     = 2 * time.Minute
	ServerShutdownTimeout = 15 * time.Second
)

// DefaultCheckTimeout bounds a single probe check.
const DefaultCheckTimeout = 30 * time.Second

// DefaultProbePort is the port the probe service listens on.
const DefaultProbePort = "8080"
