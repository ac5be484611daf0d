package logger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetRequestID(ctx))

	ctx = WithRequestID(ctx, "abc123")
	assert.Equal(t, "abc123", GetRequestID(ctx))
}

func TestDeriveRequestLogger(t *testing.T) {
	base := slog.Default()

	assert.Equal(t, slog.Default(), DeriveRequestLogger(context.Background(), nil))
	assert.Equal(t, base, DeriveRequestLogger(context.Background(), base))

	ctx := WithRequestID(context.Background(), "abc123")
	assert.NotEqual(t, base, DeriveRequestLogger(ctx, base))
}

func TestGetDeadlineInfo(t *testing.T) {
	attrs := GetDeadlineInfo(context.Background())
	assert.Equal(t, []any{"deadline", "none", "deadline_remaining", "none"}, attrs)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	attrs = GetDeadlineInfo(ctx)
	assert.Len(t, attrs, 4)
	assert.Equal(t, "deadline", attrs[0])
	assert.NotEqual(t, "none", attrs[1])
}
