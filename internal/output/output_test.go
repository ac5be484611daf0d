package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	original := Stdout
	var buf bytes.Buffer
	Stdout = &buf
	defer func() { Stdout = original }()
	fn()
	return buf.String()
}

func TestTable(t *testing.T) {
	out := captureStdout(t, func() {
		Table(
			[]string{"CHECK", "STATUS"},
			[][]string{
				{"storage", "PASS"},
				{"pubsub", "FAIL"},
			},
		)
	})

	assert.Contains(t, out, "CHECK")
	assert.Contains(t, out, "storage")
	assert.Contains(t, out, "pubsub")
}

func TestStatusBadge(t *testing.T) {
	assert.Contains(t, StatusBadge(true), "PASS")
	assert.Contains(t, StatusBadge(false), "FAIL")
}

func TestDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{342*time.Millisecond + 400*time.Microsecond, "342ms"},
		{1520 * time.Millisecond, "1.52s"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Duration(tt.d))
	}
}

func TestVisibleLen(t *testing.T) {
	assert.Equal(t, 5, visibleLen("hello"))
	// ANSI color codes do not count toward padding width.
	assert.Equal(t, 4, visibleLen("\x1b[32mPASS\x1b[0m"))
}

func TestKeyValue(t *testing.T) {
	out := captureStdout(t, func() {
		KeyValue("Bucket", "target-bucket")
	})
	assert.Contains(t, out, "Bucket")
	assert.Contains(t, out, "target-bucket")
}
