package probe

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportJSON(t *testing.T) {
	report := Report{
		Credential: "impersonate",
		StartedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:   Duration(1520 * time.Millisecond),
		Checks: []CheckResult{
			{Name: "storage", OK: true, Duration: Duration(342 * time.Millisecond)},
			{Name: "pubsub", OK: false, Error: "permission denied", Duration: Duration(time.Second)},
		},
		OK: false,
	}

	data, err := json.Marshal(report)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	// Durations read as strings, not nanosecond counts.
	assert.Equal(t, "1.52s", decoded["duration"])
	checks := decoded["checks"].([]any)
	first := checks[0].(map[string]any)
	assert.Equal(t, "342ms", first["duration"])

	// Passing checks omit the error field entirely.
	assert.NotContains(t, first, "error")
	second := checks[1].(map[string]any)
	assert.Equal(t, "permission denied", second["error"])
}

func TestDuration_RoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1.5s"`), &d))
	assert.Equal(t, Duration(1500*time.Millisecond), d)

	assert.Error(t, json.Unmarshal([]byte(`"not a duration"`), &d))
	assert.Error(t, json.Unmarshal([]byte(`42`), &d))
}
