package probe

import (
	"encoding/json"
	"time"
)

// Duration is a time.Duration that serializes as a human-readable string
// ("342ms") instead of a nanosecond count.
type Duration time.Duration

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// CheckResult is the outcome of a single access check.
type CheckResult struct {
	Name     string         `json:"name"`
	OK       bool           `json:"ok"`
	Detail   map[string]any `json:"detail,omitempty"`
	Error    string         `json:"error,omitempty"`
	Duration Duration       `json:"duration"`
}

// Report aggregates the results of a probe run.
type Report struct {
	// Credential is the name of the credential source the run used.
	Credential string        `json:"credential"`
	StartedAt  time.Time     `json:"started_at"`
	Duration   Duration      `json:"duration"`
	Checks     []CheckResult `json:"checks"`
	// OK is true only when every check passed.
	OK bool `json:"ok"`
}

// failed builds a CheckResult for a check that returned err.
func failed(name string, start time.Time, err error) CheckResult {
	return CheckResult{
		Name:     name,
		OK:       false,
		Error:    err.Error(),
		Duration: Duration(time.Since(start)),
	}
}

// passed builds a successful CheckResult with the given detail.
func passed(name string, start time.Time, detail map[string]any) CheckResult {
	return CheckResult{
		Name:     name,
		OK:       true,
		Detail:   detail,
		Duration: Duration(time.Since(start)),
	}
}
