package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andrew-woosnam/crossgrant/internal/probe"
)

func TestSingleCheckReport(t *testing.T) {
	started := time.Now().UTC().Add(-250 * time.Millisecond)
	result := probe.CheckResult{
		Name:     probe.CheckStorage,
		OK:       true,
		Duration: probe.Duration(200 * time.Millisecond),
	}

	report := singleCheckReport("adc", result, started)

	assert.Equal(t, "adc", report.Credential)
	assert.Equal(t, started, report.StartedAt)
	assert.True(t, report.OK)
	assert.Len(t, report.Checks, 1)
	assert.Greater(t, time.Duration(report.Duration), time.Duration(0),
		"report duration should reflect elapsed time")
}

func TestSingleCheckReport_Failure(t *testing.T) {
	result := probe.CheckResult{Name: probe.CheckKMS, OK: false, Error: "denied"}

	report := singleCheckReport("impersonate", result, time.Now().UTC())

	assert.False(t, report.OK)
	assert.Equal(t, "denied", report.Checks[0].Error)
}
