package infra

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrew-woosnam/crossgrant/internal/config"
)

func validPlan() *Plan {
	return PlanFromConfig(&config.Config{
		ComputeProjectID: "compute-proj",
		TargetProjectID:  "target-proj",
		Region:           "us-central1",
		BucketName:       "target-bucket",
		RequesterPays:    true,
	})
}

func TestPlanFromConfig_Defaults(t *testing.T) {
	plan := validPlan()

	assert.Equal(t, "crossgrant-probe", plan.ProbeServiceAccountID)
	assert.Equal(t, "crossgrant-events", plan.TopicID)
	assert.Equal(t, "crossgrant-events-pull", plan.SubscriptionID)
	assert.Equal(t, "crossgrant", plan.KeyRingID)
	assert.Equal(t, "crossgrant-probe", plan.CryptoKeyID)
	assert.NotEmpty(t, plan.TargetProjectRoles)
	assert.NotEmpty(t, plan.Services)
}

func TestPlanValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Plan)
		errMsg string
	}{
		{"valid", func(*Plan) {}, ""},
		{"missing compute project", func(p *Plan) { p.ComputeProjectID = "" }, "compute project"},
		{"missing target project", func(p *Plan) { p.TargetProjectID = "" }, "target project"},
		{"same projects", func(p *Plan) { p.TargetProjectID = p.ComputeProjectID }, "must differ"},
		{"missing region", func(p *Plan) { p.Region = "" }, "region"},
		{"missing bucket", func(p *Plan) { p.BucketName = "" }, "bucket"},
		{"bad role", func(p *Plan) { p.TargetProjectRoles = []string{"storage.objectViewer"} }, "invalid role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := validPlan()
			tt.mutate(plan)

			err := plan.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestProbeServiceAccountEmail(t *testing.T) {
	plan := validPlan()
	assert.Equal(t,
		"crossgrant-probe@compute-proj.iam.gserviceaccount.com",
		plan.ProbeServiceAccountEmail())
}

func TestPlanRender(t *testing.T) {
	plan := validPlan()

	rendered, err := plan.Render()
	require.NoError(t, err)
	assert.Contains(t, rendered, "compute_project_id: compute-proj")
	assert.Contains(t, rendered, "bucket_name: target-bucket")
	assert.Contains(t, rendered, "roles/storage.objectViewer")
}

func TestOutputsProbeEnv(t *testing.T) {
	outputs := &Outputs{
		ComputeProjectID: "compute-proj",
		TargetProjectID:  "target-proj",
		Region:           "us-central1",
		BucketName:       "target-bucket",
		RequesterPays:    true,
		TopicID:          "events",
		SubscriptionID:   "events-pull",
		KeyRingID:        "ring",
		CryptoKeyID:      "key",
	}

	vars := map[string]string{}
	for _, v := range outputs.ProbeEnv() {
		vars[v.Name] = v.Value
	}

	assert.Equal(t, "target-bucket", vars["PROBE_BUCKET_NAME"])
	assert.Equal(t, "target-proj", vars["PROBE_TARGET_PROJECT_ID"])
	assert.Equal(t, "compute-proj", vars["PROBE_BILLING_PROJECT"])
	assert.NotContains(t, vars, "PROBE_CREDENTIALS_KIND")
}

func TestOutputsProbeEnv_Impersonation(t *testing.T) {
	outputs := &Outputs{
		TargetServiceAccount: "sa@target-proj.iam.gserviceaccount.com",
	}

	vars := map[string]string{}
	for _, v := range outputs.ProbeEnv() {
		vars[v.Name] = v.Value
	}

	assert.Equal(t, "impersonate", vars["PROBE_CREDENTIALS_KIND"])
	assert.Equal(t,
		"sa@target-proj.iam.gserviceaccount.com",
		vars["PROBE_CREDENTIALS_TARGET_SERVICE_ACCOUNT"])
	assert.NotContains(t, vars, "PROBE_BILLING_PROJECT")
}
