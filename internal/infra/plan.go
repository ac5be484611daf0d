// Package infra provisions the cross-project wiring: service accounts, IAM
// bindings, the target bucket, the Pub/Sub pair, and the KMS key. Apply and
// Destroy are idempotent so operators can re-run them freely.
package infra

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/andrew-woosnam/crossgrant/internal/config"
	"github.com/andrew-woosnam/crossgrant/internal/constants"
)

// Plan describes everything Apply will create or grant. A Plan is fully
// resolved from configuration before any API call is made, so it can be
// rendered for review.
type Plan struct {
	ComputeProjectID string `yaml:"compute_project_id"`
	TargetProjectID  string `yaml:"target_project_id"`
	Region           string `yaml:"region"`

	ProbeServiceAccountID string `yaml:"probe_service_account_id"`
	// TargetServiceAccount, when set, receives a token-creator grant so the
	// probe can impersonate it.
	TargetServiceAccount string `yaml:"target_service_account,omitempty"`

	BucketName    string `yaml:"bucket_name"`
	RequesterPays bool   `yaml:"requester_pays"`

	TopicID        string `yaml:"topic_id"`
	SubscriptionID string `yaml:"subscription_id"`

	KeyRingID   string `yaml:"key_ring_id"`
	CryptoKeyID string `yaml:"crypto_key_id"`

	// Roles granted to the probe service account on the target project.
	TargetProjectRoles []string `yaml:"target_project_roles"`

	// Services enabled on both projects before provisioning.
	Services []string `yaml:"services"`
}

// PlanFromConfig resolves a Plan from CLI configuration, filling defaults for
// anything left unset.
func PlanFromConfig(cfg *config.Config) *Plan {
	plan := &Plan{
		ComputeProjectID:      cfg.ComputeProjectID,
		TargetProjectID:       cfg.TargetProjectID,
		Region:                cfg.Region,
		ProbeServiceAccountID: cfg.ProbeServiceAccountID,
		TargetServiceAccount:  cfg.TargetServiceAccount,
		BucketName:            cfg.BucketName,
		RequesterPays:         cfg.RequesterPays,
		TopicID:               cfg.TopicID,
		SubscriptionID:        cfg.SubscriptionID,
		KeyRingID:             cfg.KeyRingID,
		CryptoKeyID:           cfg.CryptoKeyID,
		TargetProjectRoles:    append([]string(nil), constants.TargetProjectRoles...),
		Services:              append([]string(nil), constants.RequiredServices...),
	}

	if plan.ProbeServiceAccountID == "" {
		plan.ProbeServiceAccountID = constants.ProbeServiceAccountID
	}
	if plan.TopicID == "" {
		plan.TopicID = constants.DefaultTopicID
	}
	if plan.SubscriptionID == "" {
		plan.SubscriptionID = constants.DefaultSubscriptionID
	}
	if plan.KeyRingID == "" {
		plan.KeyRingID = constants.DefaultKeyRingID
	}
	if plan.CryptoKeyID == "" {
		plan.CryptoKeyID = constants.DefaultCryptoKeyID
	}

	return plan
}

// Validate reports the first problem that would make Apply fail outright.
func (p *Plan) Validate() error {
	switch {
	case strings.TrimSpace(p.ComputeProjectID) == "":
		return fmt.Errorf("plan validation: compute project ID is required")
	case strings.TrimSpace(p.TargetProjectID) == "":
		return fmt.Errorf("plan validation: target project ID is required")
	case p.ComputeProjectID == p.TargetProjectID:
		return fmt.Errorf("plan validation: compute and target projects must differ")
	case strings.TrimSpace(p.Region) == "":
		return fmt.Errorf("plan validation: region is required")
	case strings.TrimSpace(p.BucketName) == "":
		return fmt.Errorf("plan validation: bucket name is required")
	}

	for _, role := range p.TargetProjectRoles {
		if !strings.HasPrefix(role, "roles/") {
			return fmt.Errorf("plan validation: invalid role %q", role)
		}
	}
	return nil
}

// ProbeServiceAccountEmail is the email the probe service account will have
// once created.
func (p *Plan) ProbeServiceAccountEmail() string {
	return fmt.Sprintf("%s@%s.iam.gserviceaccount.com", p.ProbeServiceAccountID, p.ComputeProjectID)
}

// Render returns the plan as YAML for operator review.
func (p *Plan) Render() (string, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("render plan: %w", err)
	}
	return string(data), nil
}

// Outputs holds the live resource coordinates a deployment produced. The
// probe service is configured from exactly these values.
type Outputs struct {
	ComputeProjectID     string
	ComputeProjectNumber string
	TargetProjectID      string
	TargetProjectNumber  string
	Region               string
	ProbeServiceAccount  string
	TargetServiceAccount string
	BucketName           string
	RequesterPays        bool
	TopicID              string
	SubscriptionID       string
	KeyRingID            string
	CryptoKeyID          string
	CryptoKeyName        string
}

// EnvVar is one environment variable for the probe service.
type EnvVar struct {
	Name  string
	Value string
}

// ProbeEnv returns the environment variable block the probe service needs to
// exercise this deployment.
func (o *Outputs) ProbeEnv() []EnvVar {
	vars := []EnvVar{
		{"PROBE_BUCKET_NAME", o.BucketName},
		{"PROBE_TARGET_PROJECT_ID", o.TargetProjectID},
		{"PROBE_TOPIC_ID", o.TopicID},
		{"PROBE_SUBSCRIPTION_ID", o.SubscriptionID},
		{"PROBE_REGION", o.Region},
		{"PROBE_KEY_RING_ID", o.KeyRingID},
		{"PROBE_CRYPTO_KEY_ID", o.CryptoKeyID},
	}
	if o.RequesterPays {
		vars = append(vars, EnvVar{"PROBE_BILLING_PROJECT", o.ComputeProjectID})
	}
	if o.TargetServiceAccount != "" {
		vars = append(vars,
			EnvVar{"PROBE_CREDENTIALS_KIND", "impersonate"},
			EnvVar{"PROBE_CREDENTIALS_TARGET_SERVICE_ACCOUNT", o.TargetServiceAccount},
		)
	}
	return vars
}
