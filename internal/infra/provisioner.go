package infra

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
)

// Provisioner drives Apply and Destroy against a resolved Plan. Every step is
// idempotent: running Apply twice converges to the same state, and Destroy
// tolerates resources that are already gone.
type Provisioner struct {
	clients *ServiceClients
	log     *slog.Logger

	// propagationDelay is the pause after IAM grants before Apply returns.
	// Grants are eventually consistent; probes fired immediately can see
	// stale denials.
	propagationDelay time.Duration
}

// NewProvisioner returns a Provisioner using the given clients.
func NewProvisioner(clients *ServiceClients, log *slog.Logger) *Provisioner {
	return &Provisioner{
		clients:          clients,
		log:              log,
		propagationDelay: constants.IAMPropagationDelay,
	}
}

// StepFunc is invoked before each provisioning step with a human-readable
// description, so the CLI can show progress.
type StepFunc func(description string)

// Apply creates everything the plan describes and returns the resulting
// resource coordinates.
func (p *Provisioner) Apply(ctx context.Context, plan *Plan, step StepFunc) (*Outputs, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if step == nil {
		step = func(string) {}
	}

	step("Resolving projects")
	outputs, err := p.resolveProjects(ctx, plan)
	if err != nil {
		return nil, err
	}

	step("Enabling required services")
	if err := p.enableServices(ctx, plan); err != nil {
		return nil, err
	}

	step("Ensuring probe service account")
	probeEmail, err := p.ensureProbeServiceAccount(ctx, plan)
	if err != nil {
		return nil, err
	}
	outputs.ProbeServiceAccount = probeEmail

	step("Ensuring bucket " + plan.BucketName)
	if err := p.ensureBucket(ctx, plan); err != nil {
		return nil, err
	}

	step("Ensuring Pub/Sub topic and subscription")
	if err := p.ensurePubSub(ctx, plan); err != nil {
		return nil, err
	}

	step("Ensuring KMS key ring and crypto key")
	keyName, err := p.ensureKMS(ctx, plan)
	if err != nil {
		return nil, err
	}
	outputs.CryptoKeyName = keyName

	step("Granting cross-project IAM roles")
	if err := p.grantRoles(ctx, plan, probeEmail); err != nil {
		return nil, err
	}

	if p.propagationDelay > 0 {
		step("Waiting for IAM propagation")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.propagationDelay):
		}
	}

	p.log.Info("provisioning complete",
		"compute_project", plan.ComputeProjectID,
		"target_project", plan.TargetProjectID,
		"probe_service_account", probeEmail)

	return outputs, nil
}

// Destroy removes the resources Apply created. KMS key rings and crypto keys
// cannot be deleted on GCP, so they are left in place; everything else is torn
// down, and resources that are already gone do not fail the run.
func (p *Provisioner) Destroy(ctx context.Context, plan *Plan, step StepFunc) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	if step == nil {
		step = func(string) {}
	}

	probeEmail := plan.ProbeServiceAccountEmail()
	member := "serviceAccount:" + probeEmail

	step("Revoking cross-project IAM roles")
	for _, role := range plan.TargetProjectRoles {
		if err := p.clients.IAM.RemoveIAMBinding(ctx, plan.TargetProjectID, member, role); err != nil {
			return fmt.Errorf("revoke %s on %s: %w", role, plan.TargetProjectID, err)
		}
	}
	if plan.TargetServiceAccount != "" {
		err := p.clients.IAM.RemoveServiceAccountIAMBinding(
			ctx, plan.TargetProjectID, plan.TargetServiceAccount, member, constants.TokenCreatorRole)
		if err != nil {
			return fmt.Errorf("revoke token creator on %s: %w", plan.TargetServiceAccount, err)
		}
	}

	step("Deleting Pub/Sub subscription " + plan.SubscriptionID)
	if err := p.clients.PubSub.DeleteSubscription(ctx, plan.TargetProjectID, plan.SubscriptionID); err != nil {
		return err
	}

	step("Deleting Pub/Sub topic " + plan.TopicID)
	if err := p.clients.PubSub.DeleteTopic(ctx, plan.TargetProjectID, plan.TopicID); err != nil {
		return err
	}

	step("Deleting bucket " + plan.BucketName)
	if err := p.clients.Storage.DeleteBucket(ctx, plan.BucketName); err != nil {
		return err
	}

	step("Deleting probe service account")
	if err := p.clients.IAM.DeleteServiceAccount(ctx, plan.ComputeProjectID, probeEmail); err != nil {
		return err
	}

	p.log.Info("destroy complete",
		"compute_project", plan.ComputeProjectID,
		"target_project", plan.TargetProjectID,
		"kms_retained", plan.KeyRingID != "")

	return nil
}

// Outputs resolves the coordinates of an existing deployment without mutating
// anything.
func (p *Provisioner) Outputs(ctx context.Context, plan *Plan) (*Outputs, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}

	outputs, err := p.resolveProjects(ctx, plan)
	if err != nil {
		return nil, err
	}
	outputs.ProbeServiceAccount = plan.ProbeServiceAccountEmail()

	if plan.KeyRingID != "" && plan.CryptoKeyID != "" {
		keyName, err := p.clients.KMS.GetCryptoKeyName(
			ctx, plan.TargetProjectID, plan.Region, plan.KeyRingID, plan.CryptoKeyID)
		if err == nil {
			outputs.CryptoKeyName = keyName
		}
	}

	return outputs, nil
}

func (p *Provisioner) resolveProjects(ctx context.Context, plan *Plan) (*Outputs, error) {
	computeProject, err := p.clients.Projects.GetProject(ctx, plan.ComputeProjectID)
	if err != nil {
		return nil, fmt.Errorf("resolve compute project: %w", err)
	}
	targetProject, err := p.clients.Projects.GetProject(ctx, plan.TargetProjectID)
	if err != nil {
		return nil, fmt.Errorf("resolve target project: %w", err)
	}

	return &Outputs{
		ComputeProjectID:     plan.ComputeProjectID,
		ComputeProjectNumber: projectNumber(computeProject.GetName()),
		TargetProjectID:      plan.TargetProjectID,
		TargetProjectNumber:  projectNumber(targetProject.GetName()),
		Region:               plan.Region,
		TargetServiceAccount: plan.TargetServiceAccount,
		BucketName:           plan.BucketName,
		RequesterPays:        plan.RequesterPays,
		TopicID:              plan.TopicID,
		SubscriptionID:       plan.SubscriptionID,
		KeyRingID:            plan.KeyRingID,
		CryptoKeyID:          plan.CryptoKeyID,
	}, nil
}

// projectNumber extracts the numeric ID from a "projects/123456" resource
// name. Returns the input unchanged if it does not match that shape.
func projectNumber(resourceName string) string {
	number := strings.TrimPrefix(resourceName, "projects/")
	if _, err := strconv.ParseInt(number, 10, 64); err != nil {
		return resourceName
	}
	return number
}

func (p *Provisioner) enableServices(ctx context.Context, plan *Plan) error {
	for _, projectID := range []string{plan.ComputeProjectID, plan.TargetProjectID} {
		if err := p.clients.ServiceUsage.EnableServices(ctx, projectID, plan.Services); err != nil {
			return fmt.Errorf("enable services on %s: %w", projectID, err)
		}
	}
	return nil
}

func (p *Provisioner) ensureProbeServiceAccount(ctx context.Context, plan *Plan) (string, error) {
	email := plan.ProbeServiceAccountEmail()

	exists, err := p.clients.IAM.ServiceAccountExists(ctx, plan.ComputeProjectID, email)
	if err != nil {
		return "", err
	}
	if exists {
		p.log.Debug("service account already exists", "email", email)
		return email, nil
	}

	created, err := p.clients.IAM.CreateServiceAccount(
		ctx, plan.ComputeProjectID, plan.ProbeServiceAccountID, "crossgrant probe")
	if err != nil {
		return "", err
	}
	return created, nil
}

func (p *Provisioner) ensureBucket(ctx context.Context, plan *Plan) error {
	exists, err := p.clients.Storage.BucketExists(ctx, plan.BucketName)
	if err != nil {
		return err
	}
	if exists {
		p.log.Debug("bucket already exists", "bucket", plan.BucketName)
		return nil
	}
	return p.clients.Storage.CreateBucket(
		ctx, plan.TargetProjectID, plan.BucketName, plan.Region, plan.RequesterPays)
}

func (p *Provisioner) ensurePubSub(ctx context.Context, plan *Plan) error {
	topicExists, err := p.clients.PubSub.TopicExists(ctx, plan.TargetProjectID, plan.TopicID)
	if err != nil {
		return err
	}
	if !topicExists {
		if err := p.clients.PubSub.CreateTopic(ctx, plan.TargetProjectID, plan.TopicID); err != nil {
			return err
		}
	}

	subExists, err := p.clients.PubSub.SubscriptionExists(ctx, plan.TargetProjectID, plan.SubscriptionID)
	if err != nil {
		return err
	}
	if !subExists {
		return p.clients.PubSub.CreateSubscription(
			ctx, plan.TargetProjectID, plan.SubscriptionID, plan.TopicID)
	}
	return nil
}

func (p *Provisioner) ensureKMS(ctx context.Context, plan *Plan) (string, error) {
	if plan.KeyRingID == "" || plan.CryptoKeyID == "" {
		return "", nil
	}

	ringExists, err := p.clients.KMS.KeyRingExists(
		ctx, plan.TargetProjectID, plan.Region, plan.KeyRingID)
	if err != nil {
		return "", err
	}
	if !ringExists {
		err := p.clients.KMS.CreateKeyRing(ctx, plan.TargetProjectID, plan.Region, plan.KeyRingID)
		if err != nil {
			return "", err
		}
	}

	keyExists, err := p.clients.KMS.CryptoKeyExists(
		ctx, plan.TargetProjectID, plan.Region, plan.KeyRingID, plan.CryptoKeyID)
	if err != nil {
		return "", err
	}
	if keyExists {
		return p.clients.KMS.GetCryptoKeyName(
			ctx, plan.TargetProjectID, plan.Region, plan.KeyRingID, plan.CryptoKeyID)
	}
	return p.clients.KMS.CreateCryptoKey(
		ctx, plan.TargetProjectID, plan.Region, plan.KeyRingID, plan.CryptoKeyID)
}

func (p *Provisioner) grantRoles(ctx context.Context, plan *Plan, probeEmail string) error {
	member := "serviceAccount:" + probeEmail

	for _, role := range plan.TargetProjectRoles {
		if err := p.clients.IAM.AddIAMBinding(ctx, plan.TargetProjectID, member, role); err != nil {
			return fmt.Errorf("grant %s on %s: %w", role, plan.TargetProjectID, err)
		}
	}

	if plan.TargetServiceAccount != "" {
		err := p.clients.IAM.AddServiceAccountIAMBinding(
			ctx, plan.TargetProjectID, plan.TargetServiceAccount, member, constants.TokenCreatorRole)
		if err != nil {
			return fmt.Errorf("grant token creator on %s: %w", plan.TargetServiceAccount, err)
		}
	}
	return nil
}
