package infra

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	resourcemanager "cloud.google.com/go/resourcemanager/apiv3"
	"cloud.google.com/go/resourcemanager/apiv3/resourcemanagerpb"
	"cloud.google.com/go/storage"
	"google.golang.org/api/cloudkms/v1"
	"google.golang.org/api/cloudresourcemanager/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iam/v1"
	"google.golang.org/api/iterator"
	"google.golang.org/api/pubsub/v1"
	"google.golang.org/api/serviceusage/v1"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
	apperrors "github.com/andrew-woosnam/crossgrant/internal/errors"
)

// ProjectsClient resolves project metadata.
type ProjectsClient interface {
	GetProject(ctx context.Context, projectID string) (*resourcemanagerpb.Project, error)
}

// ServiceUsageClient abstracts the Service Usage API.
type ServiceUsageClient interface {
	EnableServices(ctx context.Context, projectID string, services []string) error
}

// IAMClient abstracts service account and IAM policy operations.
type IAMClient interface {
	ServiceAccountExists(ctx context.Context, projectID, accountEmail string) (bool, error)
	CreateServiceAccount(ctx context.Context, projectID, accountID, displayName string) (string, error)
	DeleteServiceAccount(ctx context.Context, projectID, accountEmail string) error
	AddIAMBinding(ctx context.Context, projectID, member, role string) error
	RemoveIAMBinding(ctx context.Context, projectID, member, role string) error
	AddServiceAccountIAMBinding(ctx context.Context, projectID, serviceAccountEmail, member, role string) error
	RemoveServiceAccountIAMBinding(ctx context.Context, projectID, serviceAccountEmail, member, role string) error
}

// PubSubAdminClient abstracts topic and subscription administration.
type PubSubAdminClient interface {
	TopicExists(ctx context.Context, projectID, topicID string) (bool, error)
	CreateTopic(ctx context.Context, projectID, topicID string) error
	DeleteTopic(ctx context.Context, projectID, topicID string) error
	SubscriptionExists(ctx context.Context, projectID, subscriptionID string) (bool, error)
	CreateSubscription(ctx context.Context, projectID, subscriptionID, topicID string) error
	DeleteSubscription(ctx context.Context, projectID, subscriptionID string) error
}

// KMSAdminClient abstracts key ring and crypto key administration.
type KMSAdminClient interface {
	KeyRingExists(ctx context.Context, projectID, locationID, keyRingID string) (bool, error)
	CreateKeyRing(ctx context.Context, projectID, locationID, keyRingID string) error
	CryptoKeyExists(ctx context.Context, projectID, locationID, keyRingID, cryptoKeyID string) (bool, error)
	CreateCryptoKey(ctx context.Context, projectID, locationID, keyRingID, cryptoKeyID string) (string, error)
	GetCryptoKeyName(ctx context.Context, projectID, locationID, keyRingID, cryptoKeyID string) (string, error)
}

// StorageAdminClient abstracts bucket administration.
type StorageAdminClient interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	CreateBucket(ctx context.Context, projectID, bucketName, location string, requesterPays bool) error
	DeleteBucket(ctx context.Context, bucketName string) error
}

// ServiceClients holds every API client the provisioner needs.
type ServiceClients struct {
	Projects     ProjectsClient
	ServiceUsage ServiceUsageClient
	IAM          IAMClient
	PubSub       PubSubAdminClient
	KMS          KMSAdminClient
	Storage      StorageAdminClient
}

// NewServiceClients builds concrete clients backed by the Google Cloud APIs,
// authenticated with application default credentials.
func NewServiceClients(ctx context.Context) (*ServiceClients, error) {
	projectsClient, err := resourcemanager.NewProjectsClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create projects client: %w", err)
	}

	serviceUsageSvc, err := serviceusage.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create service usage service: %w", err)
	}

	iamSvc, err := iam.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create iam service: %w", err)
	}

	rmSvc, err := cloudresourcemanager.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create resource manager service: %w", err)
	}

	pubsubSvc, err := pubsub.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create pubsub service: %w", err)
	}

	kmsSvc, err := cloudkms.NewService(ctx)
	if err != nil {
		return nil, fmt.Errorf("create kms service: %w", err)
	}

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return &ServiceClients{
		Projects:     &defaultProjectsClient{client: projectsClient},
		ServiceUsage: &defaultServiceUsageClient{service: serviceUsageSvc},
		IAM: &defaultIAMClient{
			iamService:      iamSvc,
			resourceManager: rmSvc,
		},
		PubSub:  &defaultPubSubAdminClient{service: pubsubSvc},
		KMS:     &defaultKMSAdminClient{service: kmsSvc},
		Storage: &defaultStorageAdminClient{client: storageClient},
	}, nil
}

type defaultProjectsClient struct {
	client *resourcemanager.ProjectsClient
}

func (c *defaultProjectsClient) GetProject(
	ctx context.Context,
	projectID string,
) (*resourcemanagerpb.Project, error) {
	project, err := c.client.GetProject(ctx, &resourcemanagerpb.GetProjectRequest{
		Name: "projects/" + projectID,
	})
	if err != nil {
		return nil, wrapError("get project "+projectID, err)
	}
	return project, nil
}

type defaultServiceUsageClient struct {
	service *serviceusage.Service
}

func (c *defaultServiceUsageClient) EnableServices(
	ctx context.Context,
	projectID string,
	services []string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceUsageOperationTimeout)
	defer cancel()

	parent := "projects/" + projectID
	req := &serviceusage.BatchEnableServicesRequest{
		ServiceIds: services,
	}

	op, err := c.service.Services.BatchEnable(parent, req).Context(ctx).Do()
	if err != nil {
		return wrapError("batch enable services", err)
	}

	if op.Done {
		if op.Error != nil {
			return fmt.Errorf("batch enable services: %s", op.Error.Message)
		}
		return nil
	}

	return c.waitForOperation(ctx, op.Name)
}

func (c *defaultServiceUsageClient) waitForOperation(ctx context.Context, name string) error {
	for {
		op, err := c.service.Operations.Get(name).Context(ctx).Do()
		if err != nil {
			return wrapError("poll service usage operation", err)
		}
		if op.Done {
			if op.Error != nil {
				return fmt.Errorf("operation error: %s", op.Error.Message)
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(constants.ResourcePollInterval):
		}
	}
}

type defaultIAMClient struct {
	iamService      *iam.Service
	resourceManager *cloudresourcemanager.Service
}

func (c *defaultIAMClient) ServiceAccountExists(
	ctx context.Context,
	projectID, accountEmail string,
) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	name := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, accountEmail)
	_, err := c.iamService.Projects.ServiceAccounts.Get(name).Context(ctx).Do()
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, wrapError("get service account", err)
}

func (c *defaultIAMClient) CreateServiceAccount(
	ctx context.Context,
	projectID, accountID, displayName string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	req := &iam.CreateServiceAccountRequest{
		AccountId: accountID,
		ServiceAccount: &iam.ServiceAccount{
			DisplayName: displayName,
		},
	}

	sa, err := c.iamService.Projects.ServiceAccounts.Create("projects/"+projectID, req).
		Context(ctx).
		Do()
	if err != nil {
		return "", wrapError("create service account", err)
	}
	return sa.Email, nil
}

func (c *defaultIAMClient) DeleteServiceAccount(
	ctx context.Context,
	projectID, accountEmail string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ServiceAccountTimeout)
	defer cancel()

	name := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, accountEmail)
	_, err := c.iamService.Projects.ServiceAccounts.Delete(name).Context(ctx).Do()
	if isNotFound(err) {
		return nil
	}
	return wrapError("delete service account", err)
}

func (c *defaultIAMClient) AddIAMBinding(ctx context.Context, projectID, member, role string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IAMBindingTimeout)
	defer cancel()

	resource := "projects/" + projectID
	policy, err := c.resourceManager.Projects.GetIamPolicy(resource, &cloudresourcemanager.GetIamPolicyRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get project iam policy", err)
	}

	// Skip the write entirely when the binding is already in place, so
	// re-runs stay read-only.
	if crmBindingExists(policy.Bindings, role, member) {
		return nil
	}
	policy.Bindings = append(policy.Bindings, &cloudresourcemanager.Binding{
		Role:    role,
		Members: []string{member},
	})

	_, err = c.resourceManager.Projects.SetIamPolicy(
		resource,
		&cloudresourcemanager.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set project iam policy", err)
}

func (c *defaultIAMClient) RemoveIAMBinding(ctx context.Context, projectID, member, role string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IAMBindingTimeout)
	defer cancel()

	resource := "projects/" + projectID
	policy, err := c.resourceManager.Projects.GetIamPolicy(resource, &cloudresourcemanager.GetIamPolicyRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get project iam policy", err)
	}

	if !crmBindingExists(policy.Bindings, role, member) {
		return nil
	}
	policy.Bindings = removeCRMBinding(policy.Bindings, role, member)

	_, err = c.resourceManager.Projects.SetIamPolicy(
		resource,
		&cloudresourcemanager.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set project iam policy", err)
}

func (c *defaultIAMClient) AddServiceAccountIAMBinding(
	ctx context.Context,
	projectID, serviceAccountEmail, member, role string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IAMBindingTimeout)
	defer cancel()

	resource := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, serviceAccountEmail)
	policy, err := c.iamService.Projects.ServiceAccounts.GetIamPolicy(resource).
		Context(ctx).
		Do()
	if err != nil {
		return wrapError("get service account iam policy", err)
	}

	if saBindingExists(policy.Bindings, role, member) {
		return nil
	}
	policy.Bindings = append(policy.Bindings, &iam.Binding{
		Role:    role,
		Members: []string{member},
	})

	_, err = c.iamService.Projects.ServiceAccounts.SetIamPolicy(
		resource,
		&iam.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set service account iam policy", err)
}

func (c *defaultIAMClient) RemoveServiceAccountIAMBinding(
	ctx context.Context,
	projectID, serviceAccountEmail, member, role string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.IAMBindingTimeout)
	defer cancel()

	resource := fmt.Sprintf("projects/%s/serviceAccounts/%s", projectID, serviceAccountEmail)
	policy, err := c.iamService.Projects.ServiceAccounts.GetIamPolicy(resource).
		Context(ctx).
		Do()
	if isNotFound(err) {
		return nil
	}
	if err != nil {
		return wrapError("get service account iam policy", err)
	}

	if !saBindingExists(policy.Bindings, role, member) {
		return nil
	}
	policy.Bindings = removeSABinding(policy.Bindings, role, member)

	_, err = c.iamService.Projects.ServiceAccounts.SetIamPolicy(
		resource,
		&iam.SetIamPolicyRequest{Policy: policy},
	).Context(ctx).Do()
	return wrapError("set service account iam policy", err)
}

type defaultPubSubAdminClient struct {
	service *pubsub.Service
}

func (c *defaultPubSubAdminClient) topicName(projectID, topicID string) string {
	return fmt.Sprintf("projects/%s/topics/%s", projectID, topicID)
}

func (c *defaultPubSubAdminClient) subscriptionName(projectID, subscriptionID string) string {
	return fmt.Sprintf("projects/%s/subscriptions/%s", projectID, subscriptionID)
}

func (c *defaultPubSubAdminClient) TopicExists(
	ctx context.Context,
	projectID, topicID string,
) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.PubSubOperationTimeout)
	defer cancel()

	_, err := c.service.Projects.Topics.Get(c.topicName(projectID, topicID)).Context(ctx).Do()
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, wrapError("get pubsub topic", err)
}

func (c *defaultPubSubAdminClient) CreateTopic(ctx context.Context, projectID, topicID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.PubSubOperationTimeout)
	defer cancel()

	name := c.topicName(projectID, topicID)
	_, err := c.service.Projects.Topics.Create(name, &pubsub.Topic{}).Context(ctx).Do()
	if isAlreadyExists(err) {
		return nil
	}
	return wrapError("create pubsub topic", err)
}

func (c *defaultPubSubAdminClient) DeleteTopic(ctx context.Context, projectID, topicID string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.PubSubOperationTimeout)
	defer cancel()

	_, err := c.service.Projects.Topics.Delete(c.topicName(projectID, topicID)).Context(ctx).Do()
	if isNotFound(err) {
		return nil
	}
	return wrapError("delete pubsub topic", err)
}

func (c *defaultPubSubAdminClient) SubscriptionExists(
	ctx context.Context,
	projectID, subscriptionID string,
) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.PubSubOperationTimeout)
	defer cancel()

	_, err := c.service.Projects.Subscriptions.Get(c.subscriptionName(projectID, subscriptionID)).
		Context(ctx).
		Do()
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, wrapError("get pubsub subscription", err)
}

func (c *defaultPubSubAdminClient) CreateSubscription(
	ctx context.Context,
	projectID, subscriptionID, topicID string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.PubSubOperationTimeout)
	defer cancel()

	// Pull subscription: the probe polls, nothing pushes.
	_, err := c.service.Projects.Subscriptions.Create(
		c.subscriptionName(projectID, subscriptionID),
		&pubsub.Subscription{
			Topic: c.topicName(projectID, topicID),
		},
	).Context(ctx).Do()
	if isAlreadyExists(err) {
		return nil
	}
	return wrapError("create pubsub subscription", err)
}

func (c *defaultPubSubAdminClient) DeleteSubscription(
	ctx context.Context,
	projectID, subscriptionID string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.PubSubOperationTimeout)
	defer cancel()

	_, err := c.service.Projects.Subscriptions.Delete(c.subscriptionName(projectID, subscriptionID)).
		Context(ctx).
		Do()
	if isNotFound(err) {
		return nil
	}
	return wrapError("delete pubsub subscription", err)
}

type defaultKMSAdminClient struct {
	service *cloudkms.Service
}

func (c *defaultKMSAdminClient) KeyRingExists(
	ctx context.Context,
	projectID, locationID, keyRingID string,
) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.KMSOperationTimeout)
	defer cancel()

	_, err := c.service.Projects.Locations.KeyRings.Get(
		fmt.Sprintf("projects/%s/locations/%s/keyRings/%s", projectID, locationID, keyRingID),
	).Context(ctx).Do()
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, wrapError("get kms key ring", err)
}

func (c *defaultKMSAdminClient) CreateKeyRing(
	ctx context.Context,
	projectID, locationID, keyRingID string,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.KMSOperationTimeout)
	defer cancel()

	parent := fmt.Sprintf("projects/%s/locations/%s", projectID, locationID)
	_, err := c.service.Projects.Locations.KeyRings.Create(parent, &cloudkms.KeyRing{}).
		KeyRingId(keyRingID).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return nil
	}
	return wrapError("create kms key ring", err)
}

func (c *defaultKMSAdminClient) CryptoKeyExists(
	ctx context.Context,
	projectID, locationID, keyRingID, cryptoKeyID string,
) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.KMSOperationTimeout)
	defer cancel()

	_, err := c.service.Projects.Locations.KeyRings.CryptoKeys.Get(
		cryptoKeyName(projectID, locationID, keyRingID, cryptoKeyID),
	).Context(ctx).Do()
	if isNotFound(err) {
		return false, nil
	}
	return err == nil, wrapError("get kms crypto key", err)
}

func (c *defaultKMSAdminClient) CreateCryptoKey(
	ctx context.Context,
	projectID, locationID, keyRingID, cryptoKeyID string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.KMSOperationTimeout)
	defer cancel()

	parent := fmt.Sprintf("projects/%s/locations/%s/keyRings/%s", projectID, locationID, keyRingID)
	cryptoKey := &cloudkms.CryptoKey{
		Purpose: "ENCRYPT_DECRYPT",
	}

	created, err := c.service.Projects.Locations.KeyRings.CryptoKeys.Create(parent, cryptoKey).
		CryptoKeyId(cryptoKeyID).
		Context(ctx).
		Do()
	if isAlreadyExists(err) {
		return c.GetCryptoKeyName(ctx, projectID, locationID, keyRingID, cryptoKeyID)
	}
	if err != nil {
		return "", wrapError("create kms crypto key", err)
	}
	return created.Name, nil
}

func (c *defaultKMSAdminClient) GetCryptoKeyName(
	ctx context.Context,
	projectID, locationID, keyRingID, cryptoKeyID string,
) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.KMSOperationTimeout)
	defer cancel()

	key, err := c.service.Projects.Locations.KeyRings.CryptoKeys.Get(
		cryptoKeyName(projectID, locationID, keyRingID, cryptoKeyID),
	).Context(ctx).Do()
	if err != nil {
		return "", wrapError("get kms crypto key name", err)
	}
	return key.Name, nil
}

func cryptoKeyName(projectID, locationID, keyRingID, cryptoKeyID string) string {
	return fmt.Sprintf(
		"projects/%s/locations/%s/keyRings/%s/cryptoKeys/%s",
		projectID, locationID, keyRingID, cryptoKeyID,
	)
}

type defaultStorageAdminClient struct {
	client *storage.Client
}

func (c *defaultStorageAdminClient) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.StorageOperationTimeout)
	defer cancel()

	_, err := c.client.Bucket(bucketName).Attrs(ctx)
	if errors.Is(err, storage.ErrBucketNotExist) {
		return false, nil
	}
	return err == nil, wrapError("get bucket attrs", err)
}

func (c *defaultStorageAdminClient) CreateBucket(
	ctx context.Context,
	projectID, bucketName, location string,
	requesterPays bool,
) error {
	ctx, cancel := context.WithTimeout(ctx, constants.StorageOperationTimeout)
	defer cancel()

	attrs := &storage.BucketAttrs{
		Location:      location,
		RequesterPays: requesterPays,
		UniformBucketLevelAccess: storage.UniformBucketLevelAccess{
			Enabled: true,
		},
	}
	err := c.client.Bucket(bucketName).Create(ctx, projectID, attrs)
	if isAlreadyExists(err) {
		return nil
	}
	return wrapError("create bucket", err)
}

// DeleteBucket removes all objects in the bucket, then the bucket itself.
func (c *defaultStorageAdminClient) DeleteBucket(ctx context.Context, bucketName string) error {
	bucket := c.client.Bucket(bucketName)

	it := bucket.Objects(ctx, nil)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if errors.Is(err, storage.ErrBucketNotExist) {
			return nil
		}
		if err != nil {
			return wrapError("list objects for deletion", err)
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && !isNotFound(err) {
			return wrapError("delete object "+attrs.Name, err)
		}
	}

	err := bucket.Delete(ctx)
	if errors.Is(err, storage.ErrBucketNotExist) || isNotFound(err) {
		return nil
	}
	return wrapError("delete bucket", err)
}

// Shared helpers

// wrapError classifies Google API failures through the AppError taxonomy and
// falls back to plain wrapping for everything else.
func wrapError(action string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apperrors.FromGoogleAPI(action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusNotFound
	}
	return false
}

func isAlreadyExists(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusConflict
	}
	return false
}

func crmBindingExists(bindings []*cloudresourcemanager.Binding, role, member string) bool {
	for _, binding := range bindings {
		if binding.Role != role {
			continue
		}
		for _, m := range binding.Members {
			if m == member {
				return true
			}
		}
	}
	return false
}

func removeCRMBinding(
	bindings []*cloudresourcemanager.Binding,
	role, member string,
) []*cloudresourcemanager.Binding {
	result := make([]*cloudresourcemanager.Binding, 0, len(bindings))
	for _, binding := range bindings {
		if binding.Role == role {
			members := make([]string, 0, len(binding.Members))
			for _, m := range binding.Members {
				if m != member {
					members = append(members, m)
				}
			}
			if len(members) == 0 {
				continue
			}
			binding.Members = members
		}
		result = append(result, binding)
	}
	return result
}

func saBindingExists(bindings []*iam.Binding, role, member string) bool {
	for _, binding := range bindings {
		if binding.Role != role {
			continue
		}
		for _, m := range binding.Members {
			if m == member {
				return true
			}
		}
	}
	return false
}

func removeSABinding(bindings []*iam.Binding, role, member string) []*iam.Binding {
	result := make([]*iam.Binding, 0, len(bindings))
	for _, binding := range bindings {
		if binding.Role == role {
			members := make([]string, 0, len(binding.Members))
			for _, m := range binding.Members {
				if m != member {
					members = append(members, m)
				}
			}
			if len(members) == 0 {
				continue
			}
			binding.Members = members
		}
		result = append(result, binding)
	}
	return result
}
