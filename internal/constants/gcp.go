package constants

import "time"

// ResourcePrefix is the prefix applied to every resource crossgrant creates.
const ResourcePrefix = "crossgrant"

// Default resource identifiers. All of them can be overridden in the plan.
const (
	// ProbeServiceAccountID is the account ID of the probe service account
	// created in the compute project.
	ProbeServiceAccountID = ResourcePrefix + "-probe"

	// DefaultTopicID is the Pub/Sub topic used for round-trip checks.
	DefaultTopicID = ResourcePrefix + "-events"

	// DefaultSubscriptionID is the pull subscription paired with the topic.
	DefaultSubscriptionID = ResourcePrefix + "-events-pull"

	// DefaultKeyRingID is the KMS key ring in the target project.
	DefaultKeyRingID = ResourcePrefix

	// DefaultCryptoKeyID is the symmetric crypto key used for the KMS check.
	DefaultCryptoKeyID = ResourcePrefix + "-probe"
)

// TargetProjectRoles are granted to the probe service account on the target
// project. serviceUsageConsumer is needed so the probe can bill requester-pays
// bucket access to the compute project.
var TargetProjectRoles = []string{
	"roles/storage.objectViewer",
	"roles/pubsub.publisher",
	"roles/pubsub.subscriber",
	"roles/cloudkms.cryptoKeyEncrypterDecrypter",
	"roles/serviceusage.serviceUsageConsumer",
}

// TokenCreatorRole allows the probe service account to mint access tokens for
// the target service account.
const TokenCreatorRole = "roles/iam.serviceAccountTokenCreator"

// RequiredServices must be enabled before any resources can be created.
var RequiredServices = []string{
	"iam.googleapis.com",
	"iamcredentials.googleapis.com",
	"cloudresourcemanager.googleapis.com",
	"storage.googleapis.com",
	"pubsub.googleapis.com",
	"cloudkms.googleapis.com",
	"serviceusage.googleapis.com",
}

// CloudPlatformScope is the broad OAuth scope used when none is specified.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// StorageAudience is the default audience for ID token credential sources.
const StorageAudience = "https://storage.googleapis.com"

// Per-API operation timeouts for provisioning calls.
const (
	ServiceAccountTimeout        = 30 * time.Second
	IAMBindingTimeout            = 30 * time.Second
	PubSubOperationTimeout       = 30 * time.Second
	KMSOperationTimeout          = 30 * time.Second
	StorageOperationTimeout      = 60 * time.Second
	ServiceUsageOperationTimeout = 3 * time.Minute
)

// ResourcePollInterval is the delay between polls of long-running operations.
const ResourcePollInterval = 2 * time.Second

// IAMPropagationDelay is how long freshly created service accounts can take
// to become usable in IAM policies.
const IAMPropagationDelay = 10 * time.Second
