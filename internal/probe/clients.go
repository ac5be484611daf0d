package probe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/cloudkms/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/api/pubsub/v1"

	apperrors "github.com/andrew-woosnam/crossgrant/internal/errors"
)

// wrapAPIError classifies Google API failures through the AppError taxonomy
// so checks report FORBIDDEN/NOT_FOUND instead of an unclassified message.
func wrapAPIError(action string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apperrors.FromGoogleAPI(action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}

// storageAPI is the slice of Cloud Storage the probe needs. Narrow interfaces
// keep the checks testable without live credentials.
type storageAPI interface {
	BucketAttrs(ctx context.Context, bucket, userProject string) (*storage.BucketAttrs, error)
	ListObjects(ctx context.Context, bucket, userProject string, max int) ([]string, error)
	ReadObjectPrefix(ctx context.Context, bucket, object, userProject string, n int64) ([]byte, error)
}

// ReceivedMessage is one message pulled from a subscription.
type ReceivedMessage struct {
	AckID      string
	Data       []byte
	Attributes map[string]string
}

type pubsubAPI interface {
	Publish(ctx context.Context, project, topicID string, data []byte, attrs map[string]string) (string, error)
	Pull(ctx context.Context, project, subscriptionID string, max int64) ([]ReceivedMessage, error)
	Acknowledge(ctx context.Context, project, subscriptionID string, ackIDs []string) error
}

type kmsAPI interface {
	Encrypt(ctx context.Context, keyName string, plaintext []byte) (string, error)
	Decrypt(ctx context.Context, keyName, ciphertext string) ([]byte, error)
}

type defaultStorageClient struct {
	client *storage.Client
}

func newDefaultStorageClient(ctx context.Context, opts []option.ClientOption) (*defaultStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &defaultStorageClient{client: client}, nil
}

func (c *defaultStorageClient) bucket(name, userProject string) *storage.BucketHandle {
	handle := c.client.Bucket(name)
	if userProject != "" {
		handle = handle.UserProject(userProject)
	}
	return handle
}

func (c *defaultStorageClient) BucketAttrs(
	ctx context.Context,
	bucket, userProject string,
) (*storage.BucketAttrs, error) {
	attrs, err := c.bucket(bucket, userProject).Attrs(ctx)
	if err != nil {
		return nil, wrapAPIError("get bucket attrs", err)
	}
	return attrs, nil
}

func (c *defaultStorageClient) ListObjects(
	ctx context.Context,
	bucket, userProject string,
	max int,
) ([]string, error) {
	it := c.bucket(bucket, userProject).Objects(ctx, nil)

	var names []string
	for len(names) < max {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, wrapAPIError("list objects", err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func (c *defaultStorageClient) ReadObjectPrefix(
	ctx context.Context,
	bucket, object, userProject string,
	n int64,
) ([]byte, error) {
	reader, err := c.bucket(bucket, userProject).Object(object).NewRangeReader(ctx, 0, n)
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("open object %s", object), err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("read object %s", object), err)
	}
	return data, nil
}

type defaultPubSubClient struct {
	service *pubsub.Service
}

func newDefaultPubSubClient(ctx context.Context, opts []option.ClientOption) (*defaultPubSubClient, error) {
	service, err := pubsub.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub service: %w", err)
	}
	return &defaultPubSubClient{service: service}, nil
}

func (c *defaultPubSubClient) Publish(
	ctx context.Context,
	project, topicID string,
	data []byte,
	attrs map[string]string,
) (string, error) {
	name := fmt.Sprintf("projects/%s/topics/%s", project, topicID)
	req := &pubsub.PublishRequest{
		Messages: []*pubsub.PubsubMessage{{
			Data:       base64.StdEncoding.EncodeToString(data),
			Attributes: attrs,
		}},
	}

	resp, err := c.service.Projects.Topics.Publish(name, req).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError(fmt.Sprintf("publish to %s", name), err)
	}
	if len(resp.MessageIds) == 0 {
		return "", fmt.Errorf("publish to %s: no message ID returned", name)
	}
	return resp.MessageIds[0], nil
}

func (c *defaultPubSubClient) Pull(
	ctx context.Context,
	project, subscriptionID string,
	max int64,
) ([]ReceivedMessage, error) {
	name := fmt.Sprintf("projects/%s/subscriptions/%s", project, subscriptionID)
	resp, err := c.service.Projects.Subscriptions.Pull(name, &pubsub.PullRequest{
		MaxMessages: max,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("pull from %s", name), err)
	}

	messages := make([]ReceivedMessage, 0, len(resp.ReceivedMessages))
	for _, received := range resp.ReceivedMessages {
		if received.Message == nil {
			continue
		}
		data, decodeErr := base64.StdEncoding.DecodeString(received.Message.Data)
		if decodeErr != nil {
			return nil, fmt.Errorf("decode message data: %w", decodeErr)
		}
		messages = append(messages, ReceivedMessage{
			AckID:      received.AckId,
			Data:       data,
			Attributes: received.Message.Attributes,
		})
	}
	return messages, nil
}

func (c *defaultPubSubClient) Acknowledge(
	ctx context.Context,
	project, subscriptionID string,
	ackIDs []string,
) error {
	if len(ackIDs) == 0 {
		return nil
	}
	name := fmt.Sprintf("projects/%s/subscriptions/%s", project, subscriptionID)
	_, err := c.service.Projects.Subscriptions.Acknowledge(name, &pubsub.AcknowledgeRequest{
		AckIds: ackIDs,
	}).Context(ctx).Do()
	if err != nil {
		return wrapAPIError(fmt.Sprintf("acknowledge on %s", name), err)
	}
	return nil
}

type defaultKMSClient struct {
	service *cloudkms.Service
}

func newDefaultKMSClient(ctx context.Context, opts []option.ClientOption) (*defaultKMSClient, error) {
	service, err := cloudkms.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create kms service: %w", err)
	}
	return &defaultKMSClient{service: service}, nil
}

func (c *defaultKMSClient) Encrypt(ctx context.Context, keyName string, plaintext []byte) (string, error) {
	resp, err := c.service.Projects.Locations.KeyRings.CryptoKeys.Encrypt(keyName, &cloudkms.EncryptRequest{
		Plaintext: base64.StdEncoding.EncodeToString(plaintext),
	}).Context(ctx).Do()
	if err != nil {
		return "", wrapAPIError(fmt.Sprintf("encrypt with %s", keyName), err)
	}
	return resp.Ciphertext, nil
}

func (c *defaultKMSClient) Decrypt(ctx context.Context, keyName, ciphertext string) ([]byte, error) {
	resp, err := c.service.Projects.Locations.KeyRings.CryptoKeys.Decrypt(keyName, &cloudkms.DecryptRequest{
		Ciphertext: ciphertext,
	}).Context(ctx).Do()
	if err != nil {
		return nil, wrapAPIError(fmt.Sprintf("decrypt with %s", keyName), err)
	}
	plaintext, err := base64.StdEncoding.DecodeString(resp.Plaintext)
	if err != nil {
		return nil, fmt.Errorf("decode decrypted plaintext: %w", err)
	}
	return plaintext, nil
}
