package credentials

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
	"github.com/andrew-woosnam/crossgrant/internal/errors"
)

// adcProvider uses application default credentials: the
// GOOGLE_APPLICATION_CREDENTIALS file (including external-account files for
// Workload Identity Federation), gcloud user credentials, or the metadata
// server on GCE/Cloud Run.
type adcProvider struct{}

func (p *adcProvider) Name() string { return KindADC }

func (p *adcProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	creds, err := google.FindDefaultCredentials(ctx, constants.CloudPlatformScope)
	if err != nil {
		return nil, errors.ErrCredentialError("failed to find default credentials", err)
	}
	return creds.TokenSource, nil
}

func (p *adcProvider) ClientOptions(_ context.Context) ([]option.ClientOption, error) {
	// Clients run their own default discovery; passing no options keeps
	// per-transport credentials (gRPC vs REST) working.
	return nil, nil
}
