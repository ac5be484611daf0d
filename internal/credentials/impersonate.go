package credentials

import (
	"context"
	"fmt"

	credentialsapi "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
	"github.com/andrew-woosnam/crossgrant/internal/errors"
)

// impersonateProvider asks the IAM Credentials API to mint short-lived access
// tokens for a target service account. The caller's own identity needs
// roles/iam.serviceAccountTokenCreator on that account.
type impersonateProvider struct {
	target string
}

func newImpersonateProvider(target string) *impersonateProvider {
	return &impersonateProvider{target: target}
}

func (p *impersonateProvider) Name() string { return KindImpersonate }

func (p *impersonateProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	ts := &impersonatedTokenSource{ctx: ctx, target: p.target}
	// ReuseTokenSource caches the minted token until its expiry.
	return oauth2.ReuseTokenSource(nil, ts), nil
}

func (p *impersonateProvider) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(ts)}, nil
}

// impersonatedTokenSource mints a token per call via GenerateAccessToken.
// It is always wrapped in oauth2.ReuseTokenSource, so in practice one API
// call is made per token lifetime.
type impersonatedTokenSource struct {
	ctx    context.Context
	target string
}

func (s *impersonatedTokenSource) Token() (*oauth2.Token, error) {
	client, err := credentialsapi.NewIamCredentialsClient(s.ctx)
	if err != nil {
		return nil, errors.ErrCredentialError("failed to create IAM credentials client", err)
	}
	defer client.Close()

	resp, err := client.GenerateAccessToken(s.ctx, &credentialspb.GenerateAccessTokenRequest{
		Name:  fmt.Sprintf("projects/-/serviceAccounts/%s", s.target),
		Scope: []string{constants.CloudPlatformScope},
	})
	if err != nil {
		return nil, errors.ErrCredentialError(
			"failed to generate access token for "+s.target, err)
	}

	token := &oauth2.Token{
		AccessToken: resp.GetAccessToken(),
		TokenType:   "Bearer",
	}
	if expire := resp.GetExpireTime(); expire != nil {
		token.Expiry = expire.AsTime()
	}
	return token, nil
}
