package credentials

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
	"github.com/andrew-woosnam/crossgrant/internal/errors"
)

// keyFileProvider authenticates with a static service account JSON key file.
type keyFileProvider struct {
	path string
}

func (p *keyFileProvider) Name() string { return KindKeyFile }

func (p *keyFileProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return nil, errors.ErrCredentialError(
			fmt.Sprintf("failed to read key file %s", p.path), err)
	}

	creds, err := google.CredentialsFromJSON(ctx, data, constants.CloudPlatformScope)
	if err != nil {
		return nil, errors.ErrCredentialError(
			fmt.Sprintf("failed to parse key file %s", p.path), err)
	}
	return creds.TokenSource, nil
}

func (p *keyFileProvider) ClientOptions(_ context.Context) ([]option.ClientOption, error) {
	if _, err := os.Stat(p.path); err != nil {
		return nil, errors.ErrCredentialError(
			fmt.Sprintf("key file %s is not readable", p.path), err)
	}
	return []option.ClientOption{option.WithCredentialsFile(p.path)}, nil
}

// staticTokenProvider wraps a pre-issued access token. Tokens are opaque here:
// no refresh is possible, so checks start failing once the token expires.
type staticTokenProvider struct {
	accessToken string
}

func (p *staticTokenProvider) Name() string { return KindToken }

func (p *staticTokenProvider) TokenSource(_ context.Context) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: p.accessToken,
		TokenType:   "Bearer",
	}), nil
}

func (p *staticTokenProvider) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(ts)}, nil
}
