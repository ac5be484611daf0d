package credentials

import (
	"context"

	"golang.org/x/oauth2"
	"google.golang.org/api/idtoken"
	"google.golang.org/api/option"

	"github.com/andrew-woosnam/crossgrant/internal/constants"
	"github.com/andrew-woosnam/crossgrant/internal/errors"
)

// idTokenProvider mints OIDC ID tokens scoped to an audience. Useful when the
// target only accepts identity tokens, e.g. invoking another Cloud Run
// service or asserting identity to the storage frontend.
type idTokenProvider struct {
	audience string
}

func newIDTokenProvider(audience string) *idTokenProvider {
	if audience == "" {
		audience = constants.StorageAudience
	}
	return &idTokenProvider{audience: audience}
}

func (p *idTokenProvider) Name() string { return KindIDToken }

func (p *idTokenProvider) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	ts, err := idtoken.NewTokenSource(ctx, p.audience)
	if err != nil {
		return nil, errors.ErrCredentialError("failed to create ID token source", err)
	}
	return ts, nil
}

func (p *idTokenProvider) ClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	ts, err := p.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(ts)}, nil
}
