package probe

import (
	"context"
	"time"

	"github.com/andrew-woosnam/crossgrant/internal/credentials"
)

// claimAllowlist is the set of JWT claims safe to echo back. Everything else,
// and always the raw token, stays out of responses and logs.
var claimAllowlist = []string{"aud", "iss", "email", "exp", "iat", "sub", "azp"}

// runTokenCheck acquires a token from the active credential source and
// reports its shape: type, expiry, and (for JWTs) a subset of claims.
func (r *Runner) runTokenCheck(ctx context.Context) CheckResult {
	started := time.Now()

	source, err := r.provider.TokenSource(ctx)
	if err != nil {
		return failed(CheckToken, started, err)
	}

	token, err := source.Token()
	if err != nil {
		return failed(CheckToken, started, err)
	}

	detail := map[string]any{
		"credential": r.provider.Name(),
		"token_type": token.Type(),
	}
	if !token.Expiry.IsZero() {
		detail["expires_in"] = time.Until(token.Expiry).Round(time.Second).String()
	}

	// ID tokens and self-signed JWTs are inspectable; opaque access tokens
	// are not, and that is not a failure.
	if claims, decodeErr := credentials.DecodeClaims(token.AccessToken); decodeErr == nil {
		filtered := make(map[string]any)
		for _, claim := range claimAllowlist {
			if value, ok := claims[claim]; ok {
				filtered[claim] = value
			}
		}
		detail["claims"] = filtered
	}

	return passed(CheckToken, started, detail)
}
