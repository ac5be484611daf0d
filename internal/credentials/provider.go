// Package credentials consolidates the ways the probe can authenticate to
// Google Cloud behind a single Provider interface. Supported sources: default
// application credentials, audience-scoped ID tokens, service account
// impersonation, static key files, and raw access tokens.
//
// Workload Identity Federation needs no dedicated provider: an
// external-account credential file referenced by GOOGLE_APPLICATION_CREDENTIALS
// is picked up transparently by the adc source.
package credentials

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"

	"github.com/andrew-woosnam/crossgrant/internal/errors"
)

// Provider yields credentials for Google Cloud API clients.
type Provider interface {
	// Name returns the source kind, e.g. "adc" or "impersonate".
	Name() string

	// TokenSource returns an OAuth2 token source backed by this provider.
	TokenSource(ctx context.Context) (oauth2.TokenSource, error)

	// ClientOptions returns the client options to pass when constructing
	// Google API clients. May be empty, in which case clients fall back to
	// their default credential discovery.
	ClientOptions(ctx context.Context) ([]option.ClientOption, error)
}

// Source selects and parameterizes a credential provider.
type Source struct {
	// Kind is one of the registered provider kinds.
	Kind string `mapstructure:"kind" yaml:"kind" env:"KIND" envDefault:"adc"`

	// Audience is the token audience for the idtoken kind.
	Audience string `mapstructure:"audience" yaml:"audience,omitempty" env:"AUDIENCE"`

	// TargetServiceAccount is the account to impersonate for the
	// impersonate kind.
	TargetServiceAccount string `mapstructure:"target_service_account" yaml:"target_service_account,omitempty" env:"TARGET_SERVICE_ACCOUNT"`

	// KeyFile is the path to a service account JSON key for the keyfile kind.
	KeyFile string `mapstructure:"key_file" yaml:"key_file,omitempty" env:"KEY_FILE"`

	// AccessToken is a pre-issued OAuth2 access token for the token kind.
	AccessToken string `mapstructure:"access_token" yaml:"-" env:"ACCESS_TOKEN"`
}

// Provider kinds.
const (
	KindADC         = "adc"
	KindIDToken     = "idtoken"
	KindImpersonate = "impersonate"
	KindKeyFile     = "keyfile"
	KindToken       = "token"
)

// Kinds returns the known provider kinds, sorted.
func Kinds() []string {
	kinds := []string{KindADC, KindIDToken, KindImpersonate, KindKeyFile, KindToken}
	sort.Strings(kinds)
	return kinds
}

// New builds the provider selected by src. Parameters required by the chosen
// kind are validated here so misconfiguration fails at startup, not on the
// first check.
func New(src Source) (Provider, error) {
	kind := strings.TrimSpace(src.Kind)
	if kind == "" {
		kind = KindADC
	}

	switch kind {
	case KindADC:
		return &adcProvider{}, nil
	case KindIDToken:
		return newIDTokenProvider(src.Audience), nil
	case KindImpersonate:
		if strings.TrimSpace(src.TargetServiceAccount) == "" {
			return nil, errors.ErrBadRequest(
				"impersonate credential source requires a target service account", nil)
		}
		return newImpersonateProvider(src.TargetServiceAccount), nil
	case KindKeyFile:
		if strings.TrimSpace(src.KeyFile) == "" {
			return nil, errors.ErrBadRequest(
				"keyfile credential source requires a key file path", nil)
		}
		return &keyFileProvider{path: src.KeyFile}, nil
	case KindToken:
		if strings.TrimSpace(src.AccessToken) == "" {
			return nil, errors.ErrBadRequest(
				"token credential source requires an access token", nil)
		}
		return &staticTokenProvider{accessToken: src.AccessToken}, nil
	default:
		return nil, errors.ErrBadRequest(
			fmt.Sprintf("unknown credential source %q, known sources: %s",
				kind, strings.Join(Kinds(), ", ")), nil)
	}
}
