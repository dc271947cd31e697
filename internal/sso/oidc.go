package sso

import (
	"context"
	"fmt"
	"strings"

	"bkp-platform/internal/config"

	"github.com/coreos/go-oidc/v3/oidc"
)

// OIDCVerifier validates raw ID tokens against a single configured issuer.
// Provider discovery happens once at construction.
type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

func NewOIDCVerifier(ctx context.Context, cfg config.SSOConfig) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, cfg.IssuerURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}
	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, cred Credential) (Profile, error) {
	if !ValidProvider(cred.Provider) || cred.Provider == ProviderMock {
		return Profile{}, ErrUnknownProvider
	}
	if cred.IDToken == "" {
		return Profile{}, ErrInvalidAssertion
	}

	idToken, err := v.verifier.Verify(ctx, cred.IDToken)
	if err != nil {
		return Profile{}, ErrInvalidAssertion
	}

	var claims struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Profile{}, ErrInvalidAssertion
	}
	if claims.Email == "" {
		return Profile{}, ErrInvalidAssertion
	}
	if claims.Name == "" {
		claims.Name = claims.Email
	}
	return Profile{Email: strings.ToLower(claims.Email), Name: claims.Name}, nil
}
