// Package sso verifies identity assertions from external providers before
// the account layer provisions or signs in the corresponding user.
package sso

import (
	"context"
	"errors"
	"strings"
)

// Known provider names. The mock provider trusts the request payload and is
// only permitted outside production.
const (
	ProviderGoogle    = "google"
	ProviderGithub    = "github"
	ProviderMicrosoft = "microsoft"
	ProviderMock      = "mock"
)

var (
	ErrUnknownProvider = errors.New("sso: unknown provider")
	ErrInvalidAssertion = errors.New("sso: invalid assertion")
)

// Credential is the raw SSO material presented by the client. IDToken is set
// for OIDC providers; Email/Name are only trusted by the mock provider.
type Credential struct {
	Provider string
	IDToken  string
	Email    string
	Name     string
}

// Profile is the verified identity-provider view of the user.
type Profile struct {
	Email string
	Name  string
}

// Verifier checks an SSO credential and returns the asserted profile.
type Verifier interface {
	Verify(ctx context.Context, cred Credential) (Profile, error)
}

// ValidProvider reports whether the provider name is one we accept.
func ValidProvider(p string) bool {
	switch strings.ToLower(p) {
	case ProviderGoogle, ProviderGithub, ProviderMicrosoft, ProviderMock:
		return true
	default:
		return false
	}
}
