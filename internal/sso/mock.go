package sso

import (
	"context"
	"strings"
)

// MockVerifier trusts the request payload. Config validation keeps it out of
// production; it exists so local and CI environments can exercise the SSO
// flow without a real provider.
type MockVerifier struct{}

func (MockVerifier) Verify(ctx context.Context, cred Credential) (Profile, error) {
	if !ValidProvider(cred.Provider) {
		return Profile{}, ErrUnknownProvider
	}
	email := strings.ToLower(strings.TrimSpace(cred.Email))
	if email == "" || !strings.Contains(email, "@") {
		return Profile{}, ErrInvalidAssertion
	}
	name := strings.TrimSpace(cred.Name)
	if name == "" {
		name = email
	}
	return Profile{Email: email, Name: name}, nil
}
