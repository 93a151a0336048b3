package provider

import (
	"context"

	"niveshx-api/internal/auth"
)

// OAuthProvider is an external sign-in provider. Implementations return
// identity facts only and never create accounts or issue tokens.
type OAuthProvider interface {
	// Name is the registry key and the :provider route segment.
	Name() string

	// AuthCodeURL returns the authorization URL carrying state and the
	// PKCE challenge generated by the caller.
	AuthCodeURL(state string, codeChallenge string) string

	// ExchangeCode trades the authorization code for a verified identity.
	ExchangeCode(
		ctx context.Context,
		code string,
		codeVerifier string,
	) (*auth.Identity, error)
}
