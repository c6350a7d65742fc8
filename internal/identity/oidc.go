package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
)

// oidcClaims are the JWT claims extracted for authentication. "address" is
// the chain address the token asserts for its subject — the registry trusts
// it only after the OIDC signature check below passes.
type oidcClaims struct {
	Subject string `json:"sub"`
	Address string `json:"address"`
}

// OIDCAuthenticator validates OIDC JWTs and extracts an ActorIdentity.
type OIDCAuthenticator struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCAuthenticator performs OIDC discovery against issuerURL and builds
// a verifier scoped to clientID. This makes a network call to fetch the
// provider's public keys.
func NewOIDCAuthenticator(ctx context.Context, issuerURL, clientID string) (*OIDCAuthenticator, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("discovering OIDC provider %s: %w", issuerURL, err)
	}
	return &OIDCAuthenticator{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// Authenticate validates a raw "Authorization: Bearer <jwt>" header value
// and returns the resolved ActorIdentity.
func (a *OIDCAuthenticator) Authenticate(ctx context.Context, authHeader string) (*ActorIdentity, error) {
	token := strings.TrimPrefix(authHeader, "Bearer ")
	token = strings.TrimPrefix(token, "bearer ")
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("empty bearer token")
	}

	idToken, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("verifying token: %w", err)
	}

	var claims oidcClaims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("extracting claims: %w", err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("token missing sub claim")
	}
	addr := claims.Address
	if addr == "" {
		addr = claims.Subject
	}

	return &ActorIdentity{Address: addr, Subject: claims.Subject, Method: MethodOIDC}, nil
}
