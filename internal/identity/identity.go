// Package identity resolves the authenticated caller for each request — the
// ActorIdentity whose Address feeds actor_address on transparency-log
// entries, ProposalSignature.signer_address, and request audit trail rows.
// Grounded on the teacher's internal/auth OIDC + API-key identity
// resolution, trimmed of multi-tenant concerns this registry doesn't have.
package identity

import (
	"context"
)

// Method describes how the caller was authenticated.
const (
	MethodOIDC   = "oidc"
	MethodAPIKey = "apikey"
	MethodDev    = "dev"
)

// ActorIdentity represents the authenticated caller for the current
// request. Address is a chain-style address (e.g. the signer's address or a
// service-account address) and is the value threaded into every
// actor_address field across §4.2–4.6.
type ActorIdentity struct {
	Address string
	Subject string
	Method  string
}

type ctxKey struct{}

// NewContext stores the identity in the context.
func NewContext(ctx context.Context, id *ActorIdentity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the identity from the context, or nil if unset.
func FromContext(ctx context.Context) *ActorIdentity {
	v, _ := ctx.Value(ctxKey{}).(*ActorIdentity)
	return v
}

// AddressFromContext is a convenience accessor returning "" when no identity
// is present, used by handlers that degrade gracefully in dev mode.
func AddressFromContext(ctx context.Context) string {
	if id := FromContext(ctx); id != nil {
		return id.Address
	}
	return ""
}
