package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// APIKeyRecord is what the store returns for a valid key hash lookup.
type APIKeyRecord struct {
	ID        string
	Address   string
	ExpiresAt *time.Time
}

// APIKeyStore is the narrow persistence port api-key authentication needs.
// Implementations hash-look-up raw keys and record last-used timestamps;
// the registry never stores raw keys, only their SHA-256 hash (grounded on
// the teacher's pkg/apikey hash/generate pattern).
type APIKeyStore interface {
	LookupByHash(ctx context.Context, hash string) (APIKeyRecord, error)
	TouchLastUsed(ctx context.Context, id string)
}

// HashAPIKey returns the SHA-256 hex digest of a raw API key.
func HashAPIKey(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}

// APIKeyAuthenticator validates API keys against a store.
type APIKeyAuthenticator struct {
	Store APIKeyStore
}

// Authenticate hashes rawKey, looks it up, and validates expiry.
func (a *APIKeyAuthenticator) Authenticate(ctx context.Context, rawKey string) (*ActorIdentity, error) {
	if rawKey == "" {
		return nil, fmt.Errorf("empty API key")
	}

	rec, err := a.Store.LookupByHash(ctx, HashAPIKey(rawKey))
	if err != nil {
		return nil, fmt.Errorf("looking up API key: %w", err)
	}
	if rec.ExpiresAt != nil && rec.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("API key expired at %s", rec.ExpiresAt)
	}

	go a.Store.TouchLastUsed(context.Background(), rec.ID)

	return &ActorIdentity{Address: rec.Address, Subject: rec.ID, Method: MethodAPIKey}, nil
}
