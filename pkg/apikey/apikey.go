// Package apikey manages API keys that authenticate callers of the registry
// API as an ActorIdentity (see internal/identity). It backs
// identity.APIKeyStore with a Postgres-persisted table of unsalted SHA-256
// key hashes, and is the admin-facing surface for issuing/listing/revoking keys
// bound to a chain address. Adapted from the teacher's tenant-scoped
// pkg/apikey (hash/generate pattern kept, tenant/role/scopes dropped — this
// registry has no multi-tenant or RBAC concept, see SPEC_FULL.md §3).
package apikey

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// CreateRequest is the JSON body for POST /api/v1/api-keys.
type CreateRequest struct {
	Address     string `json:"address" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// Response is the JSON response for a single API key (never includes the raw key).
type Response struct {
	ID          uuid.UUID  `json:"id"`
	Address     string     `json:"address"`
	KeyPrefix   string     `json:"key_prefix"`
	Description string     `json:"description"`
	LastUsed    *time.Time `json:"last_used,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// CreateResponse includes the raw key — shown exactly once, at creation.
type CreateResponse struct {
	Response
	RawKey string `json:"raw_key"`
}

// Row represents a row from the api_keys table.
type Row struct {
	ID          uuid.UUID
	Address     string
	KeyHash     string
	KeyPrefix   string
	Description string
	LastUsed    pgtype.Timestamptz
	ExpiresAt   pgtype.Timestamptz
	CreatedAt   time.Time
}

// ToResponse converts a Row to its public DTO.
func (r *Row) ToResponse() Response {
	resp := Response{
		ID:          r.ID,
		Address:     r.Address,
		KeyPrefix:   r.KeyPrefix,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
	if r.LastUsed.Valid {
		t := r.LastUsed.Time
		resp.LastUsed = &t
	}
	if r.ExpiresAt.Valid {
		t := r.ExpiresAt.Time
		resp.ExpiresAt = &t
	}
	return resp
}
