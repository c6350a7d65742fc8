package apikey

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contractforge/registry/internal/identity"
)

const rowColumns = `id, address, key_hash, key_prefix, description, last_used, expires_at, created_at`

// Store provides database operations for API keys.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates an API key Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// CreateParams holds parameters for creating an API key.
type CreateParams struct {
	Address     string
	KeyHash     string
	KeyPrefix   string
	Description string
	ExpiresAt   pgtype.Timestamptz
}

func scanRow(row pgx.Row) (Row, error) {
	var r Row
	err := row.Scan(
		&r.ID, &r.Address, &r.KeyHash, &r.KeyPrefix, &r.Description,
		&r.LastUsed, &r.ExpiresAt, &r.CreatedAt,
	)
	return r, err
}

func scanRows(rows pgx.Rows) ([]Row, error) {
	defer rows.Close()
	var items []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning api key row: %w", err)
		}
		items = append(items, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating api key rows: %w", err)
	}
	return items, nil
}

// List returns all API keys issued to the given address.
func (s *Store) List(ctx context.Context, address string) ([]Row, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+rowColumns+` FROM api_keys WHERE address = $1 ORDER BY created_at DESC`, address)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	return scanRows(rows)
}

// Create inserts a new API key and returns the created row.
func (s *Store) Create(ctx context.Context, p CreateParams) (Row, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO api_keys (id, address, key_hash, key_prefix, description, expires_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
		RETURNING `+rowColumns,
		uuid.New(), p.Address, p.KeyHash, p.KeyPrefix, p.Description, p.ExpiresAt,
	)
	return scanRow(row)
}

// Delete permanently removes an API key by ID.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM api_keys WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// LookupByHash implements identity.APIKeyStore: it resolves a key hash to
// the ActorIdentity address it authenticates as.
func (s *Store) LookupByHash(ctx context.Context, hash string) (identity.APIKeyRecord, error) {
	var rec identity.APIKeyRecord
	var expiresAt pgtype.Timestamptz
	err := s.pool.QueryRow(ctx, `SELECT id, address, expires_at FROM api_keys WHERE key_hash = $1`, hash).
		Scan(&rec.ID, &rec.Address, &expiresAt)
	if err != nil {
		return identity.APIKeyRecord{}, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		rec.ExpiresAt = &t
	}
	return rec, nil
}

// TouchLastUsed updates the last-used timestamp for a key. Errors are
// swallowed by the caller (identity.APIKeyAuthenticator fires this
// fire-and-forget so a slow write never blocks request authentication).
func (s *Store) TouchLastUsed(ctx context.Context, id string) {
	keyID, err := uuid.Parse(id)
	if err != nil {
		return
	}
	_, _ = s.pool.Exec(ctx, `UPDATE api_keys SET last_used = now() WHERE id = $1`, keyID)
}
