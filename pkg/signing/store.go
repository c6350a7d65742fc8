package signing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/contractforge/registry/internal/platform"
	"github.com/contractforge/registry/pkg/regerr"
)

// Store provides database operations for package signatures.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates a signing Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

const signatureColumns = `id, contract_id, version, wasm_hash, public_key, signature,
	signer_address, status, created_at, expires_at, revoked_by, revoked_reason, revoked_at`

func scanSignature(row pgx.Row) (PackageSignature, error) {
	var (
		sig       PackageSignature
		expiresAt pgtype.Timestamptz
		revokedBy pgtype.Text
		reason    pgtype.Text
		revokedAt pgtype.Timestamptz
	)
	err := row.Scan(
		&sig.ID, &sig.ContractID, &sig.Version, &sig.WasmHash, &sig.PublicKey, &sig.Signature,
		&sig.SignerAddress, &sig.Status, &sig.CreatedAt, &expiresAt, &revokedBy, &reason, &revokedAt,
	)
	if err != nil {
		return PackageSignature{}, err
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		sig.ExpiresAt = &t
	}
	if revokedBy.Valid {
		sig.RevokedBy = revokedBy.String
	}
	if reason.Valid {
		sig.RevokedReason = reason.String
	}
	if revokedAt.Valid {
		t := revokedAt.Time
		sig.RevokedAt = &t
	}
	return sig, nil
}

// Create inserts a new valid package signature.
func (s *Store) Create(ctx context.Context, sig PackageSignature) (PackageSignature, error) {
	var expiresAt pgtype.Timestamptz
	if sig.ExpiresAt != nil {
		expiresAt = pgtype.Timestamptz{Time: *sig.ExpiresAt, Valid: true}
	}
	query := `INSERT INTO package_signatures (
		contract_id, version, wasm_hash, public_key, signature, signer_address, status, created_at, expires_at
	) VALUES ($1,$2,$3,$4,$5,$6,$7,now(),$8)
	RETURNING ` + signatureColumns
	row := s.dbtx.QueryRow(ctx, query,
		sig.ContractID, sig.Version, sig.WasmHash, sig.PublicKey, sig.Signature,
		sig.SignerAddress, sig.Status, expiresAt,
	)
	return scanSignature(row)
}

// Get returns a signature by ID.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (PackageSignature, error) {
	query := `SELECT ` + signatureColumns + ` FROM package_signatures WHERE id = $1`
	sig, err := scanSignature(s.dbtx.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return PackageSignature{}, regerr.New(regerr.KindContractNotFound, "signature not found")
		}
		return PackageSignature{}, fmt.Errorf("loading signature: %w", err)
	}
	return sig, nil
}

// Find locates a signature by (contract_id, wasm_hash) plus optional
// version and signature-bytes filters, per spec §4.2 step 1.
func (s *Store) Find(ctx context.Context, contractID, wasmHash, version, signatureB64 string) (PackageSignature, error) {
	query := `SELECT ` + signatureColumns + ` FROM package_signatures
	          WHERE contract_id = $1 AND wasm_hash = $2
	          AND ($3 = '' OR version = $3)
	          AND ($4 = '' OR signature = $4)
	          ORDER BY created_at DESC LIMIT 1`
	sig, err := scanSignature(s.dbtx.QueryRow(ctx, query, contractID, wasmHash, version, signatureB64))
	if err != nil {
		if err == pgx.ErrNoRows {
			return PackageSignature{}, regerr.New(regerr.KindContractNotFound, "no matching signature record")
		}
		return PackageSignature{}, fmt.Errorf("finding signature: %w", err)
	}
	return sig, nil
}

// MarkExpired transitions a signature to expired, guarded on it still being
// valid so a concurrent verify/revoke cannot race past this update.
func (s *Store) MarkExpired(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE package_signatures SET status = $1 WHERE id = $2 AND status = $3`
	tag, err := s.dbtx.Exec(ctx, query, StatusExpired, id, StatusValid)
	if err != nil {
		return fmt.Errorf("marking signature expired: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return regerr.New(regerr.KindAlreadyRevoked, "signature is no longer valid")
	}
	return nil
}

// Revoke transitions a valid signature to revoked, guarded atomically on the
// prior status so a double-revoke cannot both succeed.
func (s *Store) Revoke(ctx context.Context, id uuid.UUID, revokedBy, reason string) error {
	query := `UPDATE package_signatures
	          SET status = $1, revoked_by = $2, revoked_reason = $3, revoked_at = now()
	          WHERE id = $4 AND status = $5`
	tag, err := s.dbtx.Exec(ctx, query, StatusRevoked, revokedBy, reason, id, StatusValid)
	if err != nil {
		return fmt.Errorf("revoking signature: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return regerr.New(regerr.KindAlreadyRevoked, "signature is not in a revocable state")
	}
	return nil
}
