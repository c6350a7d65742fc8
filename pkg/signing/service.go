package signing

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contractforge/registry/pkg/regerr"
)

// TransparencyAppender is the subset of pkg/transparency's log writer that
// signing needs. Declared here (rather than importing pkg/transparency
// directly) so the two packages can evolve independently and neither imports
// the other's concrete types.
type TransparencyAppender interface {
	Append(ctx context.Context, entryType, contractID, signatureID, actorAddress string) error
}

// Service implements the signing and verification procedures of spec §4.2.
type Service struct {
	store  *Store
	log    TransparencyAppender
	logger *slog.Logger
	digest DigestAlgo
}

// NewService creates a signing Service backed by store, publishing
// transparency entries through log.
func NewService(store *Store, log TransparencyAppender, logger *slog.Logger, digest DigestAlgo) *Service {
	return &Service{store: store, log: log, logger: logger, digest: digest}
}

// SignParams describes a new signing submission.
type SignParams struct {
	ContractID string
	Version    string
	WasmHash   string
	PublicKey  string // base64
	PrivateKey ed25519.PrivateKey
	SignerAddr string // optional override; derived from PublicKey if empty
	ExpiresAt  *time.Time
}

// Sign signs the canonical message with the caller-supplied key, derives the
// signer address if not given explicitly, and persists a valid signature.
func (s *Service) Sign(ctx context.Context, p SignParams) (PackageSignature, error) {
	sigB64 := Sign(p.PrivateKey, p.ContractID, p.Version, p.WasmHash)

	addr := p.SignerAddr
	if addr == "" {
		var err error
		addr, err = DeriveAddress(p.PublicKey, s.digest)
		if err != nil {
			return PackageSignature{}, fmt.Errorf("deriving signer address: %w", err)
		}
	}

	sig := PackageSignature{
		ContractID:    p.ContractID,
		Version:       p.Version,
		WasmHash:      p.WasmHash,
		PublicKey:     []byte(p.PublicKey),
		Signature:     []byte(sigB64),
		SignerAddress: addr,
		Status:        StatusValid,
		ExpiresAt:     p.ExpiresAt,
	}

	created, err := s.store.Create(ctx, sig)
	if err != nil {
		return PackageSignature{}, fmt.Errorf("persisting signature: %w", err)
	}

	if err := s.log.Append(ctx, "PackageSigned", p.ContractID, created.ID.String(), addr); err != nil {
		s.logger.Warn("transparency log append failed", "error", err, "contract_id", p.ContractID)
	}

	return created, nil
}

// VerifyParams locates the signature record to verify.
type VerifyParams struct {
	ContractID string
	WasmHash   string
	Version    string // optional
	Signature  string // optional, base64
}

// Verify implements spec §4.2's 4-step verification procedure: locate the
// record, verify the cryptographic signature, require status "valid" with no
// expiry breach (proactively expiring if breached), and append a
// SignatureVerified transparency entry on success.
func (s *Service) Verify(ctx context.Context, p VerifyParams) (PackageSignature, error) {
	sig, err := s.store.Find(ctx, p.ContractID, p.WasmHash, p.Version, p.Signature)
	if err != nil {
		return PackageSignature{}, err
	}

	if sig.Status == StatusValid && sig.ExpiresAt != nil && sig.ExpiresAt.Before(time.Now()) {
		if expireErr := s.store.MarkExpired(ctx, sig.ID); expireErr != nil {
			s.logger.Error("marking signature expired failed", "error", expireErr, "signature_id", sig.ID)
		}
		sig.Status = StatusExpired
	}

	ok, err := VerifySignature(string(sig.PublicKey), string(sig.Signature), sig.ContractID, sig.Version, sig.WasmHash)
	if err != nil {
		return PackageSignature{}, regerr.WithField(regerr.KindInvalidSignature, err.Error(), "signature")
	}
	if !ok || sig.Status != StatusValid {
		return PackageSignature{}, regerr.New(regerr.KindInvalidSignature,
			"signature verification failed: cryptographic check or status check did not pass")
	}

	if err := s.log.Append(ctx, "SignatureVerified", sig.ContractID, sig.ID.String(), sig.SignerAddress); err != nil {
		s.logger.Warn("transparency log append failed", "error", err, "contract_id", sig.ContractID)
	}

	return sig, nil
}

// Revoke transitions a valid signature to revoked, recording who revoked it
// and why. Re-revoking an already-revoked signature yields AlreadyRevoked.
func (s *Service) Revoke(ctx context.Context, id uuid.UUID, revokedBy, reason string) error {
	sig, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sig.Status == StatusRevoked {
		return regerr.New(regerr.KindAlreadyRevoked, "signature has already been revoked")
	}
	if err := s.store.Revoke(ctx, id, revokedBy, reason); err != nil {
		return fmt.Errorf("revoking signature: %w", err)
	}
	if err := s.log.Append(ctx, "SignatureRevoked", sig.ContractID, sig.ID.String(), revokedBy); err != nil {
		s.logger.Warn("transparency log append failed", "error", err, "contract_id", sig.ContractID)
	}
	return nil
}
