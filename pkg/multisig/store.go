package multisig

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/contractforge/registry/internal/platform"
	"github.com/contractforge/registry/pkg/regerr"
)

// Store provides database operations for multisig policies and proposals.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates a multisig Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

func scanPolicy(row pgx.Row) (Policy, error) {
	var p Policy
	err := row.Scan(&p.ID, &p.ContractID, &p.Name, &p.Threshold, &p.SignerAddresses, &p.ExpirySeconds, &p.CreatedAt)
	return p, err
}

// CreatePolicy inserts a new immutable signer policy.
func (s *Store) CreatePolicy(ctx context.Context, p Policy) (Policy, error) {
	row := s.dbtx.QueryRow(ctx, `
		INSERT INTO multisig_policies (id, contract_id, name, threshold, signer_addresses, expiry_seconds, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())
		RETURNING id, contract_id, name, threshold, signer_addresses, expiry_seconds, created_at`,
		uuid.New(), p.ContractID, p.Name, p.Threshold, p.SignerAddresses, p.ExpirySeconds,
	)
	return scanPolicy(row)
}

// GetPolicy returns a policy by id.
func (s *Store) GetPolicy(ctx context.Context, id uuid.UUID) (Policy, error) {
	row := s.dbtx.QueryRow(ctx, `
		SELECT id, contract_id, name, threshold, signer_addresses, expiry_seconds, created_at
		FROM multisig_policies WHERE id = $1`, id)
	p, err := scanPolicy(row)
	if err == pgx.ErrNoRows {
		return Policy{}, regerr.New(regerr.KindPolicyNotFound, "multisig policy not found")
	}
	return p, err
}

const proposalColumns = `id, contract_id, policy_id, wasm_hash, proposer, status, created_at, expires_at, executed_at, executed_by`

func scanProposal(row pgx.Row) (Proposal, error) {
	var (
		p          Proposal
		executedAt pgtype.Timestamptz
		executedBy pgtype.Text
	)
	err := row.Scan(&p.ID, &p.ContractID, &p.PolicyID, &p.WasmHash, &p.Proposer, &p.Status, &p.CreatedAt, &p.ExpiresAt, &executedAt, &executedBy)
	if err != nil {
		return Proposal{}, err
	}
	if executedAt.Valid {
		t := executedAt.Time
		p.ExecutedAt = &t
	}
	if executedBy.Valid {
		p.ExecutedBy = executedBy.String
	}
	return p, nil
}

// CreateProposal inserts a new pending proposal.
func (s *Store) CreateProposal(ctx context.Context, p Proposal) (Proposal, error) {
	row := s.dbtx.QueryRow(ctx, `
		INSERT INTO deploy_proposals (id, contract_id, policy_id, wasm_hash, proposer, status, created_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+proposalColumns,
		uuid.New(), p.ContractID, p.PolicyID, p.WasmHash, p.Proposer, p.Status, p.CreatedAt, p.ExpiresAt,
	)
	return scanProposal(row)
}

// GetProposal returns a proposal by id.
func (s *Store) GetProposal(ctx context.Context, id uuid.UUID) (Proposal, error) {
	row := s.dbtx.QueryRow(ctx, `SELECT `+proposalColumns+` FROM deploy_proposals WHERE id = $1`, id)
	p, err := scanProposal(row)
	if err == pgx.ErrNoRows {
		return Proposal{}, regerr.New(regerr.KindProposalNotFound, "proposal not found")
	}
	return p, err
}

// TransitionStatus performs an atomic conditional status update guarded by
// (id, from_status), per spec §4.3's "concurrent transitions serialize
// through an atomic update guarded by (id, from_state)" requirement.
func (s *Store) TransitionStatus(ctx context.Context, id uuid.UUID, from, to Status) (Proposal, error) {
	row := s.dbtx.QueryRow(ctx, `
		UPDATE deploy_proposals SET status = $3
		WHERE id = $1 AND status = $2
		RETURNING `+proposalColumns,
		id, from, to,
	)
	p, err := scanProposal(row)
	if err == pgx.ErrNoRows {
		return Proposal{}, regerr.New(regerr.KindProposalNotPending, "proposal state changed concurrently")
	}
	return p, err
}

// Execute records execution and transitions the proposal to executed.
func (s *Store) Execute(ctx context.Context, id uuid.UUID, executedBy string) (Proposal, error) {
	row := s.dbtx.QueryRow(ctx, `
		UPDATE deploy_proposals SET status = $3, executed_at = now(), executed_by = $4
		WHERE id = $1 AND status = $2
		RETURNING `+proposalColumns,
		id, StatusApproved, StatusExecuted, executedBy,
	)
	p, err := scanProposal(row)
	if err == pgx.ErrNoRows {
		return Proposal{}, regerr.New(regerr.KindProposalNotApproved, "proposal state changed concurrently")
	}
	return p, err
}

// HasSigned reports whether signerAddress has already signed proposalID.
func (s *Store) HasSigned(ctx context.Context, proposalID uuid.UUID, signerAddress string) (bool, error) {
	var exists bool
	err := s.dbtx.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM proposal_signatures WHERE proposal_id = $1 AND signer_address = $2)`,
		proposalID, signerAddress,
	).Scan(&exists)
	return exists, err
}

// AddSignature inserts a proposal signature. Unique (proposal_id,
// signer_address) is enforced by a database constraint as a second line of
// defense against the service-level HasSigned check racing concurrently.
func (s *Store) AddSignature(ctx context.Context, sig Signature) (Signature, error) {
	row := s.dbtx.QueryRow(ctx, `
		INSERT INTO proposal_signatures (id, proposal_id, signer_address, signature, created_at)
		VALUES ($1,$2,$3,$4,now())
		RETURNING id, proposal_id, signer_address, signature, created_at`,
		uuid.New(), sig.ProposalID, sig.SignerAddress, sig.Signature,
	)
	var s2 Signature
	err := row.Scan(&s2.ID, &s2.ProposalID, &s2.SignerAddress, &s2.Signature, &s2.CreatedAt)
	return s2, err
}

// CountSignatures returns the number of distinct signers for a proposal.
func (s *Store) CountSignatures(ctx context.Context, proposalID uuid.UUID) (int, error) {
	var count int
	err := s.dbtx.QueryRow(ctx, `SELECT count(*) FROM proposal_signatures WHERE proposal_id = $1`, proposalID).Scan(&count)
	return count, err
}
