package multisig

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/contractforge/registry/pkg/regerr"
)

// Service implements the proposal state machine transitions of spec §4.3.
type Service struct {
	store  *Store
	logger *slog.Logger
}

// NewService creates a multisig Service backed by store.
func NewService(store *Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// CreatePolicy validates and persists an immutable signer policy.
func (s *Service) CreatePolicy(ctx context.Context, req CreatePolicyRequest) (Policy, error) {
	if req.Threshold > len(req.SignerAddresses) {
		return Policy{}, regerr.Mismatch(regerr.KindThresholdExceedsSigner,
			"threshold exceeds number of signers", "threshold",
			fmt.Sprintf("<= %d", len(req.SignerAddresses)), fmt.Sprintf("%d", req.Threshold))
	}
	return s.store.CreatePolicy(ctx, Policy{
		ContractID:      req.ContractID,
		Name:            req.Name,
		Threshold:       req.Threshold,
		SignerAddresses: req.SignerAddresses,
		ExpirySeconds:   req.ExpirySeconds,
	})
}

// SubmitProposal creates a new pending proposal against a policy.
func (s *Service) SubmitProposal(ctx context.Context, proposer string, req SubmitProposalRequest) (Proposal, error) {
	policy, err := s.store.GetPolicy(ctx, req.PolicyID)
	if err != nil {
		return Proposal{}, err
	}

	now := time.Now().UTC()
	proposal := Proposal{
		ContractID: req.ContractID,
		PolicyID:   req.PolicyID,
		WasmHash:   req.WasmHash,
		Proposer:   proposer,
		Status:     StatusPending,
		CreatedAt:  now,
		ExpiresAt:  now.Add(time.Duration(policy.ExpirySeconds) * time.Second),
	}
	return s.store.CreateProposal(ctx, proposal)
}

// AddSignature validates a signer's approval and atomically transitions the
// proposal to approved once the threshold is met.
func (s *Service) AddSignature(ctx context.Context, proposalID uuid.UUID, req AddSignatureRequest) (Proposal, error) {
	proposal, err := s.getLive(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}

	if proposal.Status != StatusPending {
		return Proposal{}, regerr.New(regerr.KindProposalNotPending, "proposal is not pending")
	}

	policy, err := s.store.GetPolicy(ctx, proposal.PolicyID)
	if err != nil {
		return Proposal{}, err
	}

	if !contains(policy.SignerAddresses, req.SignerAddress) {
		return Proposal{}, regerr.WithField(regerr.KindUnauthorizedSigner, "signer is not authorized for this policy", "signer_address")
	}

	if err := verifyProposalSignature(proposalID, proposal.WasmHash, req.PublicKey, req.Signature); err != nil {
		return Proposal{}, regerr.WithField(regerr.KindInvalidSignature, err.Error(), "signature")
	}

	alreadySigned, err := s.store.HasSigned(ctx, proposalID, req.SignerAddress)
	if err != nil {
		return Proposal{}, err
	}
	if alreadySigned {
		return Proposal{}, regerr.New(regerr.KindAlreadySigned, "signer has already signed this proposal")
	}

	if _, err := s.store.AddSignature(ctx, Signature{
		ProposalID:    proposalID,
		SignerAddress: req.SignerAddress,
		Signature:     req.Signature,
	}); err != nil {
		return Proposal{}, err
	}

	count, err := s.store.CountSignatures(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}

	if count >= policy.Threshold {
		updated, err := s.store.TransitionStatus(ctx, proposalID, StatusPending, StatusApproved)
		if err != nil {
			return Proposal{}, err
		}
		return updated, nil
	}

	return s.store.GetProposal(ctx, proposalID)
}

// Execute transitions an approved, unexpired proposal to executed.
func (s *Service) Execute(ctx context.Context, proposalID uuid.UUID, executedBy string) (Proposal, error) {
	proposal, err := s.getLive(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}

	if proposal.Status != StatusApproved {
		return Proposal{}, regerr.New(regerr.KindProposalNotApproved, "proposal has not reached approval threshold")
	}

	return s.store.Execute(ctx, proposalID, executedBy)
}

// getLive fetches a proposal and applies lazy expiry: a non-terminal
// proposal read past its expiry is transitioned to expired before any
// further processing, and the current operation fails.
func (s *Service) getLive(ctx context.Context, proposalID uuid.UUID) (Proposal, error) {
	proposal, err := s.store.GetProposal(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}

	if (proposal.Status == StatusPending || proposal.Status == StatusApproved) && time.Now().UTC().After(proposal.ExpiresAt) {
		expired, err := s.store.TransitionStatus(ctx, proposalID, proposal.Status, StatusExpired)
		if err != nil {
			return Proposal{}, err
		}
		s.logger.Info("proposal lazily expired", "proposal_id", proposalID)
		return Proposal{}, regerr.New(regerr.KindProposalExpired, fmt.Sprintf("proposal expired at %s", expired.ExpiresAt))
	}

	return proposal, nil
}

func verifyProposalSignature(proposalID uuid.UUID, wasmHash, publicKeyB64, signatureB64 string) error {
	pub, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return fmt.Errorf("decoding public key: %w", err)
	}
	if len(pub) != ed25519.PublicKeySize {
		return fmt.Errorf("public key must be %d bytes", ed25519.PublicKeySize)
	}
	sig, err := base64.StdEncoding.DecodeString(signatureB64)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("signature must be %d bytes", ed25519.SignatureSize)
	}
	if !ed25519.Verify(pub, BindingMessage(proposalID, wasmHash), sig) {
		return fmt.Errorf("signature does not verify against proposal_id and wasm_hash")
	}
	return nil
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
