// Package multisig implements the threshold-signature deployment state
// machine described by spec §4.3: policies are immutable signer sets,
// proposals move pending -> approved -> executed, with lazy expiry to
// expired from either non-terminal state. Grounded on the teacher's
// pkg/escalation tier-transition engine for the atomic, guarded-update
// transition pattern.
package multisig

import (
	"crypto/sha256"
	"time"

	"github.com/google/uuid"
)

// Status is a DeployProposal's lifecycle state.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusExecuted Status = "executed"
	StatusExpired  Status = "expired"
)

// Policy is an immutable signer set and approval threshold for a contract's
// deployments. Created once; never mutated.
type Policy struct {
	ID              uuid.UUID `json:"id"`
	ContractID      uuid.UUID `json:"contract_id"`
	Name            string    `json:"name"`
	Threshold       int       `json:"threshold"`
	SignerAddresses []string  `json:"signer_addresses"`
	ExpirySeconds   int       `json:"expiry_seconds"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreatePolicyRequest is the JSON body for POST /api/v1/multisig/policies.
type CreatePolicyRequest struct {
	ContractID      uuid.UUID `json:"contract_id" validate:"required"`
	Name            string    `json:"name" validate:"required,min=1,max=255"`
	Threshold       int       `json:"threshold" validate:"required,min=1"`
	SignerAddresses []string  `json:"signer_addresses" validate:"required,min=1,dive,required"`
	ExpirySeconds   int       `json:"expiry_seconds" validate:"required,min=1"`
}

// Proposal is a single proposed deployment moving through the policy's
// approval state machine.
type Proposal struct {
	ID          uuid.UUID  `json:"id"`
	ContractID  uuid.UUID  `json:"contract_id"`
	PolicyID    uuid.UUID  `json:"policy_id"`
	WasmHash    string     `json:"wasm_hash"`
	Proposer    string     `json:"proposer"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	ExecutedAt  *time.Time `json:"executed_at,omitempty"`
	ExecutedBy  string     `json:"executed_by,omitempty"`
}

// Signature records one signer's approval of a proposal. Binds to
// SHA-256(proposal_id ":" wasm_hash) so a signature cannot be replayed
// against a different proposal or a resubmitted wasm hash — see DESIGN.md's
// Open Question 3 resolution.
type Signature struct {
	ID            uuid.UUID `json:"id"`
	ProposalID    uuid.UUID `json:"proposal_id"`
	SignerAddress string    `json:"signer_address"`
	Signature     string    `json:"signature"` // base64 ed25519 signature
	CreatedAt     time.Time `json:"created_at"`
}

// SubmitProposalRequest is the JSON body for POST /api/v1/multisig/proposals.
type SubmitProposalRequest struct {
	ContractID uuid.UUID `json:"contract_id" validate:"required"`
	PolicyID   uuid.UUID `json:"policy_id" validate:"required"`
	WasmHash   string    `json:"wasm_hash" validate:"required,len=64,hexadecimal"`
}

// AddSignatureRequest is the JSON body for POST /api/v1/multisig/proposals/:id/signatures.
type AddSignatureRequest struct {
	SignerAddress string `json:"signer_address" validate:"required"`
	PublicKey     string `json:"public_key" validate:"required"`
	Signature     string `json:"signature" validate:"required"`
}

// BindingMessage returns the canonical message a proposal signature commits
// to: the 32-byte SHA-256 digest of proposal_id ":" wasm_hash.
func BindingMessage(proposalID uuid.UUID, wasmHash string) []byte {
	sum := sha256.Sum256([]byte(proposalID.String() + ":" + wasmHash))
	return sum[:]
}
