// Package regerr defines the stable error vocabulary shared across the
// registry's domain packages. Every domain error carries a Kind that the
// HTTP layer maps to a status code (see internal/httpserver), so domain code
// never imports net/http.
package regerr

import "fmt"

// Kind is a stable, SCREAMING_SNAKE_CASE error code as required by spec §7.
type Kind string

const (
	// Input
	KindInvalidRequest    Kind = "INVALID_REQUEST"
	KindInvalidQuery      Kind = "INVALID_QUERY"
	KindInvalidPagination Kind = "INVALID_PAGINATION"
	KindInvalidSignature  Kind = "INVALID_SIGNATURE"
	KindInvalidName       Kind = "INVALID_NAME"
	KindInvalidRollout    Kind = "INVALID_ROLLOUT"
	KindInvalidPercentage Kind = "INVALID_PERCENTAGE"
	KindInvalidSplit      Kind = "INVALID_SPLIT"
	KindInvalidThreshold  Kind = "INVALID_THRESHOLD"
	KindInvalidWeights    Kind = "INVALID_WEIGHTS"

	// Not found
	KindContractNotFound Kind = "CONTRACT_NOT_FOUND"
	KindProposalNotFound Kind = "PROPOSAL_NOT_FOUND"
	KindPolicyNotFound   Kind = "POLICY_NOT_FOUND"
	KindAuditNotFound    Kind = "AUDIT_NOT_FOUND"
	KindABINotFound      Kind = "ABI_NOT_FOUND"

	// State conflict
	KindAlreadyInitialized     Kind = "ALREADY_INITIALIZED"
	KindAlreadyExists          Kind = "ALREADY_EXISTS"
	KindAlreadyActive          Kind = "ALREADY_ACTIVE"
	KindAlreadyInactive        Kind = "ALREADY_INACTIVE"
	KindAlreadySunset          Kind = "ALREADY_SUNSET"
	KindAlreadyRevoked         Kind = "ALREADY_REVOKED"
	KindAlreadySigned          Kind = "ALREADY_SIGNED"
	KindProposalNotPending     Kind = "PROPOSAL_NOT_PENDING"
	KindProposalNotApproved    Kind = "PROPOSAL_NOT_APPROVED"
	KindThresholdExceedsSigner Kind = "THRESHOLD_EXCEEDS_SIGNERS"
	KindUnauthorizedSigner     Kind = "UNAUTHORIZED_SIGNER"

	// Time/lifecycle
	KindProposalExpired Kind = "PROPOSAL_EXPIRED"
	KindSignatureExpired Kind = "SIGNATURE_EXPIRED"

	// Contract rules
	KindBreakingChangeWithoutMajorBump Kind = "BREAKING_CHANGE_WITHOUT_MAJOR_BUMP"

	// Validator
	KindFunctionNotFound    Kind = "FUNCTION_NOT_FOUND"
	KindFunctionNotPublic   Kind = "FUNCTION_NOT_PUBLIC"
	KindParamCountMismatch  Kind = "PARAM_COUNT_MISMATCH"
	KindTypeMismatch        Kind = "TYPE_MISMATCH"
	KindParseError          Kind = "PARSE_ERROR"
	KindValueOutOfRange     Kind = "VALUE_OUT_OF_RANGE"
	KindInvalidAddress      Kind = "INVALID_ADDRESS"
	KindInvalidSymbol       Kind = "INVALID_SYMBOL"
)

// Error is the stable shape every domain error is returned as. Field,
// Expected, and Actual are optional context used to build precise messages
// without leaking internal schema details (see httpserver's boundary
// collapse of persistence errors).
type Error struct {
	Kind     Kind
	Message  string
	Field    string
	Expected string
	Actual   string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// New builds a plain Error with no field context.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithField builds an Error that names the offending request field.
func WithField(kind Kind, message, field string) *Error {
	return &Error{Kind: kind, Message: message, Field: field}
}

// Mismatch builds an Error carrying expected/actual descriptors, used by the
// ABI validator and semver differ.
func Mismatch(kind Kind, message, field, expected, actual string) *Error {
	return &Error{Kind: kind, Message: message, Field: field, Expected: expected, Actual: actual}
}

// List is an ordered collection of errors. Validation never stops at the
// first failure (spec §4.1): every applicable check runs and all failures
// are reported together.
type List []*Error

func (l List) Error() string {
	if len(l) == 0 {
		return "no errors"
	}
	if len(l) == 1 {
		return l[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %s", len(l), l[0].Error())
}

// HasErrors reports whether the list contains any entry. A nil List and an
// empty List both report false.
func (l List) HasErrors() bool { return len(l) > 0 }
