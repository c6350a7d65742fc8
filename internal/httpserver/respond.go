package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/contractforge/registry/pkg/regerr"
)

// Respond writes a JSON response with the given status code.
func Respond(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

// ErrorResponse is the standard JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// RespondError writes a JSON error response.
func RespondError(w http.ResponseWriter, status int, err string, message string) {
	Respond(w, status, ErrorResponse{Error: err, Message: message})
}

// kindStatus maps a domain error Kind to its HTTP status code. Keeping this
// table in httpserver (rather than in pkg/regerr) keeps domain packages free
// of any net/http import, per spec §7's propagation policy.
var kindStatus = map[regerr.Kind]int{
	regerr.KindInvalidRequest:    http.StatusBadRequest,
	regerr.KindInvalidQuery:      http.StatusBadRequest,
	regerr.KindInvalidPagination: http.StatusBadRequest,
	regerr.KindInvalidSignature:  http.StatusBadRequest,
	regerr.KindInvalidName:       http.StatusBadRequest,
	regerr.KindInvalidRollout:    http.StatusBadRequest,
	regerr.KindInvalidPercentage: http.StatusBadRequest,
	regerr.KindInvalidSplit:      http.StatusBadRequest,
	regerr.KindInvalidThreshold:  http.StatusBadRequest,
	regerr.KindInvalidWeights:    http.StatusBadRequest,

	regerr.KindContractNotFound: http.StatusNotFound,
	regerr.KindProposalNotFound: http.StatusNotFound,
	regerr.KindPolicyNotFound:   http.StatusNotFound,
	regerr.KindAuditNotFound:    http.StatusNotFound,
	regerr.KindABINotFound:      http.StatusNotFound,

	regerr.KindAlreadyInitialized:     http.StatusConflict,
	regerr.KindAlreadyExists:          http.StatusConflict,
	regerr.KindAlreadyActive:          http.StatusConflict,
	regerr.KindAlreadyInactive:        http.StatusConflict,
	regerr.KindAlreadySunset:          http.StatusConflict,
	regerr.KindAlreadyRevoked:         http.StatusConflict,
	regerr.KindAlreadySigned:          http.StatusConflict,
	regerr.KindProposalNotPending:     http.StatusConflict,
	regerr.KindProposalNotApproved:    http.StatusConflict,
	regerr.KindThresholdExceedsSigner: http.StatusConflict,
	regerr.KindUnauthorizedSigner:     http.StatusForbidden,

	regerr.KindProposalExpired:  http.StatusGone,
	regerr.KindSignatureExpired: http.StatusGone,

	regerr.KindBreakingChangeWithoutMajorBump: http.StatusConflict,

	regerr.KindFunctionNotFound:   http.StatusBadRequest,
	regerr.KindFunctionNotPublic:  http.StatusBadRequest,
	regerr.KindParamCountMismatch: http.StatusBadRequest,
	regerr.KindTypeMismatch:       http.StatusBadRequest,
	regerr.KindParseError:         http.StatusBadRequest,
	regerr.KindValueOutOfRange:    http.StatusBadRequest,
	regerr.KindInvalidAddress:     http.StatusBadRequest,
	regerr.KindInvalidSymbol:      http.StatusBadRequest,
}

// StatusFor returns the HTTP status code for a domain error kind, defaulting
// to 500 for kinds with no explicit mapping (the boundary collapse of
// persistence errors from spec §7's propagation policy).
func StatusFor(kind regerr.Kind) int {
	if status, ok := kindStatus[kind]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// RespondDomainError writes a single domain error as a JSON error response,
// choosing the status from StatusFor.
func RespondDomainError(w http.ResponseWriter, err *regerr.Error) {
	RespondError(w, StatusFor(err.Kind), string(err.Kind), err.Message)
}

// DomainErrorList is the JSON envelope for a multi-error validation failure
// (spec §4.1: every applicable error is reported, never just the first).
type DomainErrorList struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Errors  []regerr.Error `json:"errors"`
}

// RespondDomainErrors writes an ordered list of domain errors as a single
// 400 response — used by the contract-call validator, which never fails on
// the first error.
func RespondDomainErrors(w http.ResponseWriter, errs regerr.List) {
	flat := make([]regerr.Error, len(errs))
	for i, e := range errs {
		flat[i] = *e
	}
	Respond(w, http.StatusBadRequest, DomainErrorList{
		Error:   "validation_failed",
		Message: "one or more call arguments failed validation",
		Errors:  flat,
	})
}
