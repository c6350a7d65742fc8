package multisig

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contractforge/registry/internal/audit"
	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/internal/identity"
	"github.com/contractforge/registry/pkg/regerr"
)

// Notifier is the subset of pkg/notify that multisig fans approvals out
// through. Declared here so this package does not import pkg/notify.
type Notifier interface {
	MultisigApproved(ctx context.Context, contractID, proposalID string) error
}

// Handler provides HTTP handlers for the multisig deployment API.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	auditLog *audit.Writer
	notifier Notifier
}

// NewHandler creates a multisig Handler. notifier may be nil to disable
// Slack fan-out on proposals reaching approved.
func NewHandler(service *Service, logger *slog.Logger, auditLog *audit.Writer, notifier Notifier) *Handler {
	return &Handler{service: service, logger: logger, auditLog: auditLog, notifier: notifier}
}

// Routes returns a chi.Router with all multisig routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/policies", h.handleCreatePolicy)
	r.Post("/proposals", h.handleSubmitProposal)
	r.Route("/proposals/{id}", func(r chi.Router) {
		r.Post("/signatures", h.handleAddSignature)
		r.Post("/execute", h.handleExecute)
	})
	return r
}

func (h *Handler) handleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	policy, err := h.service.CreatePolicy(r.Context(), req)
	if err != nil {
		h.respondErr(w, err, "creating multisig policy")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "create", "multisig_policy", policy.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, policy)
}

func (h *Handler) handleSubmitProposal(w http.ResponseWriter, r *http.Request) {
	var req SubmitProposalRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	proposer := ""
	if actor := identity.FromContext(r.Context()); actor != nil {
		proposer = actor.Address
	}

	proposal, err := h.service.SubmitProposal(r.Context(), proposer, req)
	if err != nil {
		h.respondErr(w, err, "submitting deploy proposal")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "submit", "deploy_proposal", proposal.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, proposal)
}

func (h *Handler) handleAddSignature(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid proposal id")
		return
	}

	var req AddSignatureRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	proposal, err := h.service.AddSignature(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, err, "adding proposal signature")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "sign", "deploy_proposal", proposal.ID.String(), nil)
	}
	if h.notifier != nil && proposal.Status == StatusApproved {
		if err := h.notifier.MultisigApproved(r.Context(), proposal.ContractID.String(), proposal.ID.String()); err != nil {
			h.logger.Warn("notifying multisig approval", "error", err, "proposal_id", proposal.ID)
		}
	}
	httpserver.Respond(w, http.StatusOK, proposal)
}

func (h *Handler) handleExecute(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid proposal id")
		return
	}

	executedBy := ""
	if actor := identity.FromContext(r.Context()); actor != nil {
		executedBy = actor.Address
	}

	proposal, err := h.service.Execute(r.Context(), id, executedBy)
	if err != nil {
		h.respondErr(w, err, "executing deploy proposal")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "execute", "deploy_proposal", proposal.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusOK, proposal)
}

func (h *Handler) respondErr(w http.ResponseWriter, err error, action string) {
	var derr *regerr.Error
	if errors.As(err, &derr) {
		httpserver.RespondDomainError(w, derr)
		return
	}
	h.logger.Error(action, "error", err)
	httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
}
