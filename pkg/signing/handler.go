package signing

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contractforge/registry/internal/audit"
	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/internal/identity"
	"github.com/contractforge/registry/pkg/regerr"
)

// Handler provides HTTP handlers for the package signing API.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	auditLog *audit.Writer
}

// NewHandler creates a signing Handler.
func NewHandler(service *Service, logger *slog.Logger, auditLog *audit.Writer) *Handler {
	return &Handler{service: service, logger: logger, auditLog: auditLog}
}

// Routes returns a chi.Router with all signing routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleSign)
	r.Post("/verify", h.handleVerify)
	r.Post("/{id}/revoke", h.handleRevoke)
	return r
}

// signRequest is the JSON body for POST /api/v1/signatures. PrivateKey is
// the base64-encoded 64-byte Ed25519 private key used for a server-side
// signing operation (e.g. a CI/CD pipeline holding a deploy key); there is
// no route for registering a signature produced elsewhere.
type signRequest struct {
	ContractID string  `json:"contract_id" validate:"required"`
	Version    string  `json:"version" validate:"required"`
	WasmHash   string  `json:"wasm_hash" validate:"required"`
	PublicKey  string  `json:"public_key" validate:"required"`
	PrivateKey string  `json:"private_key" validate:"required"`
	SignerAddr string  `json:"signer_address"`
	ExpiresIn  *int    `json:"expires_in_seconds"`
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	seed, err := base64.StdEncoding.DecodeString(req.PrivateKey)
	if err != nil || len(seed) != ed25519.PrivateKeySize {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "private_key must be a base64-encoded 64-byte ed25519 key")
		return
	}

	var expiresAt *time.Time
	if req.ExpiresIn != nil {
		t := time.Now().Add(time.Duration(*req.ExpiresIn) * time.Second)
		expiresAt = &t
	}

	sig, err := h.service.Sign(r.Context(), SignParams{
		ContractID: req.ContractID,
		Version:    req.Version,
		WasmHash:   req.WasmHash,
		PublicKey:  req.PublicKey,
		PrivateKey: ed25519.PrivateKey(seed),
		SignerAddr: req.SignerAddr,
		ExpiresAt:  expiresAt,
	})
	if err != nil {
		h.respondErr(w, err, "signing package")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "sign", "package_signature", sig.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, sig)
}

type verifyRequest struct {
	ContractID string `json:"contract_id" validate:"required"`
	WasmHash   string `json:"wasm_hash" validate:"required"`
	Version    string `json:"version"`
	Signature  string `json:"signature"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	sig, err := h.service.Verify(r.Context(), VerifyParams{
		ContractID: req.ContractID,
		WasmHash:   req.WasmHash,
		Version:    req.Version,
		Signature:  req.Signature,
	})
	if err != nil {
		h.respondErr(w, err, "verifying package")
		return
	}
	httpserver.Respond(w, http.StatusOK, sig)
}

type revokeRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid signature id")
		return
	}

	var req revokeRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	revokedBy := ""
	if actor := identity.FromContext(r.Context()); actor != nil {
		revokedBy = actor.Address
	}

	if err := h.service.Revoke(r.Context(), id, revokedBy, req.Reason); err != nil {
		h.respondErr(w, err, "revoking signature")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "revoke", "package_signature", id.String(), nil)
	}
	httpserver.Respond(w, http.StatusNoContent, nil)
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
