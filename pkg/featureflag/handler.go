package featureflag

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contractforge/registry/internal/audit"
	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/pkg/regerr"
)

// Handler provides HTTP handlers for the feature-flag API.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	auditLog *audit.Writer
}

// NewHandler creates a featureflag Handler.
func NewHandler(service *Service, logger *slog.Logger, auditLog *audit.Writer) *Handler {
	return &Handler{service: service, logger: logger, auditLog: auditLog}
}

// Routes returns a chi.Router with all feature-flag routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/activate", h.handleActivate)
		r.Post("/deactivate", h.handleDeactivate)
		r.Post("/sunset", h.handleSunset)
		r.Patch("/rollout", h.handleUpdateRollout)
	})
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	flag, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondErr(w, err, "creating feature flag")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "create", "feature_flag", flag.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, flag)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	contractID, err := uuid.Parse(r.URL.Query().Get("contract_id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "contract_id query param is required")
		return
	}
	flags, err := h.service.ListByContract(r.Context(), contractID)
	if err != nil {
		h.respondErr(w, err, "listing feature flags")
		return
	}
	httpserver.Respond(w, http.StatusOK, flags)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid feature flag id")
		return
	}
	flag, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, "getting feature flag")
		return
	}
	httpserver.Respond(w, http.StatusOK, flag)
}

func (h *Handler) handleActivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid feature flag id")
		return
	}
	flag, err := h.service.Activate(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, "activating feature flag")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "activate", "feature_flag", flag.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusOK, flag)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid feature flag id")
		return
	}
	flag, err := h.service.Deactivate(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, "deactivating feature flag")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "deactivate", "feature_flag", flag.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusOK, flag)
}

func (h *Handler) handleSunset(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid feature flag id")
		return
	}
	flag, err := h.service.Sunset(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, "sunsetting feature flag")
		return
	}
	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "sunset", "feature_flag", flag.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusOK, flag)
}

func (h *Handler) handleUpdateRollout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid feature flag id")
		return
	}

	var req UpdateRolloutRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	flag, err := h.service.UpdateRollout(r.Context(), id, req)
	if err != nil {
		h.respondErr(w, err, "updating feature flag rollout")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "update_rollout", "feature_flag", flag.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusOK, flag)
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
