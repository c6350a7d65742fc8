package apikey

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contractforge/registry/internal/audit"
	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/internal/identity"
)

// Handler provides HTTP handlers for the API key admin surface.
type Handler struct {
	logger   *slog.Logger
	auditLog *audit.Writer
	service  *Service
}

// NewHandler creates an API key Handler backed by the given pool.
func NewHandler(logger *slog.Logger, auditLog *audit.Writer, pool *pgxpool.Pool) *Handler {
	return &Handler{logger: logger, auditLog: auditLog, service: NewService(pool, logger)}
}

// Routes returns a chi.Router with the API key admin routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(identity.RequireAuth)
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Delete("/{id}", h.handleDelete)
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("creating api key", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to create api key")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "create", "api_key", resp.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, resp)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	if address == "" {
		address = identity.AddressFromContext(r.Context())
	}

	items, err := h.service.List(r.Context(), address)
	if err != nil {
		h.logger.Error("listing api keys", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list api keys")
		return
	}

	httpserver.Respond(w, http.StatusOK, map[string]any{
		"keys":  items,
		"count": len(items),
	})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	keyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid api key id")
		return
	}

	if err := h.service.Delete(r.Context(), keyID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			httpserver.RespondError(w, http.StatusNotFound, "not_found", "api key not found")
			return
		}
		h.logger.Error("deleting api key", "error", err, "id", keyID)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to delete api key")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "delete", "api_key", keyID.String(), nil)
	}
	httpserver.Respond(w, http.StatusNoContent, nil)
}
