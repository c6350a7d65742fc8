package transparency

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contractforge/registry/internal/httpserver"
)

// Handler provides HTTP handlers for the transparency log API.
type Handler struct {
	log    *Log
	logger *slog.Logger
}

// NewHandler creates a transparency Handler.
func NewHandler(log *Log, logger *slog.Logger) *Handler {
	return &Handler{log: log, logger: logger}
}

// Routes returns a chi.Router with all transparency routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/tail", h.handleTail)
	r.Get("/contracts/{contractID}", h.handleByContract)
	r.Get("/contracts/{contractID}/verify", h.handleVerify)
	return r
}

func (h *Handler) handleTail(w http.ResponseWriter, r *http.Request) {
	n := 50
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "n must be a positive integer")
			return
		}
		n = parsed
	}

	entries, err := h.log.Tail(r.Context(), n)
	if err != nil {
		h.logger.Error("tailing transparency log", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to read transparency log")
		return
	}
	httpserver.Respond(w, http.StatusOK, entries)
}

func (h *Handler) handleByContract(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")
	entries, err := h.log.ByContract(r.Context(), contractID)
	if err != nil {
		h.logger.Error("reading transparency log", "error", err, "contract_id", contractID)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to read transparency log")
		return
	}
	httpserver.Respond(w, http.StatusOK, entries)
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")
	entries, err := h.log.ByContract(r.Context(), contractID)
	if err != nil {
		h.logger.Error("reading transparency log", "error", err, "contract_id", contractID)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to read transparency log")
		return
	}
	httpserver.Respond(w, http.StatusOK, map[string]any{
		"contract_id": contractID,
		"entry_count": len(entries),
		"chain_valid": VerifyChain(entries),
	})
}
