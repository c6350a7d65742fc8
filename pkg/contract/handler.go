package contract

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contractforge/registry/internal/audit"
	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/pkg/cache"
	"github.com/contractforge/registry/pkg/regerr"
	"github.com/contractforge/registry/pkg/soroban"
	"github.com/contractforge/registry/pkg/validator"
)

// Handler provides HTTP handlers for the contracts API, including the
// nested ABI publish/diff/export routes.
type Handler struct {
	store    *Store
	abiStore *soroban.Store
	logger   *slog.Logger
	auditLog *audit.Writer
	cache    *cache.Cache
}

// NewHandler creates a contract Handler. cache fronts the immutable
// by-version ABI/OpenAPI read paths (spec §4.7); pass a disabled cache
// (cache.New(false, ...)) to run fully uncached.
func NewHandler(store *Store, abiStore *soroban.Store, logger *slog.Logger, auditLog *audit.Writer, c *cache.Cache) *Handler {
	return &Handler{store: store, abiStore: abiStore, logger: logger, auditLog: auditLog, cache: c}
}

// Routes returns a chi.Router with all contract routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.handleGet)
		r.Post("/abi", h.handlePublishABI)
		r.Get("/abi", h.handleLatestABI)
		r.Get("/abi/history", h.handleABIHistory)
		r.Get("/abi/{version}", h.handleABIByVersion)
		r.Get("/abi/{version}/openapi", h.handleOpenAPI)
		r.Get("/abi/diff", h.handleDiff)
		r.Post("/abi/{version}/validate-call", h.handleValidateCall)
	})
	return r
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	c, err := h.store.Create(r.Context(), req.Name)
	if err != nil {
		h.respondErr(w, err, "creating contract")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "create", "contract", c.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, c)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	params, err := httpserver.ParseOffsetParams(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	items, err := h.store.List(r.Context(), params.PageSize, params.Offset)
	if err != nil {
		h.respondErr(w, err, "listing contracts")
		return
	}
	httpserver.Respond(w, http.StatusOK, httpserver.NewOffsetPage(items, params, len(items)))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid contract id")
		return
	}
	c, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, "getting contract")
		return
	}
	httpserver.Respond(w, http.StatusOK, c)
}

// publishABIRequest is the JSON body for POST /contracts/{id}/abi.
type publishABIRequest struct {
	Version   string                    `json:"version" validate:"required"`
	Name      string                    `json:"name" validate:"required"`
	Functions []soroban.Function        `json:"functions"`
	Types     map[string]soroban.Type   `json:"types"`
	Errors    []soroban.ErrorVariant    `json:"errors"`
}

func (h *Handler) handlePublishABI(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "id")

	var req publishABIRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	abi, err := soroban.New(contractID, req.Name, req.Version, req.Functions, req.Types, req.Errors)
	if err != nil {
		h.respondErr(w, err, "validating abi")
		return
	}

	if prior, err := h.abiStore.Latest(r.Context(), contractID); err == nil {
		changes := soroban.Diff(prior.ABI, abi)
		if guardErr := soroban.CheckPublishGuard(prior.Version, req.Version, changes); guardErr != nil {
			h.respondErr(w, guardErr, "checking publish guard")
			return
		}
	}

	snap, err := h.abiStore.Publish(r.Context(), contractID, req.Version, abi)
	if err != nil {
		h.respondErr(w, err, "publishing abi")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "publish_abi", "contract", snap.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, snap)
}

func (h *Handler) handleLatestABI(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "id")

	// The latest ABI is mutable (a new publish invalidates it), so it is
	// deliberately left uncached - only pinned by-version lookups below
	// are safe to serve from the cache-aside layer.
	start := time.Now()
	snap, err := h.abiStore.Latest(r.Context(), contractID)
	if h.cache != nil {
		h.cache.RecordUncached(time.Since(start))
	}
	if err != nil {
		h.respondErr(w, err, "getting latest abi")
		return
	}
	httpserver.Respond(w, http.StatusOK, snap)
}

func (h *Handler) handleABIHistory(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "id")
	snaps, err := h.abiStore.History(r.Context(), contractID)
	if err != nil {
		h.respondErr(w, err, "listing abi history")
		return
	}
	httpserver.Respond(w, http.StatusOK, snaps)
}

func (h *Handler) handleABIByVersion(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "id")
	version := chi.URLParam(r, "version")
	snap, err := h.abiByVersionCached(r.Context(), contractID, version)
	if err != nil {
		h.respondErr(w, err, "getting abi by version")
		return
	}
	httpserver.Respond(w, http.StatusOK, snap)
}

func (h *Handler) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "id")
	version := chi.URLParam(r, "version")
	snap, err := h.abiByVersionCached(r.Context(), contractID, version)
	if err != nil {
		h.respondErr(w, err, "getting abi for openapi export")
		return
	}
	httpserver.Respond(w, http.StatusOK, snap.ABI.ToOpenAPI())
}

// abiByVersionCached looks up a pinned ABI snapshot through the content
// cache. A published version/ABI pair never changes, so it is safe to
// cache indefinitely relative to the configured TTL.
func (h *Handler) abiByVersionCached(ctx context.Context, contractID, version string) (soroban.ABISnapshot, error) {
	key := cache.Key{ContractID: contractID, Inner: "abi:" + version}

	if h.cache != nil {
		if raw, hit := h.cache.Get(key); hit {
			var snap soroban.ABISnapshot
			if err := json.Unmarshal([]byte(raw), &snap); err == nil {
				return snap, nil
			}
		}
	}

	start := time.Now()
	snap, err := h.abiStore.ByVersion(ctx, contractID, version)
	if h.cache != nil {
		h.cache.RecordUncached(time.Since(start))
	}
	if err != nil {
		return soroban.ABISnapshot{}, err
	}

	if h.cache != nil {
		if raw, err := json.Marshal(snap); err == nil {
			h.cache.Put(key, string(raw), 0)
		}
	}
	return snap, nil
}

func (h *Handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "id")
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "from and to query params are required")
		return
	}

	oldSnap, err := h.abiStore.ByVersion(r.Context(), contractID, from)
	if err != nil {
		h.respondErr(w, err, "getting from-version abi")
		return
	}
	newSnap, err := h.abiStore.ByVersion(r.Context(), contractID, to)
	if err != nil {
		h.respondErr(w, err, "getting to-version abi")
		return
	}

	changes := soroban.Diff(oldSnap.ABI, newSnap.ABI)
	httpserver.Respond(w, http.StatusOK, map[string]any{
		"from":     from,
		"to":       to,
		"breaking": soroban.HasBreaking(changes),
		"changes":  changes,
	})
}

// validateCallRequest is the JSON body for POST
// /contracts/{id}/abi/{version}/validate-call.
type validateCallRequest struct {
	Method string   `json:"method" validate:"required"`
	Args   []string `json:"args"`
	Strict bool     `json:"strict"`
}

func (h *Handler) handleValidateCall(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "id")
	version := chi.URLParam(r, "version")

	var req validateCallRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	snap, err := h.abiStore.ByVersion(r.Context(), contractID, version)
	if err != nil {
		h.respondErr(w, err, "getting abi for call validation")
		return
	}

	result := validator.Validate(snap.ABI, req.Method, req.Args, req.Strict)
	httpserver.Respond(w, http.StatusOK, result)
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
