package auditchecklist

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/contractforge/registry/internal/audit"
	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/pkg/regerr"
)

// Notifier is the subset of pkg/notify that the checklist engine fans score
// drops out through. Declared here rather than importing pkg/notify to
// avoid a dependency cycle (pkg/notify reads this package's Badge type).
type Notifier interface {
	AuditScoreDropped(ctx context.Context, contractID string, score float64, badge Badge) error
}

// Handler provides HTTP handlers for the audit checklist API.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	auditLog *audit.Writer
	notifier Notifier
}

// NewHandler creates an auditchecklist Handler. notifier may be nil to
// disable Slack fan-out when a run's badge falls to poor or critical.
func NewHandler(service *Service, logger *slog.Logger, auditLog *audit.Writer, notifier Notifier) *Handler {
	return &Handler{service: service, logger: logger, auditLog: auditLog, notifier: notifier}
}

// Routes returns a chi.Router with all audit checklist routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/catalog", h.handleCatalog)
	r.Post("/{contractID}/run", h.handleRun)
	r.Get("/{contractID}", h.handleLatest)
	r.Get("/{contractID}/history", h.handleHistory)
	r.Get("/{contractID}/report", h.handleReport)
	return r
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	httpserver.Respond(w, http.StatusOK, h.service.Catalog())
}

type runRequest struct {
	Source string                 `json:"source"`
	Manual map[string]CheckResult `json:"manual"`
}

func (h *Handler) handleRun(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")

	var req runRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Run(r.Context(), RunRequest{
		ContractID: contractID,
		Source:     req.Source,
		Manual:     req.Manual,
	})
	if err != nil {
		h.respondErr(w, err, "running audit checklist")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "run", "checklist_audit", contractID, nil)
	}
	if h.notifier != nil && (result.Badge == BadgePoor || result.Badge == BadgeCritical) {
		if err := h.notifier.AuditScoreDropped(r.Context(), contractID, result.OverallScore, result.Badge); err != nil {
			h.logger.Warn("notifying audit score drop", "error", err, "contract_id", contractID)
		}
	}
	httpserver.Respond(w, http.StatusCreated, result)
}

func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")
	result, err := h.service.Latest(r.Context(), contractID)
	if err != nil {
		h.respondErr(w, err, "getting latest audit")
		return
	}
	if result == nil {
		httpserver.RespondError(w, http.StatusNotFound, "audit_not_found", "no audit has been run for this contract")
		return
	}
	httpserver.Respond(w, http.StatusOK, result)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	entries, err := h.service.History(r.Context(), contractID, limit)
	if err != nil {
		h.respondErr(w, err, "listing audit history")
		return
	}
	httpserver.Respond(w, http.StatusOK, entries)
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")

	audit, err := h.service.Latest(r.Context(), contractID)
	if err != nil {
		h.respondErr(w, err, "getting audit for report")
		return
	}
	if audit == nil {
		httpserver.RespondError(w, http.StatusNotFound, "audit_not_found", "no audit has been run for this contract")
		return
	}

	q := r.URL.Query()
	opts := ReportOptions{
		FailuresOnly:        q.Get("failures_only") == "true",
		IncludeDescriptions: q.Get("include_descriptions") == "true",
	}

	report := ExportMarkdown(*audit, h.service.Catalog(), opts)
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(report))
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
