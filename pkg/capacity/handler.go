package capacity

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contractforge/registry/internal/audit"
	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/pkg/regerr"
)

// Notifier is the subset of pkg/notify that capacity planning fans alerts
// out through. Declared here so capacity never imports pkg/notify directly
// (pkg/notify imports capacity.Alert for its own payload).
type Notifier interface {
	CapacityAlert(ctx context.Context, contractID string, alert Alert) error
}

// Handler provides HTTP handlers for the capacity planning API.
type Handler struct {
	service  *Service
	store    *Store
	logger   *slog.Logger
	auditLog *audit.Writer
	notifier Notifier
}

// NewHandler creates a capacity Handler. notifier may be nil to disable
// Slack fan-out on Critical/Breached alerts.
func NewHandler(service *Service, store *Store, logger *slog.Logger, auditLog *audit.Writer, notifier Notifier) *Handler {
	return &Handler{service: service, store: store, logger: logger, auditLog: auditLog, notifier: notifier}
}

// Routes returns a chi.Router with all capacity routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/snapshots", h.handleRecordSnapshot)
	r.Get("/{contractID}/plan", h.handlePlan)
	r.Get("/{contractID}/alerts", h.handleAlertHistory)
	r.Post("/alerts/{id}/acknowledge", h.handleAcknowledge)
	return r
}

type recordSnapshotRequest struct {
	ContractID string  `json:"contract_id" validate:"required"`
	Resource   string  `json:"resource" validate:"required"`
	Current    float64 `json:"current" validate:"min=0"`
	Limit      float64 `json:"limit" validate:"min=0"`
}

func (h *Handler) handleRecordSnapshot(w http.ResponseWriter, r *http.Request) {
	var req recordSnapshotRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	snap := Snapshot{
		Resource:  Resource(req.Resource),
		Current:   req.Current,
		Limit:     req.Limit,
		Timestamp: time.Now().UTC(),
	}
	if err := h.store.RecordSnapshot(r.Context(), req.ContractID, snap); err != nil {
		h.respondErr(w, err, "recording resource snapshot")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "record_snapshot", "resource_snapshot", uuid.Nil.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, snap)
}

func (h *Handler) handlePlan(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")
	report, err := h.service.Plan(r.Context(), contractID)
	if err != nil {
		h.respondErr(w, err, "planning capacity")
		return
	}

	if h.notifier != nil {
		for _, alert := range report.Alerts {
			if alert.Severity == SeverityCritical || alert.Severity == SeverityBreached {
				if err := h.notifier.CapacityAlert(r.Context(), contractID, alert); err != nil {
					h.logger.Warn("notifying capacity alert", "error", err, "contract_id", contractID)
				}
			}
		}
	}
	httpserver.Respond(w, http.StatusOK, report)
}

func (h *Handler) handleAlertHistory(w http.ResponseWriter, r *http.Request) {
	contractID := chi.URLParam(r, "contractID")
	params, err := httpserver.ParseOffsetParams(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	alerts, err := h.store.AlertHistory(r.Context(), contractID, params.PageSize)
	if err != nil {
		h.respondErr(w, err, "listing capacity alert history")
		return
	}
	httpserver.Respond(w, http.StatusOK, alerts)
}

func (h *Handler) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid alert id")
		return
	}

	if err := h.store.Acknowledge(r.Context(), id); err != nil {
		h.respondErr(w, err, "acknowledging capacity alert")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "acknowledge", "capacity_alert", id.String(), nil)
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
