package regression

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/contractforge/registry/internal/audit"
	"github.com/contractforge/registry/internal/httpserver"
	"github.com/contractforge/registry/pkg/regerr"
)

// Handler provides HTTP handlers for the regression baseline/run API.
type Handler struct {
	service  *Service
	logger   *slog.Logger
	auditLog *audit.Writer
}

// NewHandler creates a regression Handler.
func NewHandler(service *Service, logger *slog.Logger, auditLog *audit.Writer) *Handler {
	return &Handler{service: service, logger: logger, auditLog: auditLog}
}

// Routes returns a chi.Router with all regression routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/baselines", h.handleEstablishBaseline)
	r.Get("/baselines/{id}", h.handleGetBaseline)
	r.Post("/runs", h.handleRecordRun)
	r.Get("/runs", h.handleHistory)
	return r
}

type establishBaselineRequest struct {
	ContractID string    `json:"contract_id" validate:"required"`
	Version    string    `json:"version" validate:"required"`
	Suite      string    `json:"suite" validate:"required"`
	Function   string    `json:"function" validate:"required"`
	Samples    []float64 `json:"samples_micros" validate:"required,min=1"`
	Output     any       `json:"output"`
}

func (h *Handler) handleEstablishBaseline(w http.ResponseWriter, r *http.Request) {
	var req establishBaselineRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	baseline, err := h.service.EstablishBaseline(r.Context(), EstablishBaselineRequest{
		ContractID: req.ContractID,
		Version:    req.Version,
		Suite:      req.Suite,
		Function:   req.Function,
		Samples:    req.Samples,
		Output:     req.Output,
	})
	if err != nil {
		h.respondErr(w, err, "establishing regression baseline")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "establish_baseline", "test_baseline", baseline.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, baseline)
}

func (h *Handler) handleGetBaseline(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "invalid baseline id")
		return
	}

	baseline, err := h.service.ByID(r.Context(), id)
	if err != nil {
		h.respondErr(w, err, "getting baseline")
		return
	}
	httpserver.Respond(w, http.StatusOK, baseline)
}

type recordRunRequest struct {
	ContractID string  `json:"contract_id" validate:"required"`
	Version    string  `json:"version" validate:"required"`
	Suite      string  `json:"suite" validate:"required"`
	Function   string  `json:"function" validate:"required"`
	AvgMicros  float64 `json:"avg_micros" validate:"required,min=0"`
	Output     any     `json:"output"`
}

func (h *Handler) handleRecordRun(w http.ResponseWriter, r *http.Request) {
	var req recordRunRequest
	if !httpserver.DecodeAndValidate(w, r, &req) {
		return
	}

	run, err := h.service.RecordRun(r.Context(), RecordRunRequest{
		ContractID: req.ContractID,
		Version:    req.Version,
		Suite:      req.Suite,
		Function:   req.Function,
		AvgMicros:  req.AvgMicros,
		Output:     req.Output,
	})
	if err != nil {
		h.respondErr(w, err, "recording test run")
		return
	}

	if h.auditLog != nil {
		h.auditLog.LogFromRequest(r, "record_run", "test_run", run.ID.String(), nil)
	}
	httpserver.Respond(w, http.StatusCreated, run)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contractID := q.Get("contract_id")
	version := q.Get("version")
	suite := q.Get("suite")
	function := q.Get("function")
	if contractID == "" || version == "" || suite == "" || function == "" {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request",
			"contract_id, version, suite, and function query params are required")
		return
	}

	limit := 20
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httpserver.RespondError(w, http.StatusBadRequest, "bad_request", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	runs, err := h.service.History(r.Context(), contractID, version, suite, function, limit)
	if err != nil {
		h.respondErr(w, err, "listing test run history")
		return
	}
	httpserver.Respond(w, http.StatusOK, runs)
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
