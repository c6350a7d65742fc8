package audit

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contractforge/registry/internal/httpserver"
)

// LogEntryRow is the JSON shape returned by the list endpoint.
type LogEntryRow struct {
	ID           string    `json:"id"`
	ActorAddress string    `json:"actor_address"`
	Action       string    `json:"action"`
	Resource     string    `json:"resource"`
	ResourceID   string    `json:"resource_id"`
	Detail       any       `json:"detail,omitempty"`
	IPAddress    string    `json:"ip_address,omitempty"`
	UserAgent    string    `json:"user_agent,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Handler provides HTTP handlers for the request audit trail API.
type Handler struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewHandler creates an audit log Handler.
func NewHandler(pool *pgxpool.Pool, logger *slog.Logger) *Handler {
	return &Handler{pool: pool, logger: logger}
}

// Routes returns a chi.Router with audit log routes mounted.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.handleList)
	return r
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	params, err := httpserver.ParseOffsetParams(r)
	if err != nil {
		httpserver.RespondError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	resource := r.URL.Query().Get("resource")

	entries, total, err := h.list(r.Context(), resource, params)
	if err != nil {
		h.logger.Error("listing audit log", "error", err)
		httpserver.RespondError(w, http.StatusInternalServerError, "internal_error", "failed to list audit log")
		return
	}

	httpserver.Respond(w, http.StatusOK, httpserver.NewOffsetPage(entries, params, total))
}

func (h *Handler) list(ctx context.Context, resource string, params httpserver.OffsetParams) ([]LogEntryRow, int, error) {
	var total int
	countQuery := `SELECT count(*) FROM request_audit_log WHERE ($1 = '' OR resource = $1)`
	if err := h.pool.QueryRow(ctx, countQuery, resource).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := h.pool.Query(ctx, `
		SELECT id, actor_address, action, resource, resource_id, detail, ip_address, user_agent, created_at
		FROM request_audit_log
		WHERE ($1 = '' OR resource = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`,
		resource, params.PageSize, params.Offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []LogEntryRow
	for rows.Next() {
		var e LogEntryRow
		var ip, ua *string
		var detail []byte
		if err := rows.Scan(&e.ID, &e.ActorAddress, &e.Action, &e.Resource, &e.ResourceID, &detail, &ip, &ua, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		if ip != nil {
			e.IPAddress = *ip
		}
		if ua != nil {
			e.UserAgent = *ua
		}
		if len(detail) > 0 {
			e.Detail = string(detail)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
