package auditchecklist

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/contractforge/registry/internal/platform"
)

// Store provides database operations for audit results.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates an auditchecklist Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

// SaveAudit persists a full audit run, replacing any prior results for the
// contract so the latest run is always what LoadAudit returns.
func (s *Store) SaveAudit(ctx context.Context, audit Audit) error {
	resultsJSON, err := json.Marshal(audit.Results)
	if err != nil {
		return err
	}
	categoryJSON, err := json.Marshal(audit.CategoryScores)
	if err != nil {
		return err
	}

	if _, err := s.dbtx.Exec(ctx, `DELETE FROM checklist_audits WHERE contract_id = $1`, audit.ContractID); err != nil {
		return err
	}
	_, err = s.dbtx.Exec(ctx, `
		INSERT INTO checklist_audits (id, contract_id, results, category_scores, overall_score, badge, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,now())`,
		uuid.New(), audit.ContractID, resultsJSON, categoryJSON, audit.OverallScore, audit.Badge,
	)
	return err
}

// LoadAudit returns the most recent audit for a contract, or nil if none exists.
func (s *Store) LoadAudit(ctx context.Context, contractID string) (*Audit, error) {
	row := s.dbtx.QueryRow(ctx, `
		SELECT contract_id, results, category_scores, overall_score, badge
		FROM checklist_audits WHERE contract_id = $1
		ORDER BY created_at DESC LIMIT 1`,
		contractID,
	)

	var (
		audit        Audit
		resultsJSON  []byte
		categoryJSON []byte
	)
	err := row.Scan(&audit.ContractID, &resultsJSON, &categoryJSON, &audit.OverallScore, &audit.Badge)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(resultsJSON, &audit.Results); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(categoryJSON, &audit.CategoryScores); err != nil {
		return nil, err
	}
	return &audit, nil
}

// History returns prior audits for a contract, most recent first, without
// their full result detail (score and badge only).
type HistoryEntry struct {
	OverallScore float64
	Badge        Badge
	CreatedAt    string
}

func (s *Store) History(ctx context.Context, contractID string, limit int) ([]HistoryEntry, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT overall_score, badge, created_at::text FROM checklist_audits
		WHERE contract_id = $1 ORDER BY created_at DESC LIMIT $2`,
		contractID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.OverallScore, &e.Badge, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
