package capacity

import (
	"context"

	"github.com/google/uuid"

	"github.com/contractforge/registry/internal/platform"
)

// Store provides database operations for resource snapshots and alerts.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates a capacity Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

// RecordSnapshot inserts a new point-in-time resource reading.
func (s *Store) RecordSnapshot(ctx context.Context, contractID string, snap Snapshot) error {
	_, err := s.dbtx.Exec(ctx, `
		INSERT INTO resource_snapshots (id, contract_id, resource, current_value, resource_limit, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		uuid.New(), contractID, snap.Resource, snap.Current, snap.Limit, snap.Timestamp,
	)
	return err
}

// LatestSnapshots returns the most recent snapshot per resource for a contract.
func (s *Store) LatestSnapshots(ctx context.Context, contractID string) ([]Snapshot, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT DISTINCT ON (resource) resource, current_value, resource_limit, created_at
		FROM resource_snapshots
		WHERE contract_id = $1
		ORDER BY resource, created_at DESC`,
		contractID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.Resource, &snap.Current, &snap.Limit, &snap.Timestamp); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

// RecordAlert persists a generated alert for audit/history purposes.
func (s *Store) RecordAlert(ctx context.Context, contractID string, alert Alert) error {
	_, err := s.dbtx.Exec(ctx, `
		INSERT INTO capacity_alerts (id, contract_id, resource, severity, pct_consumed, days_until_breach, acknowledged, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,false,now())`,
		uuid.New(), contractID, alert.Resource, alert.Severity, alert.PctConsumed, alert.DaysUntilBreach,
	)
	return err
}

// Acknowledge marks an alert as acknowledged.
func (s *Store) Acknowledge(ctx context.Context, id uuid.UUID) error {
	_, err := s.dbtx.Exec(ctx, `UPDATE capacity_alerts SET acknowledged = true WHERE id = $1`, id)
	return err
}

// AlertHistory returns recent alerts for a contract, most recent first.
func (s *Store) AlertHistory(ctx context.Context, contractID string, limit int) ([]Alert, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT resource, severity, pct_consumed, days_until_breach, acknowledged
		FROM capacity_alerts WHERE contract_id = $1
		ORDER BY created_at DESC LIMIT $2`,
		contractID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.Resource, &a.Severity, &a.PctConsumed, &a.DaysUntilBreach, &a.Acknowledged); err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}
