package regression

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/contractforge/registry/internal/platform"
	"github.com/contractforge/registry/pkg/regerr"
)

// Store provides database operations for baselines and test runs.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates a regression Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

const baselineColumns = `id, contract_id, version, suite, function, iterations, avg_micros, min_micros,
	max_micros, p95_micros, p99_micros, stddev_micros, output_hash, active, created_at`

func scanBaseline(row pgx.Row) (Baseline, error) {
	var b Baseline
	err := row.Scan(&b.ID, &b.ContractID, &b.Version, &b.Suite, &b.Function, &b.Iterations,
		&b.AvgMicros, &b.MinMicros, &b.MaxMicros, &b.P95Micros, &b.P99Micros, &b.StddevMicros,
		&b.OutputHash, &b.Active, &b.CreatedAt)
	return b, err
}

// ReplaceActiveBaseline deactivates any prior active baseline for the tuple
// and inserts the new one as active, atomically within a transaction.
func (s *Store) ReplaceActiveBaseline(ctx context.Context, b Baseline) (Baseline, error) {
	tx, ok := s.dbtx.(interface {
		Begin(ctx context.Context) (pgx.Tx, error)
	})
	if !ok {
		return Baseline{}, replaceActiveBaselineFlat(ctx, s.dbtx, b)
	}

	txn, err := tx.Begin(ctx)
	if err != nil {
		return Baseline{}, err
	}
	defer txn.Rollback(ctx)

	if _, err := txn.Exec(ctx, `
		UPDATE test_baselines SET active = false
		WHERE contract_id = $1 AND version = $2 AND suite = $3 AND function = $4 AND active`,
		b.ContractID, b.Version, b.Suite, b.Function,
	); err != nil {
		return Baseline{}, err
	}

	row := txn.QueryRow(ctx, `
		INSERT INTO test_baselines (
			id, contract_id, version, suite, function, iterations, avg_micros, min_micros,
			max_micros, p95_micros, p99_micros, stddev_micros, output_hash, active, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,true,now())
		RETURNING `+baselineColumns,
		uuid.New(), b.ContractID, b.Version, b.Suite, b.Function, b.Iterations, b.AvgMicros,
		b.MinMicros, b.MaxMicros, b.P95Micros, b.P99Micros, b.StddevMicros, b.OutputHash,
	)
	result, err := scanBaseline(row)
	if err != nil {
		return Baseline{}, err
	}

	if err := txn.Commit(ctx); err != nil {
		return Baseline{}, err
	}
	return result, nil
}

func replaceActiveBaselineFlat(ctx context.Context, dbtx platform.DBTX, b Baseline) error {
	if _, err := dbtx.Exec(ctx, `
		UPDATE test_baselines SET active = false
		WHERE contract_id = $1 AND version = $2 AND suite = $3 AND function = $4 AND active`,
		b.ContractID, b.Version, b.Suite, b.Function,
	); err != nil {
		return err
	}
	_, err := dbtx.Exec(ctx, `
		INSERT INTO test_baselines (
			id, contract_id, version, suite, function, iterations, avg_micros, min_micros,
			max_micros, p95_micros, p99_micros, stddev_micros, output_hash, active, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,true,now())`,
		uuid.New(), b.ContractID, b.Version, b.Suite, b.Function, b.Iterations, b.AvgMicros,
		b.MinMicros, b.MaxMicros, b.P95Micros, b.P99Micros, b.StddevMicros, b.OutputHash,
	)
	return err
}

// ActiveBaseline returns the active baseline for a tuple, or nil and a
// not-found regerr.Error if none.
func (s *Store) ActiveBaseline(ctx context.Context, contractID, version, suite, function string) (*Baseline, error) {
	row := s.dbtx.QueryRow(ctx, `
		SELECT `+baselineColumns+` FROM test_baselines
		WHERE contract_id = $1 AND version = $2 AND suite = $3 AND function = $4 AND active`,
		contractID, version, suite, function,
	)
	b, err := scanBaseline(row)
	if err == pgx.ErrNoRows {
		return nil, regerr.New(regerr.KindAuditNotFound, "no active baseline")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetBaseline returns a baseline by id.
func (s *Store) GetBaseline(ctx context.Context, id uuid.UUID) (Baseline, error) {
	row := s.dbtx.QueryRow(ctx, `SELECT `+baselineColumns+` FROM test_baselines WHERE id = $1`, id)
	return scanBaseline(row)
}

func isNotFound(err error) bool {
	var rerr *regerr.Error
	return err != nil && asRegerr(err, &rerr)
}

func asRegerr(err error, target **regerr.Error) bool {
	if e, ok := err.(*regerr.Error); ok {
		*target = e
		return true
	}
	return false
}

const runColumns = `id, baseline_id, contract_id, version, suite, function, avg_micros, output_hash,
	degradation_pct, severity, regression_detected, status, created_at`

func scanRun(row pgx.Row) (Run, error) {
	var (
		r          Run
		baselineID pgtype.UUID
	)
	err := row.Scan(&r.ID, &baselineID, &r.ContractID, &r.Version, &r.Suite, &r.Function,
		&r.AvgMicros, &r.OutputHash, &r.DegradationPct, &r.Severity, &r.RegressionDetected,
		&r.Status, &r.CreatedAt)
	if err != nil {
		return Run{}, err
	}
	if baselineID.Valid {
		id := uuid.UUID(baselineID.Bytes)
		r.BaselineID = &id
	}
	return r, nil
}

// CreateRun inserts a new test run result.
func (s *Store) CreateRun(ctx context.Context, r Run) (Run, error) {
	var baselineID pgtype.UUID
	if r.BaselineID != nil {
		baselineID = pgtype.UUID{Bytes: *r.BaselineID, Valid: true}
	}
	row := s.dbtx.QueryRow(ctx, `
		INSERT INTO test_runs (
			id, baseline_id, contract_id, version, suite, function, avg_micros, output_hash,
			degradation_pct, severity, regression_detected, status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
		RETURNING `+runColumns,
		uuid.New(), baselineID, r.ContractID, r.Version, r.Suite, r.Function, r.AvgMicros,
		r.OutputHash, r.DegradationPct, r.Severity, r.RegressionDetected, r.Status,
	)
	return scanRun(row)
}

// RunHistory returns the most recent runs for a tuple, most recent first.
func (s *Store) RunHistory(ctx context.Context, contractID, version, suite, function string, limit int) ([]Run, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT `+runColumns+` FROM test_runs
		WHERE contract_id = $1 AND version = $2 AND suite = $3 AND function = $4
		ORDER BY created_at DESC LIMIT $5`,
		contractID, version, suite, function, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
