package featureflag

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/contractforge/registry/internal/platform"
	"github.com/contractforge/registry/pkg/regerr"
)

// Store provides database operations for feature flags.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates a featureflag Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

const flagColumns = `id, contract_id, name, state, rollout, pct, sunset_at, created_at, updated_at`

func scanFlag(row pgx.Row) (FeatureFlag, error) {
	var (
		f        FeatureFlag
		sunsetAt pgtype.Timestamptz
	)
	err := row.Scan(&f.ID, &f.ContractID, &f.Name, &f.State, &f.Rollout, &f.Pct, &sunsetAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return FeatureFlag{}, err
	}
	if sunsetAt.Valid {
		t := sunsetAt.Time
		f.SunsetAt = &t
	}
	return f, nil
}

// Create inserts a new inactive feature flag.
func (s *Store) Create(ctx context.Context, f FeatureFlag) (FeatureFlag, error) {
	row := s.dbtx.QueryRow(ctx, `
		INSERT INTO feature_flags (id, contract_id, name, state, rollout, pct, sunset_at, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		RETURNING `+flagColumns,
		uuid.New(), f.ContractID, f.Name, f.State, f.Rollout, f.Pct, f.SunsetAt,
	)
	flag, err := scanFlag(row)
	if err != nil {
		if isUniqueViolation(err) {
			return FeatureFlag{}, regerr.WithField(regerr.KindAlreadyExists, "a feature flag with this name already exists for the contract", "name")
		}
		return FeatureFlag{}, err
	}
	return flag, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Get returns a feature flag by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (FeatureFlag, error) {
	row := s.dbtx.QueryRow(ctx, `SELECT `+flagColumns+` FROM feature_flags WHERE id = $1`, id)
	f, err := scanFlag(row)
	if err == pgx.ErrNoRows {
		return FeatureFlag{}, regerr.WithField(regerr.KindInvalidRequest, "feature flag not found", "id")
	}
	return f, err
}

// ByName returns a feature flag by (contract_id, name).
func (s *Store) ByName(ctx context.Context, contractID uuid.UUID, name string) (FeatureFlag, error) {
	row := s.dbtx.QueryRow(ctx, `
		SELECT `+flagColumns+` FROM feature_flags WHERE contract_id = $1 AND name = $2`,
		contractID, name,
	)
	f, err := scanFlag(row)
	if err == pgx.ErrNoRows {
		return FeatureFlag{}, regerr.WithField(regerr.KindInvalidRequest, "feature flag not found", "name")
	}
	return f, err
}

// ListByContract returns every flag belonging to a contract.
func (s *Store) ListByContract(ctx context.Context, contractID uuid.UUID) ([]FeatureFlag, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT `+flagColumns+` FROM feature_flags WHERE contract_id = $1 ORDER BY created_at DESC`,
		contractID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var flags []FeatureFlag
	for rows.Next() {
		f, err := scanFlag(rows)
		if err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// TransitionState performs an atomic conditional state update guarded by
// (id, from_state), mirroring pkg/multisig's guarded proposal transitions.
func (s *Store) TransitionState(ctx context.Context, id uuid.UUID, from, to State) (FeatureFlag, error) {
	row := s.dbtx.QueryRow(ctx, `
		UPDATE feature_flags SET state = $3, updated_at = now()
		WHERE id = $1 AND state = $2
		RETURNING `+flagColumns,
		id, from, to,
	)
	f, err := scanFlag(row)
	if err == pgx.ErrNoRows {
		return FeatureFlag{}, pgx.ErrNoRows
	}
	return f, err
}

// SunsetNow performs an atomic sunset transition from any non-sunset state,
// recording the sunset time as now().
func (s *Store) SunsetNow(ctx context.Context, id uuid.UUID) (FeatureFlag, error) {
	row := s.dbtx.QueryRow(ctx, `
		UPDATE feature_flags SET state = $2, sunset_at = now(), updated_at = now()
		WHERE id = $1 AND state != $2
		RETURNING `+flagColumns,
		id, StateSunset,
	)
	f, err := scanFlag(row)
	if err == pgx.ErrNoRows {
		return FeatureFlag{}, pgx.ErrNoRows
	}
	return f, err
}

// UpdateRollout updates the rollout kind and percentage.
func (s *Store) UpdateRollout(ctx context.Context, id uuid.UUID, rollout Rollout, pct float64) (FeatureFlag, error) {
	row := s.dbtx.QueryRow(ctx, `
		UPDATE feature_flags SET rollout = $2, pct = $3, updated_at = now()
		WHERE id = $1
		RETURNING `+flagColumns,
		id, rollout, pct,
	)
	f, err := scanFlag(row)
	if err == pgx.ErrNoRows {
		return FeatureFlag{}, regerr.WithField(regerr.KindInvalidRequest, "feature flag not found", "id")
	}
	return f, err
}
