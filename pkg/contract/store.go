package contract

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/contractforge/registry/internal/platform"
	"github.com/contractforge/registry/pkg/regerr"
)

// Store provides database operations for contracts.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates a contract Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

func scanContract(row pgx.Row) (Contract, error) {
	var c Contract
	err := row.Scan(&c.ID, &c.Name, &c.CreatedAt)
	return c, err
}

// Create inserts a new contract. Fails with ALREADY_EXISTS if name is taken.
func (s *Store) Create(ctx context.Context, name string) (Contract, error) {
	row := s.dbtx.QueryRow(ctx, `
		INSERT INTO contracts (id, name, created_at) VALUES ($1,$2,now())
		RETURNING id, name, created_at`,
		uuid.New(), name,
	)
	c, err := scanContract(row)
	if err != nil {
		if isUniqueViolation(err) {
			return Contract{}, regerr.WithField(regerr.KindAlreadyExists, "contract name already registered", "name")
		}
		return Contract{}, err
	}
	return c, nil
}

// Get returns a contract by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Contract, error) {
	row := s.dbtx.QueryRow(ctx, `SELECT id, name, created_at FROM contracts WHERE id = $1`, id)
	c, err := scanContract(row)
	if err == pgx.ErrNoRows {
		return Contract{}, regerr.WithField(regerr.KindContractNotFound, "contract not found: "+id.String(), "id")
	}
	return c, err
}

// ByName returns a contract by name.
func (s *Store) ByName(ctx context.Context, name string) (Contract, error) {
	row := s.dbtx.QueryRow(ctx, `SELECT id, name, created_at FROM contracts WHERE name = $1`, name)
	c, err := scanContract(row)
	if err == pgx.ErrNoRows {
		return Contract{}, regerr.WithField(regerr.KindContractNotFound, "contract not found: "+name, "name")
	}
	return c, err
}

// List returns contracts ordered by creation time, most recent first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Contract, error) {
	rows, err := s.dbtx.Query(ctx, `
		SELECT id, name, created_at FROM contracts
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contracts []Contract
	for rows.Next() {
		c, err := scanContract(rows)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, c)
	}
	return contracts, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
