package soroban

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/contractforge/registry/internal/platform"
	"github.com/contractforge/registry/pkg/regerr"
)

// ABISnapshot is the persisted record of one ABI publish: the immutable ABI
// body plus its storage identity and publish timestamp.
type ABISnapshot struct {
	ID         uuid.UUID `json:"id"`
	ContractID string    `json:"contract_id"`
	Version    string    `json:"version"`
	ABI        *ABI      `json:"abi"`
	PublishedAt time.Time `json:"published_at"`
}

// Store provides database operations for ABI snapshots.
type Store struct {
	dbtx platform.DBTX
}

// NewStore creates an ABI Store backed by the given database connection.
func NewStore(dbtx platform.DBTX) *Store {
	return &Store{dbtx: dbtx}
}

const abiColumns = `id, contract_id, version, abi_json, published_at`

func scanSnapshot(row pgx.Row) (ABISnapshot, error) {
	var (
		s        ABISnapshot
		abiBytes []byte
	)
	if err := row.Scan(&s.ID, &s.ContractID, &s.Version, &abiBytes, &s.PublishedAt); err != nil {
		return ABISnapshot{}, err
	}
	var abi ABI
	if err := json.Unmarshal(abiBytes, &abi); err != nil {
		return ABISnapshot{}, fmt.Errorf("unmarshalling abi snapshot: %w", err)
	}
	s.ABI = &abi
	return s, nil
}

// Publish inserts a new immutable ABI snapshot for (contractID, version).
func (s *Store) Publish(ctx context.Context, contractID, version string, abi *ABI) (ABISnapshot, error) {
	abiBytes, err := json.Marshal(abi)
	if err != nil {
		return ABISnapshot{}, fmt.Errorf("marshalling abi: %w", err)
	}
	query := `INSERT INTO abi_snapshots (contract_id, version, abi_json, published_at)
	          VALUES ($1, $2, $3, now())
	          RETURNING ` + abiColumns
	row := s.dbtx.QueryRow(ctx, query, contractID, version, abiBytes)
	return scanSnapshot(row)
}

// Latest returns the most recently published ABI snapshot for a contract.
func (s *Store) Latest(ctx context.Context, contractID string) (ABISnapshot, error) {
	query := `SELECT ` + abiColumns + ` FROM abi_snapshots
	          WHERE contract_id = $1 ORDER BY published_at DESC LIMIT 1`
	row := s.dbtx.QueryRow(ctx, query, contractID)
	snap, err := scanSnapshot(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ABISnapshot{}, regerr.WithField(regerr.KindABINotFound,
				"no published ABI for contract", "contract_id")
		}
		return ABISnapshot{}, fmt.Errorf("loading latest abi snapshot: %w", err)
	}
	return snap, nil
}

// ByVersion returns the ABI snapshot for a specific (contractID, version).
func (s *Store) ByVersion(ctx context.Context, contractID, version string) (ABISnapshot, error) {
	query := `SELECT ` + abiColumns + ` FROM abi_snapshots
	          WHERE contract_id = $1 AND version = $2`
	row := s.dbtx.QueryRow(ctx, query, contractID, version)
	snap, err := scanSnapshot(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ABISnapshot{}, regerr.WithField(regerr.KindABINotFound,
				"no ABI published at this version", "version")
		}
		return ABISnapshot{}, fmt.Errorf("loading abi snapshot: %w", err)
	}
	return snap, nil
}

// History returns every published ABI snapshot for a contract, newest first.
func (s *Store) History(ctx context.Context, contractID string) ([]ABISnapshot, error) {
	query := `SELECT ` + abiColumns + ` FROM abi_snapshots
	          WHERE contract_id = $1 ORDER BY published_at DESC`
	rows, err := s.dbtx.Query(ctx, query, contractID)
	if err != nil {
		return nil, fmt.Errorf("listing abi snapshots: %w", err)
	}
	defer rows.Close()

	var out []ABISnapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning abi snapshot row: %w", err)
		}
		out = append(out, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating abi snapshot rows: %w", err)
	}
	return out, nil
}
