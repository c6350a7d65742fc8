package transparency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Log is the durable, hash-chained transparency log. Append serializes
// writes through a transaction-scoped advisory lock taken before the chain
// tail is read, so concurrent appends are linearized, per spec §4.2's "persistence port is the single source of
// truth for append order" requirement.
type Log struct {
	pool *pgxpool.Pool
}

// NewLog creates a transparency Log backed by the given connection pool.
// Append manages its own transaction, so a pool (not a caller-managed
// pgx.Tx) is required.
func NewLog(pool *pgxpool.Pool) *Log {
	return &Log{pool: pool}
}

const entryColumns = `id, entry_type, contract_id, signature_id, actor_address, created_at, previous_hash, entry_hash, payload`

func scanEntry(row pgx.Row) (Entry, error) {
	var (
		e           Entry
		contractID  pgtype.Text
		signatureID pgtype.Text
		payload     []byte
	)
	err := row.Scan(&e.ID, &e.EntryType, &contractID, &signatureID, &e.ActorAddress, &e.Timestamp, &e.PreviousHash, &e.EntryHash, &payload)
	if err != nil {
		return Entry{}, err
	}
	if contractID.Valid {
		e.ContractID = contractID.String
	}
	if signatureID.Valid {
		e.SignatureID = signatureID.String
	}
	e.Payload = payload
	return e, nil
}

// Append adds a new entry to the chain, linking it to the current tail.
// Implements the signing package's TransparencyAppender interface.
func (l *Log) Append(ctx context.Context, entryType, contractID, signatureID, actorAddress string) error {
	_, err := l.AppendEntry(ctx, EntryType(entryType), contractID, signatureID, actorAddress, nil)
	return err
}

// AppendEntry adds a new entry and returns the persisted row, including
// its computed hash and chain linkage.
func (l *Log) AppendEntry(ctx context.Context, entryType EntryType, contractID, signatureID, actorAddress string, payload []byte) (Entry, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return Entry{}, fmt.Errorf("beginning transparency append: %w", err)
	}
	defer tx.Rollback(ctx)

	// Appenders take this lock one at a time, so each reads the tail that the
	// previous one committed (a row lock alone lets two read the same tail).
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('transparency_log'))`); err != nil {
		return Entry{}, fmt.Errorf("locking transparency chain: %w", err)
	}

	var prevHash string
	row := tx.QueryRow(ctx, `SELECT entry_hash FROM transparency_log ORDER BY created_at DESC, id DESC LIMIT 1 FOR UPDATE`)
	if err := row.Scan(&prevHash); err != nil && err != pgx.ErrNoRows {
		return Entry{}, fmt.Errorf("locking transparency chain tail: %w", err)
	}

	now := time.Now().UTC()
	hash := computeHash(entryType, contractID, signatureID, actorAddress, now)

	var cID, sID pgtype.Text
	if contractID != "" {
		cID = pgtype.Text{String: contractID, Valid: true}
	}
	if signatureID != "" {
		sID = pgtype.Text{String: signatureID, Valid: true}
	}

	entry, err := scanEntry(tx.QueryRow(ctx, `
		INSERT INTO transparency_log
			(id, entry_type, contract_id, signature_id, actor_address, created_at, previous_hash, entry_hash, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING `+entryColumns,
		uuid.New(), entryType, cID, sID, actorAddress, now, prevHash, hash, payload,
	))
	if err != nil {
		return Entry{}, fmt.Errorf("inserting transparency entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return Entry{}, fmt.Errorf("committing transparency append: %w", err)
	}
	return entry, nil
}

// ByContract returns all entries for a contract, oldest first.
func (l *Log) ByContract(ctx context.Context, contractID string) ([]Entry, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+entryColumns+` FROM transparency_log WHERE contract_id = $1 ORDER BY created_at ASC`, contractID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Tail returns the most recent n entries across all contracts, oldest first.
func (l *Log) Tail(ctx context.Context, n int) ([]Entry, error) {
	rows, err := l.pool.Query(ctx, `SELECT `+entryColumns+` FROM (
		SELECT `+entryColumns+` FROM transparency_log ORDER BY created_at DESC, id DESC LIMIT $1
	) recent ORDER BY created_at ASC`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
