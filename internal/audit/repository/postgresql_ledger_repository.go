package repository

import (
	"context"
	"database/sql"
	"fmt"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	"github.com/kbalijepalli/dreas/internal/database"
	apperrors "github.com/kbalijepalli/dreas/internal/errors"
)

// PostgreSQLLedgerRepository implements LedgerStore for PostgreSQL.
// Uses native UUID types with transaction support via database.GetTx().
// The audit_entries table has a unique index on sequence_no, so a concurrent
// insert at the same position fails instead of forking the chain.
type PostgreSQLLedgerRepository struct {
	db *sql.DB
}

// NewPostgreSQLLedgerRepository creates a new PostgreSQL-backed ledger store.
func NewPostgreSQLLedgerRepository(db *sql.DB) *PostgreSQLLedgerRepository {
	return &PostgreSQLLedgerRepository{db: db}
}

// Head returns the sequence number and entry hash of the newest entry.
// Locks the head row when called inside a transaction.
func (p *PostgreSQLLedgerRepository) Head(ctx context.Context) (uint64, []byte, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT sequence_no, entry_hash FROM audit_entries
			  ORDER BY sequence_no DESC LIMIT 1 FOR UPDATE`

	var sequenceNo uint64
	var entryHash []byte
	err := querier.QueryRowContext(ctx, query).Scan(&sequenceNo, &entryHash)
	if err == sql.ErrNoRows {
		return 0, auditDomain.GenesisHash(), nil
	}
	if err != nil {
		return 0, nil, apperrors.Wrap(err, "failed to read ledger head")
	}

	return sequenceNo, entryHash, nil
}

// Insert stores a new entry. Entries are never updated or deleted.
func (p *PostgreSQLLedgerRepository) Insert(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO audit_entries
			  (id, sequence_no, recorded_at, principal, operation, outcome, target_ref, detail, prior_hash, entry_hash)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID,
		entry.SequenceNo,
		entry.Timestamp,
		entry.Principal,
		string(entry.Operation),
		string(entry.Outcome),
		entry.TargetRef,
		entry.Detail,
		entry.PriorHash,
		entry.EntryHash,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to insert audit entry")
	}

	return nil
}

// GetBySequence retrieves the entry at the given sequence number.
func (p *PostgreSQLLedgerRepository) GetBySequence(
	ctx context.Context,
	sequenceNo uint64,
) (*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, sequence_no, recorded_at, principal, operation, outcome, target_ref, detail, prior_hash, entry_hash
			  FROM audit_entries WHERE sequence_no = $1`

	entry, err := scanEntry(querier.QueryRowContext(ctx, query, sequenceNo))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: sequence %d", auditDomain.ErrEntryNotFound, sequenceNo)
	}
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to get audit entry")
	}

	return entry, nil
}

// Range retrieves entries with fromSeq <= sequence <= toSeq, ascending.
func (p *PostgreSQLLedgerRepository) Range(
	ctx context.Context,
	fromSeq, toSeq uint64,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	if fromSeq == 0 {
		fromSeq = 1
	}

	query := `SELECT id, sequence_no, recorded_at, principal, operation, outcome, target_ref, detail, prior_hash, entry_hash
			  FROM audit_entries WHERE sequence_no >= $1`
	args := []any{fromSeq}
	if toSeq > 0 {
		query += ` AND sequence_no <= $2`
		args = append(args, toSeq)
	}
	query += ` ORDER BY sequence_no ASC`

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to range audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectEntries(rows)
}

// List retrieves entries matching the filter in ascending sequence order.
func (p *PostgreSQLLedgerRepository) List(
	ctx context.Context,
	filter *auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, sequence_no, recorded_at, principal, operation, outcome, target_ref, detail, prior_hash, entry_hash
			  FROM audit_entries WHERE 1=1`
	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Principal != "" {
			query += ` AND principal = ` + arg(filter.Principal)
		}
		if filter.Operation != "" {
			query += ` AND operation = ` + arg(string(filter.Operation))
		}
		if filter.Outcome != "" {
			query += ` AND outcome = ` + arg(string(filter.Outcome))
		}
		if filter.From != nil {
			query += ` AND recorded_at >= ` + arg(*filter.From)
		}
		if filter.To != nil {
			query += ` AND recorded_at <= ` + arg(*filter.To)
		}
	}

	query += ` ORDER BY sequence_no ASC`
	if filter != nil && filter.Limit > 0 {
		query += ` LIMIT ` + arg(filter.Limit)
	}
	if filter != nil && filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list audit entries")
	}
	defer func() {
		_ = rows.Close()
	}()

	return collectEntries(rows)
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanEntry reads one audit entry from a row.
func scanEntry(row rowScanner) (*auditDomain.Entry, error) {
	var entry auditDomain.Entry
	var operation, outcome string

	err := row.Scan(
		&entry.ID,
		&entry.SequenceNo,
		&entry.Timestamp,
		&entry.Principal,
		&operation,
		&outcome,
		&entry.TargetRef,
		&entry.Detail,
		&entry.PriorHash,
		&entry.EntryHash,
	)
	if err != nil {
		return nil, err
	}

	entry.Operation = auditDomain.Operation(operation)
	entry.Outcome = auditDomain.Outcome(outcome)
	return &entry, nil
}

// collectEntries reads all audit entries from the result set.
func collectEntries(rows *sql.Rows) ([]*auditDomain.Entry, error) {
	entries := make([]*auditDomain.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan audit entry")
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate audit entries")
	}
	return entries, nil
}
