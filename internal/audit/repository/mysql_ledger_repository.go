package repository

import (
	"context"
	"database/sql"
	"fmt"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	"github.com/kbalijepalli/dreas/internal/database"
	apperrors "github.com/kbalijepalli/dreas/internal/errors"
)

// MySQLLedgerRepository implements LedgerStore for MySQL.
// UUIDs are stored as CHAR(36) strings with transaction support via
// database.GetTx(). The audit_entries table has a unique index on
// sequence_no, so a concurrent insert at the same position fails instead of
// forking the chain.
type MySQLLedgerRepository struct {
	db *sql.DB
}

// NewMySQLLedgerRepository creates a new MySQL-backed ledger store.
func NewMySQLLedgerRepository(db *sql.DB) *MySQLLedgerRepository {
	return &MySQLLedgerRepository{db: db}
}

// Head returns the sequence number and entry hash of the newest entry.
// Locks the head row when called inside a transaction.
func (m *MySQLLedgerRepository) Head(ctx context.Context) (uint64, []byte, error) {
	querier := database.GetTx(ctx, m.db)

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
func (m *MySQLLedgerRepository) Insert(ctx context.Context, entry *auditDomain.Entry) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO audit_entries
			  (id, sequence_no, recorded_at, principal, operation, outcome, target_ref, detail, prior_hash, entry_hash)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		entry.ID.String(),
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
func (m *MySQLLedgerRepository) GetBySequence(
	ctx context.Context,
	sequenceNo uint64,
) (*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, sequence_no, recorded_at, principal, operation, outcome, target_ref, detail, prior_hash, entry_hash
			  FROM audit_entries WHERE sequence_no = ?`

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
func (m *MySQLLedgerRepository) Range(
	ctx context.Context,
	fromSeq, toSeq uint64,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	if fromSeq == 0 {
		fromSeq = 1
	}

	query := `SELECT id, sequence_no, recorded_at, principal, operation, outcome, target_ref, detail, prior_hash, entry_hash
			  FROM audit_entries WHERE sequence_no >= ?`
	args := []any{fromSeq}
	if toSeq > 0 {
		query += ` AND sequence_no <= ?`
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
func (m *MySQLLedgerRepository) List(
	ctx context.Context,
	filter *auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, sequence_no, recorded_at, principal, operation, outcome, target_ref, detail, prior_hash, entry_hash
			  FROM audit_entries WHERE 1=1`
	var args []any

	if filter != nil {
		if filter.Principal != "" {
			query += ` AND principal = ?`
			args = append(args, filter.Principal)
		}
		if filter.Operation != "" {
			query += ` AND operation = ?`
			args = append(args, string(filter.Operation))
		}
		if filter.Outcome != "" {
			query += ` AND outcome = ?`
			args = append(args, string(filter.Outcome))
		}
		if filter.From != nil {
			query += ` AND recorded_at >= ?`
			args = append(args, *filter.From)
		}
		if filter.To != nil {
			query += ` AND recorded_at <= ?`
			args = append(args, *filter.To)
		}
	}

	query += ` ORDER BY sequence_no ASC`
	if filter != nil && filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
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
