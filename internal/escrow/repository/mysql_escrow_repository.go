package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/kbalijepalli/dreas/internal/database"
	apperrors "github.com/kbalijepalli/dreas/internal/errors"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
)

// MySQLEscrowRepository implements escrow request persistence for MySQL
// databases.
type MySQLEscrowRepository struct {
	db *sql.DB
}

// Create inserts a new escrow request.
func (m *MySQLEscrowRepository) Create(ctx context.Context, request *escrowDomain.Request) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO escrow_requests
			  (id, requester, justification, target_ref, target_envelope, policy_tag, threshold, state, created_at, expires_at, updated_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := querier.ExecContext(
		ctx,
		query,
		request.ID.String(),
		request.Requester,
		request.Justification,
		request.TargetRef,
		request.TargetEnvelope,
		request.PolicyTag,
		request.Threshold,
		request.State,
		request.CreatedAt,
		request.ExpiresAt,
		request.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to create escrow request")
	}
	return nil
}

// Get retrieves an escrow request and its approvals by identifier.
func (m *MySQLEscrowRepository) Get(ctx context.Context, id uuid.UUID) (*escrowDomain.Request, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, requester, justification, target_ref, target_envelope, policy_tag, threshold, state, created_at, expires_at, updated_at
			  FROM escrow_requests
			  WHERE id = ?`

	request, err := scanRequest(querier.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, escrowDomain.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get escrow request")
	}

	if err := m.loadApprovals(ctx, querier, request); err != nil {
		return nil, err
	}
	return request, nil
}

// AddApproval records an approval on a request.
func (m *MySQLEscrowRepository) AddApproval(
	ctx context.Context,
	id uuid.UUID,
	approval escrowDomain.Approval,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO escrow_approvals (request_id, approver, approved_at) VALUES (?, ?, ?)`

	_, err := querier.ExecContext(ctx, query, id.String(), approval.Approver, approval.ApprovedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to add escrow approval")
	}
	return nil
}

// CompareAndSwapState transitions a request from one state to another. It
// returns ErrStaleState when the request is no longer in the expected state.
func (m *MySQLEscrowRepository) CompareAndSwapState(
	ctx context.Context,
	id uuid.UUID,
	from, to escrowDomain.State,
	updatedAt time.Time,
) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE escrow_requests
			  SET state = ?, updated_at = ?
			  WHERE id = ? AND state = ?`

	result, err := querier.ExecContext(ctx, query, to, updatedAt, id.String(), from)
	if err != nil {
		return apperrors.Wrap(err, "failed to update escrow request state")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows for escrow state update")
	}
	if affected == 0 {
		return escrowDomain.ErrStaleState
	}
	return nil
}

// List returns requests matching the filter, newest first.
func (m *MySQLEscrowRepository) List(
	ctx context.Context,
	filter escrowDomain.Filter,
) ([]*escrowDomain.Request, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, requester, justification, target_ref, target_envelope, policy_tag, threshold, state, created_at, expires_at, updated_at
			  FROM escrow_requests`

	var args []any
	arg := func(value any) string {
		args = append(args, value)
		return "?"
	}

	where := ""
	if filter.Requester != "" {
		where = appendCondition(where, "requester = "+arg(filter.Requester))
	}
	if filter.State != "" {
		where = appendCondition(where, "state = "+arg(filter.State))
	}
	query += where + " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
		if filter.Offset > 0 {
			query += " OFFSET " + arg(filter.Offset)
		}
	}

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list escrow requests")
	}
	defer rows.Close()

	requests, err := collectRequests(rows)
	if err != nil {
		return nil, err
	}
	for _, request := range requests {
		if err := m.loadApprovals(ctx, querier, request); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// ListExpirable returns non-terminal requests whose TTL elapsed at the
// given time.
func (m *MySQLEscrowRepository) ListExpirable(
	ctx context.Context,
	now time.Time,
) ([]*escrowDomain.Request, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, requester, justification, target_ref, target_envelope, policy_tag, threshold, state, created_at, expires_at, updated_at
			  FROM escrow_requests
			  WHERE state IN (?, ?) AND expires_at <= ?
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, escrowDomain.PendingState, escrowDomain.ApprovedState, now)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list expirable escrow requests")
	}
	defer rows.Close()

	return collectRequests(rows)
}

// CountByState returns the number of requests in each state.
func (m *MySQLEscrowRepository) CountByState(ctx context.Context) (map[escrowDomain.State]uint64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT state, COUNT(*) FROM escrow_requests GROUP BY state`

	rows, err := querier.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to count escrow requests")
	}
	defer rows.Close()

	counts := make(map[escrowDomain.State]uint64)
	for rows.Next() {
		var state escrowDomain.State
		var count uint64
		if err := rows.Scan(&state, &count); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan escrow request count")
		}
		counts[state] = count
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate escrow request counts")
	}
	return counts, nil
}

func (m *MySQLEscrowRepository) loadApprovals(
	ctx context.Context,
	querier database.Querier,
	request *escrowDomain.Request,
) error {
	query := `SELECT approver, approved_at
			  FROM escrow_approvals
			  WHERE request_id = ?
			  ORDER BY approved_at ASC`

	rows, err := querier.QueryContext(ctx, query, request.ID.String())
	if err != nil {
		return apperrors.Wrap(err, "failed to load escrow approvals")
	}
	defer rows.Close()

	for rows.Next() {
		var approval escrowDomain.Approval
		if err := rows.Scan(&approval.Approver, &approval.ApprovedAt); err != nil {
			return apperrors.Wrap(err, "failed to scan escrow approval")
		}
		request.Approvals = append(request.Approvals, approval)
	}
	if err := rows.Err(); err != nil {
		return apperrors.Wrap(err, "failed to iterate escrow approvals")
	}
	return nil
}

// NewMySQLEscrowRepository creates a new MySQL escrow repository instance.
func NewMySQLEscrowRepository(db *sql.DB) *MySQLEscrowRepository {
	return &MySQLEscrowRepository{db: db}
}
