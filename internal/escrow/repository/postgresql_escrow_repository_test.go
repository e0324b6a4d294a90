package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
)

func newPostgreSQLEscrowMock(t *testing.T) (*PostgreSQLEscrowRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgreSQLEscrowRepository(db), mock
}

func requestRow(request *escrowDomain.Request) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "requester", "justification", "target_ref", "target_envelope",
		"policy_tag", "threshold", "state", "created_at", "expires_at", "updated_at",
	}).AddRow(
		request.ID, request.Requester, request.Justification, request.TargetRef,
		request.TargetEnvelope, request.PolicyTag, request.Threshold,
		string(request.State), request.CreatedAt, request.ExpiresAt, request.UpdatedAt,
	)
}

func TestPostgreSQLEscrowRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo, mock := newPostgreSQLEscrowMock(t)

	request := newRequest("alice", escrowDomain.PendingState, time.Now().UTC())

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO escrow_requests`)).
		WithArgs(
			request.ID,
			request.Requester,
			request.Justification,
			request.TargetRef,
			request.TargetEnvelope,
			request.PolicyTag,
			request.Threshold,
			string(request.State),
			request.CreatedAt,
			request.ExpiresAt,
			request.UpdatedAt,
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(ctx, request))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLEscrowRepository_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("loads the request and its approvals", func(t *testing.T) {
		repo, mock := newPostgreSQLEscrowMock(t)
		request := newRequest("alice", escrowDomain.PendingState, time.Now().UTC())
		approvedAt := time.Now().UTC()

		mock.ExpectQuery(`SELECT (.+) FROM escrow_requests`).
			WithArgs(request.ID).
			WillReturnRows(requestRow(request))
		mock.ExpectQuery(`SELECT approver, approved_at FROM escrow_approvals`).
			WithArgs(request.ID).
			WillReturnRows(
				sqlmock.NewRows([]string{"approver", "approved_at"}).
					AddRow("bob", approvedAt),
			)

		stored, err := repo.Get(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, request.ID, stored.ID)
		require.Len(t, stored.Approvals, 1)
		assert.Equal(t, "bob", stored.Approvals[0].Approver)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown request", func(t *testing.T) {
		repo, mock := newPostgreSQLEscrowMock(t)
		id := uuid.Must(uuid.NewV7())

		mock.ExpectQuery(`SELECT (.+) FROM escrow_requests`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.Get(ctx, id)
		assert.ErrorIs(t, err, escrowDomain.ErrRequestNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLEscrowRepository_CompareAndSwapState(t *testing.T) {
	ctx := context.Background()
	id := uuid.Must(uuid.NewV7())
	now := time.Now().UTC()

	t.Run("transition applies", func(t *testing.T) {
		repo, mock := newPostgreSQLEscrowMock(t)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE escrow_requests`)).
			WithArgs(string(escrowDomain.ApprovedState), now, id, string(escrowDomain.PendingState)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.CompareAndSwapState(ctx, id, escrowDomain.PendingState, escrowDomain.ApprovedState, now)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale state", func(t *testing.T) {
		repo, mock := newPostgreSQLEscrowMock(t)

		mock.ExpectExec(regexp.QuoteMeta(`UPDATE escrow_requests`)).
			WithArgs(string(escrowDomain.RedeemedState), now, id, string(escrowDomain.ApprovedState)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.CompareAndSwapState(ctx, id, escrowDomain.ApprovedState, escrowDomain.RedeemedState, now)
		assert.ErrorIs(t, err, escrowDomain.ErrStaleState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLEscrowRepository_List(t *testing.T) {
	ctx := context.Background()
	repo, mock := newPostgreSQLEscrowMock(t)

	request := newRequest("alice", escrowDomain.PendingState, time.Now().UTC())

	mock.ExpectQuery(`SELECT (.+) FROM escrow_requests WHERE requester = \$1 AND state = \$2 ORDER BY created_at DESC LIMIT \$3`).
		WithArgs("alice", string(escrowDomain.PendingState), 10).
		WillReturnRows(requestRow(request))
	mock.ExpectQuery(`SELECT approver, approved_at FROM escrow_approvals`).
		WithArgs(request.ID).
		WillReturnRows(sqlmock.NewRows([]string{"approver", "approved_at"}))

	requests, err := repo.List(ctx, escrowDomain.Filter{
		Requester: "alice",
		State:     escrowDomain.PendingState,
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, request.ID, requests[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLEscrowRepository_CountByState(t *testing.T) {
	ctx := context.Background()
	repo, mock := newPostgreSQLEscrowMock(t)

	mock.ExpectQuery(`SELECT state, COUNT\(\*\) FROM escrow_requests GROUP BY state`).
		WillReturnRows(
			sqlmock.NewRows([]string{"state", "count"}).
				AddRow(string(escrowDomain.PendingState), 4).
				AddRow(string(escrowDomain.RedeemedState), 1),
		)

	counts, err := repo.CountByState(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), counts[escrowDomain.PendingState])
	assert.Equal(t, uint64(1), counts[escrowDomain.RedeemedState])
	assert.NoError(t, mock.ExpectationsWereMet())
}
