package repository

import (
	"database/sql"
	"strconv"

	apperrors "github.com/kbalijepalli/dreas/internal/errors"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(scanner rowScanner) (*escrowDomain.Request, error) {
	var request escrowDomain.Request
	err := scanner.Scan(
		&request.ID,
		&request.Requester,
		&request.Justification,
		&request.TargetRef,
		&request.TargetEnvelope,
		&request.PolicyTag,
		&request.Threshold,
		&request.State,
		&request.CreatedAt,
		&request.ExpiresAt,
		&request.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func collectRequests(rows *sql.Rows) ([]*escrowDomain.Request, error) {
	var requests []*escrowDomain.Request
	for rows.Next() {
		request, err := scanRequest(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan escrow request")
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate escrow requests")
	}
	return requests, nil
}

func placeholderPG(n int) string {
	return "$" + strconv.Itoa(n)
}

func appendCondition(where, condition string) string {
	if where == "" {
		return " WHERE " + condition
	}
	return where + " AND " + condition
}
