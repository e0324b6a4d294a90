package domain

import "github.com/kbalijepalli/dreas/internal/errors"

var (
	// ErrRequestNotFound is returned when no escrow request exists with the
	// given identifier.
	ErrRequestNotFound = errors.Wrap(errors.ErrNotFound, "escrow request not found")

	// ErrInvalidTarget is returned when the target envelope of a new request
	// cannot be parsed.
	ErrInvalidTarget = errors.Wrap(errors.ErrInvalidInput, "escrow target is not a valid envelope")

	// ErrSelfApprovalDenied is returned when the requester tries to approve
	// their own request.
	ErrSelfApprovalDenied = errors.Wrap(errors.ErrForbidden, "requester cannot approve their own escrow request")

	// ErrDuplicateApprover is returned when a principal approves the same
	// request twice.
	ErrDuplicateApprover = errors.Wrap(errors.ErrConflict, "principal already approved this escrow request")

	// ErrAlreadyApproved is returned when an approval targets a request that
	// already reached its threshold.
	ErrAlreadyApproved = errors.Wrap(errors.ErrConflict, "escrow request already reached its approval threshold")

	// ErrAlreadyTerminal is returned when an operation targets a request in
	// a terminal state.
	ErrAlreadyTerminal = errors.Wrap(errors.ErrConflict, "escrow request is in a terminal state")

	// ErrRequestExpired is returned when a request's TTL elapsed before the
	// operation.
	ErrRequestExpired = errors.Wrap(errors.ErrConflict, "escrow request expired")

	// ErrNotApproved is returned when redemption is attempted before the
	// approval threshold is reached.
	ErrNotApproved = errors.Wrap(errors.ErrConflict, "escrow request has not reached its approval threshold")

	// ErrStaleState is returned when a state transition loses a race with a
	// concurrent update.
	ErrStaleState = errors.Wrap(errors.ErrConflict, "escrow request state changed concurrently")

	// ErrEscrowUnavailable is returned when the escrow store cannot be
	// reached.
	ErrEscrowUnavailable = errors.Wrap(errors.ErrUnavailable, "escrow store unavailable")
)
