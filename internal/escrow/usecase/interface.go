// Package usecase implements the break-glass escrow coordinator. It drives
// the request state machine, enforces the approval threshold and separation
// of duties, and releases a target envelope's plaintext exactly once.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
)

// EscrowRepository defines the persistence contract for escrow requests.
type EscrowRepository interface {
	// Create stores a new escrow request.
	Create(ctx context.Context, request *escrowDomain.Request) error

	// Get retrieves a request and its approvals by identifier. It returns
	// ErrRequestNotFound when no request exists.
	Get(ctx context.Context, id uuid.UUID) (*escrowDomain.Request, error)

	// AddApproval records an approval on a request.
	AddApproval(ctx context.Context, id uuid.UUID, approval escrowDomain.Approval) error

	// CompareAndSwapState transitions a request from one state to another.
	// It returns ErrStaleState when the request is not in the expected
	// state, so racing transitions apply at most once.
	CompareAndSwapState(ctx context.Context, id uuid.UUID, from, to escrowDomain.State, updatedAt time.Time) error

	// List returns requests matching the filter, newest first.
	List(ctx context.Context, filter escrowDomain.Filter) ([]*escrowDomain.Request, error)

	// ListExpirable returns non-terminal requests whose TTL elapsed at the
	// given time.
	ListExpirable(ctx context.Context, now time.Time) ([]*escrowDomain.Request, error)

	// CountByState returns the number of requests in each state.
	CountByState(ctx context.Context) (map[escrowDomain.State]uint64, error)
}

// InitiateInput carries the parameters for opening an escrow request.
type InitiateInput struct {
	Requester     string
	Justification string
	Envelope      []byte
}

// EscrowUseCase coordinates the break-glass request lifecycle.
type EscrowUseCase interface {
	// Initiate opens a new escrow request for the given envelope. The
	// envelope must parse; its reference and policy tag are recorded on
	// the request.
	Initiate(ctx context.Context, input *InitiateInput) (*escrowDomain.Request, error)

	// Approve records one approver's vote. The approver must not be the
	// requester and must not have approved before. When the threshold is
	// reached the request transitions to approved.
	Approve(ctx context.Context, approver string, requestID uuid.UUID) (*escrowDomain.Request, error)

	// Deny rejects a non-terminal request. Denial is terminal.
	Deny(ctx context.Context, approver string, requestID uuid.UUID) (*escrowDomain.Request, error)

	// Redeem releases the plaintext of an approved request exactly once.
	// The caller must zero the returned plaintext when done with it.
	Redeem(ctx context.Context, redeemer string, requestID uuid.UUID) ([]byte, *escrowDomain.Request, error)

	// Get retrieves a request by identifier.
	Get(ctx context.Context, requestID uuid.UUID) (*escrowDomain.Request, error)

	// List returns requests matching the filter, newest first.
	List(ctx context.Context, filter escrowDomain.Filter) ([]*escrowDomain.Request, error)

	// SweepExpired transitions all requests past their TTL to expired and
	// returns how many were transitioned.
	SweepExpired(ctx context.Context) (int, error)

	// Stats summarizes requests by state.
	Stats(ctx context.Context) (*escrowDomain.Stats, error)
}
