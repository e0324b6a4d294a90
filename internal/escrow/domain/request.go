// Package domain defines the break-glass escrow domain model.
//
// An escrow request asks for emergency access to an encrypted envelope. The
// request must collect a threshold of approvals from distinct principals,
// none of whom may be the requester, before the envelope can be redeemed.
// Requests expire, and a redeemed request can never be redeemed again.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle state of an escrow request.
//
// Transitions:
//
//	Pending  -> Approved (threshold reached)
//	Pending  -> Denied   (an approver rejects)
//	Pending  -> Expired  (TTL elapsed)
//	Approved -> Redeemed (single successful redemption)
//	Approved -> Expired  (TTL elapsed before redemption)
//
// Redeemed, Denied, and Expired are terminal.
type State string

const (
	// PendingState means the request is collecting approvals.
	PendingState State = "pending"

	// ApprovedState means the approval threshold was reached.
	ApprovedState State = "approved"

	// RedeemedState means the envelope was released exactly once.
	RedeemedState State = "redeemed"

	// DeniedState means an approver rejected the request.
	DeniedState State = "denied"

	// ExpiredState means the request's TTL elapsed before redemption.
	ExpiredState State = "expired"
)

// IsTerminal reports whether the state permits no further transitions.
func (s State) IsTerminal() bool {
	switch s {
	case RedeemedState, DeniedState, ExpiredState:
		return true
	default:
		return false
	}
}

// Approval records one approver's vote on a request.
type Approval struct {
	Approver   string
	ApprovedAt time.Time
}

// Request is a break-glass escrow request.
type Request struct {
	ID             uuid.UUID // Unique identifier (UUIDv7)
	Requester      string    // Principal that opened the request
	Justification  string    // Free-text reason, recorded for review
	TargetRef      string    // Envelope reference (hex digest of the envelope bytes)
	TargetEnvelope []byte    // Marshaled envelope to release on redemption
	PolicyTag      string    // Policy tag of the target envelope
	Threshold      int       // Distinct approvals required before redemption
	State          State
	Approvals      []Approval
	CreatedAt      time.Time
	ExpiresAt      time.Time
	UpdatedAt      time.Time
}

// HasApprover reports whether the principal already approved this request.
func (r *Request) HasApprover(principal string) bool {
	for _, approval := range r.Approvals {
		if approval.Approver == principal {
			return true
		}
	}
	return false
}

// IsExpired reports whether the request's TTL has elapsed at the given time.
func (r *Request) IsExpired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// ThresholdMet reports whether enough distinct approvals were collected.
func (r *Request) ThresholdMet() bool {
	return len(r.Approvals) >= r.Threshold
}

// Filter narrows an escrow listing. Zero values mean "no filter".
type Filter struct {
	Requester string
	State     State
	Offset    int
	Limit     int
}

// Stats summarizes escrow requests by state.
type Stats struct {
	ByState map[State]uint64
	Total   uint64
}
