// Package usecase implements the security facade. It is the single entry
// point for callers: every operation authenticates the bearer token, checks
// the caller's grants, performs the cryptographic or escrow work, and records
// the attempt in the audit ledger. When the ledger cannot be written the
// operation fails closed.
package usecase

import (
	"context"

	"github.com/google/uuid"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
)

// ProtectOutput carries the result of sealing a payload.
type ProtectOutput struct {
	Envelope    []byte // Marshaled envelope, safe to store anywhere
	Ref         string // Stable reference to the envelope (hex digest)
	KeyHandleID string // Key handle that wrapped the data key
}

// SecurityUseCase is the guarded facade over envelope encryption, break-glass
// escrow, and the audit ledger.
type SecurityUseCase interface {
	// Protect seals a payload under a fresh data key, binding the policy
	// tag. Requires the encrypt capability and a policy grant for the tag.
	Protect(ctx context.Context, token string, plaintext []byte, policyTag string) (*ProtectOutput, error)

	// Reveal opens an envelope. Requires the decrypt capability and a
	// policy grant for the envelope's tag. The caller must zero the
	// returned plaintext when done with it.
	Reveal(ctx context.Context, token string, envelope []byte) ([]byte, error)

	// InitiateEscrow opens a break-glass request for an envelope.
	// Requires the escrow-redeem capability.
	InitiateEscrow(ctx context.Context, token string, envelope []byte, justification string) (*escrowDomain.Request, error)

	// ApproveEscrow records an approval. Requires the escrow-approve
	// capability; the approver must not be the requester.
	ApproveEscrow(ctx context.Context, token string, requestID uuid.UUID) (*escrowDomain.Request, error)

	// DenyEscrow rejects a request. Requires the escrow-approve capability.
	DenyEscrow(ctx context.Context, token string, requestID uuid.UUID) (*escrowDomain.Request, error)

	// RedeemEscrow releases an approved request's plaintext exactly once.
	// Requires the escrow-redeem capability.
	RedeemEscrow(ctx context.Context, token string, requestID uuid.UUID) ([]byte, *escrowDomain.Request, error)

	// GetEscrow retrieves a request. Requires an escrow capability.
	GetEscrow(ctx context.Context, token string, requestID uuid.UUID) (*escrowDomain.Request, error)

	// ListEscrow lists requests matching the filter. Requires an escrow
	// capability.
	ListEscrow(ctx context.Context, token string, filter escrowDomain.Filter) ([]*escrowDomain.Request, error)

	// EscrowStats summarizes requests by state. Requires an escrow
	// capability.
	EscrowStats(ctx context.Context, token string) (*escrowDomain.Stats, error)

	// AuditQuery retrieves ledger entries matching the filter. Requires the
	// audit-read capability.
	AuditQuery(ctx context.Context, token string, filter *auditDomain.Filter) ([]*auditDomain.Entry, error)

	// AuditReport summarizes ledger activity. Requires the audit-read
	// capability.
	AuditReport(ctx context.Context, token string, filter *auditDomain.Filter) (*auditDomain.Report, error)

	// VerifyAuditChain verifies ledger integrity over a sequence range.
	// Requires the audit-read capability.
	VerifyAuditChain(ctx context.Context, token string, fromSeq, toSeq uint64) (uint64, error)
}
