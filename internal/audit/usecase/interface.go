// Package usecase implements business logic orchestration for the audit ledger.
package usecase

import (
	"context"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
)

// LedgerStore defines persistence operations for audit entries.
// Implementations must support transaction-aware operations via context
// propagation and must never update or delete stored entries.
type LedgerStore interface {
	// Head returns the sequence number and entry hash of the newest entry.
	// An empty ledger returns sequence 0 and the genesis hash.
	Head(ctx context.Context) (sequenceNo uint64, entryHash []byte, err error)

	// Insert stores a new entry. The entry's sequence number must be exactly
	// one past the current head.
	Insert(ctx context.Context, entry *auditDomain.Entry) error

	// GetBySequence retrieves the entry at the given sequence number.
	// Returns ErrEntryNotFound if no such entry exists.
	GetBySequence(ctx context.Context, sequenceNo uint64) (*auditDomain.Entry, error)

	// Range retrieves entries with fromSeq <= sequence <= toSeq, ordered by
	// sequence ascending. toSeq 0 means "through the head".
	Range(ctx context.Context, fromSeq, toSeq uint64) ([]*auditDomain.Entry, error)

	// List retrieves entries matching the filter, ordered by sequence
	// ascending, honoring the filter's offset and limit.
	List(ctx context.Context, filter *auditDomain.Filter) ([]*auditDomain.Entry, error)
}

// AppendInput carries the caller-supplied fields of a new audit entry.
// Sequence number, hashes, id, and timestamp are assigned by the use case.
type AppendInput struct {
	Principal string
	Operation auditDomain.Operation
	Outcome   auditDomain.Outcome
	TargetRef string
	Detail    string
}

// LedgerUseCase defines business logic operations for the audit ledger.
type LedgerUseCase interface {
	// Append records a new entry at the head of the chain.
	Append(ctx context.Context, input *AppendInput) (*auditDomain.Entry, error)

	// Query retrieves entries matching the filter.
	Query(ctx context.Context, filter *auditDomain.Filter) ([]*auditDomain.Entry, error)

	// VerifyChain recomputes hashes over the range and checks linkage.
	// toSeq 0 means "through the head". Returns the number of entries
	// verified, or a TamperedError naming the first bad sequence.
	VerifyChain(ctx context.Context, fromSeq, toSeq uint64) (uint64, error)

	// Report summarizes ledger activity matching the filter's time window.
	Report(ctx context.Context, filter *auditDomain.Filter) (*auditDomain.Report, error)
}
