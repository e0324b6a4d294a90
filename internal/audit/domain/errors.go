package domain

import (
	"fmt"

	"github.com/kbalijepalli/dreas/internal/errors"
)

// Audit ledger error definitions.
var (
	// ErrAuditUnavailable indicates the ledger store could not record or
	// serve entries. Operations that must be audited fail closed on it.
	ErrAuditUnavailable = errors.Wrap(errors.ErrUnavailable, "audit ledger unavailable")

	// ErrChainTampered indicates chain verification found an entry whose
	// hash or linkage does not match. See TamperedError for the position.
	ErrChainTampered = errors.Wrap(errors.ErrConflict, "audit chain tampered")

	// ErrEntryNotFound indicates the requested sequence number has no entry.
	ErrEntryNotFound = errors.Wrap(errors.ErrNotFound, "audit entry not found")
)

// TamperedError reports the first ledger position that failed verification.
type TamperedError struct {
	SequenceNo uint64
	Reason     string
}

// Error implements the error interface.
func (e *TamperedError) Error() string {
	return fmt.Sprintf("audit chain tampered at sequence %d: %s", e.SequenceNo, e.Reason)
}

// Unwrap lets errors.Is match TamperedError against ErrChainTampered.
func (e *TamperedError) Unwrap() error {
	return ErrChainTampered
}
