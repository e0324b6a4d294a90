package usecase

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	"github.com/kbalijepalli/dreas/internal/database"
	apperrors "github.com/kbalijepalli/dreas/internal/errors"
)

// ledgerUseCase implements LedgerUseCase.
//
// Appends are serialized with a mutex and executed inside a transaction so
// the head read and the insert are atomic. Sequence numbers are dense: the
// new entry always gets head+1 and its prior hash is the head's entry hash.
type ledgerUseCase struct {
	store     LedgerStore
	txManager database.TxManager

	appendMu sync.Mutex
}

// NewLedgerUseCase creates a new LedgerUseCase with the provided dependencies.
func NewLedgerUseCase(store LedgerStore, txManager database.TxManager) LedgerUseCase {
	return &ledgerUseCase{
		store:     store,
		txManager: txManager,
	}
}

// Append records a new entry at the head of the chain.
//
// Any store failure is reported as ErrAuditUnavailable so callers that must
// audit their operations can fail closed.
func (l *ledgerUseCase) Append(
	ctx context.Context,
	input *AppendInput,
) (*auditDomain.Entry, error) {
	l.appendMu.Lock()
	defer l.appendMu.Unlock()

	var entry *auditDomain.Entry
	err := l.txManager.WithTx(ctx, func(ctx context.Context) error {
		headSeq, headHash, err := l.store.Head(ctx)
		if err != nil {
			return err
		}

		entry = &auditDomain.Entry{
			ID:         uuid.Must(uuid.NewV7()),
			SequenceNo: headSeq + 1,
			Timestamp:  time.Now().UTC(),
			Principal:  input.Principal,
			Operation:  input.Operation,
			Outcome:    input.Outcome,
			TargetRef:  input.TargetRef,
			Detail:     input.Detail,
			PriorHash:  headHash,
		}
		entry.EntryHash = entry.ComputeHash()

		return l.store.Insert(ctx, entry)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auditDomain.ErrAuditUnavailable, err)
	}

	return entry, nil
}

// Query retrieves entries matching the filter.
func (l *ledgerUseCase) Query(
	ctx context.Context,
	filter *auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	entries, err := l.store.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auditDomain.ErrAuditUnavailable, err)
	}
	return entries, nil
}

// VerifyChain recomputes hashes over the range and checks linkage.
//
// For a range not anchored at the genesis entry, the predecessor of the first
// entry is fetched so the prior-hash link into the range is also verified.
func (l *ledgerUseCase) VerifyChain(
	ctx context.Context,
	fromSeq, toSeq uint64,
) (uint64, error) {
	if fromSeq == 0 {
		fromSeq = 1
	}

	entries, err := l.store.Range(ctx, fromSeq, toSeq)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", auditDomain.ErrAuditUnavailable, err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	// Establish the expected prior hash of the first entry in the range.
	expectedPrior := auditDomain.GenesisHash()
	if fromSeq > 1 {
		anchor, err := l.store.GetBySequence(ctx, fromSeq-1)
		if err != nil {
			if apperrors.Is(err, apperrors.ErrNotFound) {
				return 0, &auditDomain.TamperedError{
					SequenceNo: fromSeq - 1,
					Reason:     "anchor entry missing",
				}
			}
			return 0, fmt.Errorf("%w: %v", auditDomain.ErrAuditUnavailable, err)
		}
		expectedPrior = anchor.EntryHash
	}

	expectedSeq := fromSeq
	for _, entry := range entries {
		if entry.SequenceNo != expectedSeq {
			return 0, &auditDomain.TamperedError{
				SequenceNo: expectedSeq,
				Reason:     "sequence gap",
			}
		}
		if !bytes.Equal(entry.PriorHash, expectedPrior) {
			return 0, &auditDomain.TamperedError{
				SequenceNo: entry.SequenceNo,
				Reason:     "prior hash mismatch",
			}
		}
		if !bytes.Equal(entry.EntryHash, entry.ComputeHash()) {
			return 0, &auditDomain.TamperedError{
				SequenceNo: entry.SequenceNo,
				Reason:     "entry hash mismatch",
			}
		}

		expectedPrior = entry.EntryHash
		expectedSeq++
	}

	return uint64(len(entries)), nil
}

// Report summarizes ledger activity matching the filter's time window.
func (l *ledgerUseCase) Report(
	ctx context.Context,
	filter *auditDomain.Filter,
) (*auditDomain.Report, error) {
	entries, err := l.store.Range(ctx, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auditDomain.ErrAuditUnavailable, err)
	}

	report := &auditDomain.Report{
		ByOperation: make(map[auditDomain.Operation]uint64),
		ByOutcome:   make(map[auditDomain.Outcome]uint64),
		ByPrincipal: make(map[string]uint64),
	}

	for _, entry := range entries {
		if filter != nil && !filter.Matches(entry) {
			continue
		}

		report.TotalEntries++
		if report.FirstSequence == 0 {
			report.FirstSequence = entry.SequenceNo
		}
		report.LastSequence = entry.SequenceNo
		report.ByOperation[entry.Operation]++
		report.ByOutcome[entry.Outcome]++
		report.ByPrincipal[entry.Principal]++
	}

	return report, nil
}
