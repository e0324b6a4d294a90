// Package repository provides persistence implementations for the audit ledger.
package repository

import (
	"context"
	"fmt"
	"sync"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	apperrors "github.com/kbalijepalli/dreas/internal/errors"
)

// MemoryLedgerRepository implements LedgerStore in memory.
// Intended for development and tests; entries are lost on restart.
type MemoryLedgerRepository struct {
	mu      sync.RWMutex
	entries []*auditDomain.Entry
}

// NewMemoryLedgerRepository creates an empty in-memory ledger store.
func NewMemoryLedgerRepository() *MemoryLedgerRepository {
	return &MemoryLedgerRepository{}
}

// Head returns the sequence number and entry hash of the newest entry.
func (m *MemoryLedgerRepository) Head(_ context.Context) (uint64, []byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.entries) == 0 {
		return 0, auditDomain.GenesisHash(), nil
	}

	head := m.entries[len(m.entries)-1]
	return head.SequenceNo, head.EntryHash, nil
}

// Insert stores a new entry at the head of the chain.
func (m *MemoryLedgerRepository) Insert(_ context.Context, entry *auditDomain.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	expected := uint64(len(m.entries)) + 1
	if entry.SequenceNo != expected {
		return fmt.Errorf(
			"%w: sequence %d, expected %d",
			apperrors.ErrConflict,
			entry.SequenceNo,
			expected,
		)
	}

	m.entries = append(m.entries, entry)
	return nil
}

// GetBySequence retrieves the entry at the given sequence number.
func (m *MemoryLedgerRepository) GetBySequence(
	_ context.Context,
	sequenceNo uint64,
) (*auditDomain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if sequenceNo == 0 || sequenceNo > uint64(len(m.entries)) {
		return nil, fmt.Errorf("%w: sequence %d", auditDomain.ErrEntryNotFound, sequenceNo)
	}

	return m.entries[sequenceNo-1], nil
}

// Range retrieves entries with fromSeq <= sequence <= toSeq, ascending.
func (m *MemoryLedgerRepository) Range(
	_ context.Context,
	fromSeq, toSeq uint64,
) ([]*auditDomain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if fromSeq == 0 {
		fromSeq = 1
	}
	if toSeq == 0 || toSeq > uint64(len(m.entries)) {
		toSeq = uint64(len(m.entries))
	}

	entries := make([]*auditDomain.Entry, 0)
	for seq := fromSeq; seq <= toSeq; seq++ {
		entries = append(entries, m.entries[seq-1])
	}
	return entries, nil
}

// List retrieves entries matching the filter in ascending sequence order.
func (m *MemoryLedgerRepository) List(
	_ context.Context,
	filter *auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*auditDomain.Entry, 0)
	skipped := 0
	for _, entry := range m.entries {
		if filter != nil && !filter.Matches(entry) {
			continue
		}
		if filter != nil && skipped < filter.Offset {
			skipped++
			continue
		}
		entries = append(entries, entry)
		if filter != nil && filter.Limit > 0 && len(entries) == filter.Limit {
			break
		}
	}
	return entries, nil
}
