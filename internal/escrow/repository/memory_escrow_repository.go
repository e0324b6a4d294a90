// Package repository implements escrow request persistence. Stores support
// PostgreSQL and MySQL plus an in-memory variant for single-process
// deployments and tests. State transitions use compare-and-swap updates so
// concurrent approvals and redemptions cannot double-apply.
package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
)

// MemoryEscrowRepository keeps escrow requests in process memory.
type MemoryEscrowRepository struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*escrowDomain.Request
}

// Create stores a new escrow request.
func (m *MemoryEscrowRepository) Create(ctx context.Context, request *escrowDomain.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests[request.ID] = cloneRequest(request)
	return nil
}

// Get retrieves an escrow request by identifier.
func (m *MemoryEscrowRepository) Get(ctx context.Context, id uuid.UUID) (*escrowDomain.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	request, ok := m.requests[id]
	if !ok {
		return nil, escrowDomain.ErrRequestNotFound
	}
	return cloneRequest(request), nil
}

// AddApproval records an approval on a request. The caller is responsible
// for duplicate and self-approval checks.
func (m *MemoryEscrowRepository) AddApproval(
	ctx context.Context,
	id uuid.UUID,
	approval escrowDomain.Approval,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	request, ok := m.requests[id]
	if !ok {
		return escrowDomain.ErrRequestNotFound
	}
	request.Approvals = append(request.Approvals, approval)
	request.UpdatedAt = approval.ApprovedAt
	return nil
}

// CompareAndSwapState transitions a request from one state to another. It
// returns ErrStaleState when the request is no longer in the expected state.
func (m *MemoryEscrowRepository) CompareAndSwapState(
	ctx context.Context,
	id uuid.UUID,
	from, to escrowDomain.State,
	updatedAt time.Time,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	request, ok := m.requests[id]
	if !ok {
		return escrowDomain.ErrRequestNotFound
	}
	if request.State != from {
		return escrowDomain.ErrStaleState
	}
	request.State = to
	request.UpdatedAt = updatedAt
	return nil
}

// List returns requests matching the filter, newest first.
func (m *MemoryEscrowRepository) List(
	ctx context.Context,
	filter escrowDomain.Filter,
) ([]*escrowDomain.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*escrowDomain.Request
	for _, request := range m.requests {
		if filter.Requester != "" && request.Requester != filter.Requester {
			continue
		}
		if filter.State != "" && request.State != filter.State {
			continue
		}
		matched = append(matched, cloneRequest(request))
	}

	slices.SortFunc(matched, func(a, b *escrowDomain.Request) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// ListExpirable returns non-terminal requests whose TTL elapsed at the
// given time.
func (m *MemoryEscrowRepository) ListExpirable(
	ctx context.Context,
	now time.Time,
) ([]*escrowDomain.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var expirable []*escrowDomain.Request
	for _, request := range m.requests {
		if request.State.IsTerminal() {
			continue
		}
		if request.IsExpired(now) {
			expirable = append(expirable, cloneRequest(request))
		}
	}
	return expirable, nil
}

// CountByState returns the number of requests in each state.
func (m *MemoryEscrowRepository) CountByState(ctx context.Context) (map[escrowDomain.State]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[escrowDomain.State]uint64)
	for _, request := range m.requests {
		counts[request.State]++
	}
	return counts, nil
}

func cloneRequest(request *escrowDomain.Request) *escrowDomain.Request {
	clone := *request
	clone.TargetEnvelope = slices.Clone(request.TargetEnvelope)
	clone.Approvals = slices.Clone(request.Approvals)
	return &clone
}

// NewMemoryEscrowRepository creates a new in-memory escrow repository.
func NewMemoryEscrowRepository() *MemoryEscrowRepository {
	return &MemoryEscrowRepository{requests: make(map[uuid.UUID]*escrowDomain.Request)}
}
