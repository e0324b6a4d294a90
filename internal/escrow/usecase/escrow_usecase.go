package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
	cryptoService "github.com/kbalijepalli/dreas/internal/crypto/service"
	apperrors "github.com/kbalijepalli/dreas/internal/errors"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
)

// escrowUseCase implements EscrowUseCase.
//
// Operations on a single request are serialized with a per-request mutex so
// approval counting and redemption are race-free within the process. The
// repository's compare-and-swap transitions backstop multi-process races.
//
// Expiry is lazy: any operation that touches a request past its TTL first
// transitions it to expired. An approved request that expired before
// redemption is no longer redeemable.
type escrowUseCase struct {
	repository  EscrowRepository
	keyProvider cryptoService.KeyProvider
	codec       cryptoService.EnvelopeCodec
	threshold   int
	requestTTL  time.Duration

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex

	now func() time.Time
}

// NewEscrowUseCase creates a new EscrowUseCase with the provided dependencies.
func NewEscrowUseCase(
	repository EscrowRepository,
	keyProvider cryptoService.KeyProvider,
	codec cryptoService.EnvelopeCodec,
	threshold int,
	requestTTL time.Duration,
) EscrowUseCase {
	return &escrowUseCase{
		repository:  repository,
		keyProvider: keyProvider,
		codec:       codec,
		threshold:   threshold,
		requestTTL:  requestTTL,
		locks:       make(map[uuid.UUID]*sync.Mutex),
		now:         time.Now,
	}
}

func (e *escrowUseCase) lockRequest(id uuid.UUID) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[id] = lock
	}
	return lock
}

// Initiate opens a new escrow request for the given envelope.
func (e *escrowUseCase) Initiate(
	ctx context.Context,
	input *InitiateInput,
) (*escrowDomain.Request, error) {
	env, err := cryptoDomain.UnmarshalEnvelope(input.Envelope)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", escrowDomain.ErrInvalidTarget, err)
	}

	now := e.now().UTC()
	request := &escrowDomain.Request{
		ID:             uuid.Must(uuid.NewV7()),
		Requester:      input.Requester,
		Justification:  input.Justification,
		TargetRef:      env.Ref(),
		TargetEnvelope: input.Envelope,
		PolicyTag:      env.PolicyTag,
		Threshold:      e.threshold,
		State:          escrowDomain.PendingState,
		CreatedAt:      now,
		ExpiresAt:      now.Add(e.requestTTL),
		UpdatedAt:      now,
	}

	if err := e.repository.Create(ctx, request); err != nil {
		return nil, storeError(err)
	}
	return request, nil
}

// Approve records one approver's vote on a pending request.
func (e *escrowUseCase) Approve(
	ctx context.Context,
	approver string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	lock := e.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	request, err := e.repository.Get(ctx, requestID)
	if err != nil {
		return nil, storeError(err)
	}

	if expired, err := e.expireIfPast(ctx, request); err != nil {
		return nil, err
	} else if expired {
		return request, escrowDomain.ErrRequestExpired
	}

	switch request.State {
	case escrowDomain.PendingState:
	case escrowDomain.ApprovedState:
		return nil, escrowDomain.ErrAlreadyApproved
	default:
		return nil, escrowDomain.ErrAlreadyTerminal
	}

	if approver == request.Requester {
		return nil, escrowDomain.ErrSelfApprovalDenied
	}
	if request.HasApprover(approver) {
		return nil, escrowDomain.ErrDuplicateApprover
	}

	now := e.now().UTC()
	approval := escrowDomain.Approval{Approver: approver, ApprovedAt: now}
	if err := e.repository.AddApproval(ctx, requestID, approval); err != nil {
		return nil, storeError(err)
	}
	request.Approvals = append(request.Approvals, approval)
	request.UpdatedAt = now

	if request.ThresholdMet() {
		err := e.repository.CompareAndSwapState(
			ctx, requestID, escrowDomain.PendingState, escrowDomain.ApprovedState, now)
		if err != nil {
			return nil, storeError(err)
		}
		request.State = escrowDomain.ApprovedState
	}

	return request, nil
}

// Deny rejects a non-terminal request.
func (e *escrowUseCase) Deny(
	ctx context.Context,
	approver string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	lock := e.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	request, err := e.repository.Get(ctx, requestID)
	if err != nil {
		return nil, storeError(err)
	}

	if expired, err := e.expireIfPast(ctx, request); err != nil {
		return nil, err
	} else if expired {
		return request, escrowDomain.ErrRequestExpired
	}

	if request.State.IsTerminal() {
		return nil, escrowDomain.ErrAlreadyTerminal
	}

	now := e.now().UTC()
	err = e.repository.CompareAndSwapState(ctx, requestID, request.State, escrowDomain.DeniedState, now)
	if err != nil {
		return nil, storeError(err)
	}
	request.State = escrowDomain.DeniedState
	request.UpdatedAt = now

	return request, nil
}

// Redeem releases the plaintext of an approved request exactly once.
//
// The envelope is decrypted before the state transition: a decryption
// failure leaves the request approved so redemption can be retried, while
// the compare-and-swap to redeemed ensures at most one successful release.
func (e *escrowUseCase) Redeem(
	ctx context.Context,
	redeemer string,
	requestID uuid.UUID,
) ([]byte, *escrowDomain.Request, error) {
	lock := e.lockRequest(requestID)
	lock.Lock()
	defer lock.Unlock()

	request, err := e.repository.Get(ctx, requestID)
	if err != nil {
		return nil, nil, storeError(err)
	}

	if expired, err := e.expireIfPast(ctx, request); err != nil {
		return nil, nil, err
	} else if expired {
		return nil, request, escrowDomain.ErrRequestExpired
	}

	switch request.State {
	case escrowDomain.ApprovedState:
	case escrowDomain.PendingState:
		return nil, nil, escrowDomain.ErrNotApproved
	default:
		return nil, nil, escrowDomain.ErrAlreadyTerminal
	}

	env, err := cryptoDomain.UnmarshalEnvelope(request.TargetEnvelope)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", escrowDomain.ErrInvalidTarget, err)
	}

	dek, err := e.keyProvider.UnwrapDek(ctx, env.KeyHandleID, env.WrappedDek)
	if err != nil {
		return nil, nil, err
	}
	defer cryptoDomain.Zero(dek)

	plaintext, err := e.codec.Open(dek, env)
	if err != nil {
		return nil, nil, err
	}

	now := e.now().UTC()
	err = e.repository.CompareAndSwapState(
		ctx, requestID, escrowDomain.ApprovedState, escrowDomain.RedeemedState, now)
	if err != nil {
		cryptoDomain.Zero(plaintext)
		return nil, nil, storeError(err)
	}
	request.State = escrowDomain.RedeemedState
	request.UpdatedAt = now

	return plaintext, request, nil
}

// Get retrieves a request by identifier.
func (e *escrowUseCase) Get(ctx context.Context, requestID uuid.UUID) (*escrowDomain.Request, error) {
	request, err := e.repository.Get(ctx, requestID)
	if err != nil {
		return nil, storeError(err)
	}
	return request, nil
}

// List returns requests matching the filter, newest first.
func (e *escrowUseCase) List(
	ctx context.Context,
	filter escrowDomain.Filter,
) ([]*escrowDomain.Request, error) {
	requests, err := e.repository.List(ctx, filter)
	if err != nil {
		return nil, storeError(err)
	}
	return requests, nil
}

// SweepExpired transitions all requests past their TTL to expired.
func (e *escrowUseCase) SweepExpired(ctx context.Context) (int, error) {
	now := e.now().UTC()
	expirable, err := e.repository.ListExpirable(ctx, now)
	if err != nil {
		return 0, storeError(err)
	}

	swept := 0
	for _, request := range expirable {
		lock := e.lockRequest(request.ID)
		lock.Lock()
		err := e.repository.CompareAndSwapState(
			ctx, request.ID, request.State, escrowDomain.ExpiredState, now)
		lock.Unlock()
		if err != nil {
			// A concurrent transition already moved the request on.
			if apperrors.Is(err, escrowDomain.ErrStaleState) {
				continue
			}
			return swept, storeError(err)
		}
		swept++
	}
	return swept, nil
}

// Stats summarizes requests by state.
func (e *escrowUseCase) Stats(ctx context.Context) (*escrowDomain.Stats, error) {
	counts, err := e.repository.CountByState(ctx)
	if err != nil {
		return nil, storeError(err)
	}

	stats := &escrowDomain.Stats{ByState: counts}
	for _, count := range counts {
		stats.Total += count
	}
	return stats, nil
}

// expireIfPast transitions a non-terminal request past its TTL to expired.
// It reports whether the request is expired.
func (e *escrowUseCase) expireIfPast(ctx context.Context, request *escrowDomain.Request) (bool, error) {
	if request.State.IsTerminal() {
		if request.State == escrowDomain.ExpiredState {
			return true, nil
		}
		return false, nil
	}
	if !request.IsExpired(e.now().UTC()) {
		return false, nil
	}

	now := e.now().UTC()
	err := e.repository.CompareAndSwapState(
		ctx, request.ID, request.State, escrowDomain.ExpiredState, now)
	if err != nil && !apperrors.Is(err, escrowDomain.ErrStaleState) {
		return false, storeError(err)
	}
	request.State = escrowDomain.ExpiredState
	request.UpdatedAt = now
	return true, nil
}

// storeError passes domain conflicts through and reports everything else as
// the store being unavailable.
func storeError(err error) error {
	if apperrors.Is(err, apperrors.ErrNotFound) ||
		apperrors.Is(err, apperrors.ErrConflict) ||
		apperrors.Is(err, apperrors.ErrForbidden) ||
		apperrors.Is(err, apperrors.ErrInvalidInput) {
		return err
	}
	return fmt.Errorf("%w: %v", escrowDomain.ErrEscrowUnavailable, err)
}
