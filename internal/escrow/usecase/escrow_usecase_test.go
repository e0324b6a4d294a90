package usecase

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
	cryptoService "github.com/kbalijepalli/dreas/internal/crypto/service"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
	escrowRepository "github.com/kbalijepalli/dreas/internal/escrow/repository"
)

// stubKeyProvider returns a fixed data key for a single handle id.
type stubKeyProvider struct {
	handleID  string
	dek       []byte
	unwrapErr error
}

func (s *stubKeyProvider) GenerateDek(ctx context.Context) ([]byte, []byte, string, error) {
	dek := make([]byte, len(s.dek))
	copy(dek, s.dek)
	return dek, []byte("wrapped"), s.handleID, nil
}

func (s *stubKeyProvider) UnwrapDek(ctx context.Context, keyHandleID string, wrapped []byte) ([]byte, error) {
	if s.unwrapErr != nil {
		return nil, s.unwrapErr
	}
	if keyHandleID != s.handleID {
		return nil, cryptoDomain.ErrKeyNotFound
	}
	dek := make([]byte, len(s.dek))
	copy(dek, s.dek)
	return dek, nil
}

func (s *stubKeyProvider) Close() error {
	return nil
}

type escrowFixture struct {
	useCase  *escrowUseCase
	provider *stubKeyProvider
	codec    cryptoService.EnvelopeCodec
	now      time.Time
}

func (f *escrowFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// sealedEnvelope builds a marshaled envelope the fixture's provider can
// redeem.
func (f *escrowFixture) sealedEnvelope(t *testing.T, plaintext []byte, policyTag string) []byte {
	t.Helper()

	env, err := f.codec.Seal(f.provider.dek, plaintext, policyTag)
	require.NoError(t, err)
	env.KeyHandleID = f.provider.handleID
	env.WrappedDek = []byte("wrapped")

	data, err := env.MarshalBinary()
	require.NoError(t, err)
	return data
}

func newEscrowFixture(t *testing.T, threshold int, ttl time.Duration) *escrowFixture {
	t.Helper()

	dek := make([]byte, cryptoDomain.DekSize)
	_, err := rand.Read(dek)
	require.NoError(t, err)

	provider := &stubKeyProvider{handleID: "primary", dek: dek}
	codec := cryptoService.NewEnvelopeCodec(cryptoService.NewAEADManager(), cryptoDomain.AESGCM)

	fixture := &escrowFixture{
		provider: provider,
		codec:    codec,
		now:      time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	useCase := NewEscrowUseCase(
		escrowRepository.NewMemoryEscrowRepository(), provider, codec, threshold, ttl)
	fixture.useCase = useCase.(*escrowUseCase)
	fixture.useCase.now = func() time.Time { return fixture.now }

	return fixture
}

func TestEscrowUseCaseInitiate(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a pending request", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		envelope := fixture.sealedEnvelope(t, []byte("break-glass payload"), "orders/payments")

		request, err := fixture.useCase.Initiate(ctx, &InitiateInput{
			Requester:     "alice",
			Justification: "regional outage, primary operator unreachable",
			Envelope:      envelope,
		})
		require.NoError(t, err)

		assert.Equal(t, escrowDomain.PendingState, request.State)
		assert.Equal(t, "alice", request.Requester)
		assert.Equal(t, "orders/payments", request.PolicyTag)
		assert.Equal(t, 2, request.Threshold)
		assert.NotEmpty(t, request.TargetRef)
		assert.Equal(t, fixture.now.Add(time.Hour), request.ExpiresAt)
		assert.Empty(t, request.Approvals)
	})

	t.Run("rejects an unparseable target", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)

		_, err := fixture.useCase.Initiate(ctx, &InitiateInput{
			Requester: "alice",
			Envelope:  []byte("not an envelope"),
		})
		assert.ErrorIs(t, err, escrowDomain.ErrInvalidTarget)
	})
}

func TestEscrowUseCaseApprove(t *testing.T) {
	ctx := context.Background()

	initiate := func(t *testing.T, fixture *escrowFixture) *escrowDomain.Request {
		t.Helper()
		envelope := fixture.sealedEnvelope(t, []byte("payload"), "orders/payments")
		request, err := fixture.useCase.Initiate(ctx, &InitiateInput{
			Requester: "alice",
			Envelope:  envelope,
		})
		require.NoError(t, err)
		return request
	}

	t.Run("reaches the threshold with distinct approvers", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		request := initiate(t, fixture)

		updated, err := fixture.useCase.Approve(ctx, "bob", request.ID)
		require.NoError(t, err)
		assert.Equal(t, escrowDomain.PendingState, updated.State)
		assert.Len(t, updated.Approvals, 1)

		updated, err = fixture.useCase.Approve(ctx, "carol", request.ID)
		require.NoError(t, err)
		assert.Equal(t, escrowDomain.ApprovedState, updated.State)
		assert.Len(t, updated.Approvals, 2)
	})

	t.Run("rejects self approval", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		request := initiate(t, fixture)

		_, err := fixture.useCase.Approve(ctx, "alice", request.ID)
		assert.ErrorIs(t, err, escrowDomain.ErrSelfApprovalDenied)
	})

	t.Run("rejects a duplicate approver", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		request := initiate(t, fixture)

		_, err := fixture.useCase.Approve(ctx, "bob", request.ID)
		require.NoError(t, err)

		_, err = fixture.useCase.Approve(ctx, "bob", request.ID)
		assert.ErrorIs(t, err, escrowDomain.ErrDuplicateApprover)
	})

	t.Run("rejects approvals past the threshold", func(t *testing.T) {
		fixture := newEscrowFixture(t, 1, time.Hour)
		request := initiate(t, fixture)

		_, err := fixture.useCase.Approve(ctx, "bob", request.ID)
		require.NoError(t, err)

		_, err = fixture.useCase.Approve(ctx, "carol", request.ID)
		assert.ErrorIs(t, err, escrowDomain.ErrAlreadyApproved)
	})

	t.Run("expires a pending request past its ttl", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		request := initiate(t, fixture)

		fixture.advance(2 * time.Hour)

		_, err := fixture.useCase.Approve(ctx, "bob", request.ID)
		assert.ErrorIs(t, err, escrowDomain.ErrRequestExpired)

		stored, err := fixture.useCase.Get(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, escrowDomain.ExpiredState, stored.State)
	})

	t.Run("unknown request", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		request := initiate(t, fixture)
		fixture2 := newEscrowFixture(t, 2, time.Hour)

		_, err := fixture2.useCase.Approve(ctx, "bob", request.ID)
		assert.ErrorIs(t, err, escrowDomain.ErrRequestNotFound)
	})
}

func TestEscrowUseCaseDeny(t *testing.T) {
	ctx := context.Background()

	fixture := newEscrowFixture(t, 2, time.Hour)
	envelope := fixture.sealedEnvelope(t, []byte("payload"), "orders/payments")
	request, err := fixture.useCase.Initiate(ctx, &InitiateInput{
		Requester: "alice",
		Envelope:  envelope,
	})
	require.NoError(t, err)

	denied, err := fixture.useCase.Deny(ctx, "bob", request.ID)
	require.NoError(t, err)
	assert.Equal(t, escrowDomain.DeniedState, denied.State)

	_, err = fixture.useCase.Deny(ctx, "carol", request.ID)
	assert.ErrorIs(t, err, escrowDomain.ErrAlreadyTerminal)

	_, err = fixture.useCase.Approve(ctx, "carol", request.ID)
	assert.ErrorIs(t, err, escrowDomain.ErrAlreadyTerminal)
}

func TestEscrowUseCaseRedeem(t *testing.T) {
	ctx := context.Background()
	plaintext := []byte("break-glass payload")

	approved := func(t *testing.T, fixture *escrowFixture) *escrowDomain.Request {
		t.Helper()
		envelope := fixture.sealedEnvelope(t, plaintext, "orders/payments")
		request, err := fixture.useCase.Initiate(ctx, &InitiateInput{
			Requester: "alice",
			Envelope:  envelope,
		})
		require.NoError(t, err)
		_, err = fixture.useCase.Approve(ctx, "bob", request.ID)
		require.NoError(t, err)
		_, err = fixture.useCase.Approve(ctx, "carol", request.ID)
		require.NoError(t, err)
		return request
	}

	t.Run("releases the plaintext exactly once", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		request := approved(t, fixture)

		released, redeemed, err := fixture.useCase.Redeem(ctx, "alice", request.ID)
		require.NoError(t, err)
		assert.Equal(t, plaintext, released)
		assert.Equal(t, escrowDomain.RedeemedState, redeemed.State)

		_, _, err = fixture.useCase.Redeem(ctx, "alice", request.ID)
		assert.ErrorIs(t, err, escrowDomain.ErrAlreadyTerminal)
	})

	t.Run("rejects redemption before approval", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		envelope := fixture.sealedEnvelope(t, plaintext, "orders/payments")
		request, err := fixture.useCase.Initiate(ctx, &InitiateInput{
			Requester: "alice",
			Envelope:  envelope,
		})
		require.NoError(t, err)

		_, _, err = fixture.useCase.Redeem(ctx, "alice", request.ID)
		assert.ErrorIs(t, err, escrowDomain.ErrNotApproved)
	})

	t.Run("an approved request past its ttl is not redeemable", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		request := approved(t, fixture)

		fixture.advance(2 * time.Hour)

		_, _, err := fixture.useCase.Redeem(ctx, "alice", request.ID)
		assert.ErrorIs(t, err, escrowDomain.ErrRequestExpired)

		stored, err := fixture.useCase.Get(ctx, request.ID)
		require.NoError(t, err)
		assert.Equal(t, escrowDomain.ExpiredState, stored.State)
	})

	t.Run("a failed unwrap leaves the request approved", func(t *testing.T) {
		fixture := newEscrowFixture(t, 2, time.Hour)
		request := approved(t, fixture)

		fixture.provider.unwrapErr = cryptoDomain.ErrKeyUnavailable
		_, _, err := fixture.useCase.Redeem(ctx, "alice", request.ID)
		assert.ErrorIs(t, err, cryptoDomain.ErrKeyUnavailable)

		fixture.provider.unwrapErr = nil
		released, _, err := fixture.useCase.Redeem(ctx, "alice", request.ID)
		require.NoError(t, err)
		assert.Equal(t, plaintext, released)
	})
}

func TestEscrowUseCaseSweepExpired(t *testing.T) {
	ctx := context.Background()

	fixture := newEscrowFixture(t, 2, time.Hour)
	for range 3 {
		envelope := fixture.sealedEnvelope(t, []byte("payload"), "orders/payments")
		_, err := fixture.useCase.Initiate(ctx, &InitiateInput{
			Requester: "alice",
			Envelope:  envelope,
		})
		require.NoError(t, err)
	}

	swept, err := fixture.useCase.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	fixture.advance(2 * time.Hour)

	swept, err = fixture.useCase.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, swept)

	swept, err = fixture.useCase.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, swept)

	requests, err := fixture.useCase.List(ctx, escrowDomain.Filter{State: escrowDomain.ExpiredState})
	require.NoError(t, err)
	assert.Len(t, requests, 3)
}

func TestEscrowUseCaseStats(t *testing.T) {
	ctx := context.Background()

	fixture := newEscrowFixture(t, 1, time.Hour)

	envelope := fixture.sealedEnvelope(t, []byte("payload"), "orders/payments")
	pending, err := fixture.useCase.Initiate(ctx, &InitiateInput{Requester: "alice", Envelope: envelope})
	require.NoError(t, err)

	envelope = fixture.sealedEnvelope(t, []byte("payload"), "orders/payments")
	_, err = fixture.useCase.Initiate(ctx, &InitiateInput{Requester: "alice", Envelope: envelope})
	require.NoError(t, err)

	_, err = fixture.useCase.Approve(ctx, "bob", pending.ID)
	require.NoError(t, err)

	stats, err := fixture.useCase.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), stats.Total)
	assert.Equal(t, uint64(1), stats.ByState[escrowDomain.PendingState])
	assert.Equal(t, uint64(1), stats.ByState[escrowDomain.ApprovedState])
}
