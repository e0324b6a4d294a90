package usecase

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	auditRepository "github.com/kbalijepalli/dreas/internal/audit/repository"
	auditUseCase "github.com/kbalijepalli/dreas/internal/audit/usecase"
	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
	cryptoService "github.com/kbalijepalli/dreas/internal/crypto/service"
	"github.com/kbalijepalli/dreas/internal/database"
	apperrors "github.com/kbalijepalli/dreas/internal/errors"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
	escrowRepository "github.com/kbalijepalli/dreas/internal/escrow/repository"
	escrowUseCase "github.com/kbalijepalli/dreas/internal/escrow/usecase"
	identityDomain "github.com/kbalijepalli/dreas/internal/identity/domain"
	identityService "github.com/kbalijepalli/dreas/internal/identity/service"
	identityUseCase "github.com/kbalijepalli/dreas/internal/identity/usecase"
)

// securityFixture wires the full stack on memory stores and a local keeper.
type securityFixture struct {
	useCase SecurityUseCase
	ledger  auditUseCase.LedgerUseCase
	tokens  map[string]string // principal -> plain token
}

func (f *securityFixture) token(principal string) string {
	return f.tokens[principal]
}

// Principals:
//
//	alice  operator  encrypt|decrypt|escrow-redeem  orders/*
//	bob    approver  escrow-approve                 (none)
//	carol  approver  escrow-approve                 (none)
//	dave   auditor   audit-read                     (none)
//	mallory intern   encrypt                        hr/*
func newSecurityFixture(t *testing.T) *securityFixture {
	t.Helper()

	tokenService := identityService.NewTokenService()
	grants := []struct {
		principal    string
		role         string
		capabilities string
		policies     string
	}{
		{"alice", "operator", "encrypt|decrypt|escrow-redeem", "orders/*"},
		{"bob", "approver", "escrow-approve", ""},
		{"carol", "approver", "escrow-approve", ""},
		{"dave", "auditor", "audit-read", ""},
		{"mallory", "intern", "encrypt", "hr/*"},
	}

	tokens := make(map[string]string, len(grants))
	var entries []string
	for _, grant := range grants {
		plainToken, tokenHash, err := tokenService.GenerateToken()
		require.NoError(t, err)
		tokens[grant.principal] = plainToken
		entries = append(entries, fmt.Sprintf(
			"%s:%s:%s:%s:%s",
			grant.principal, grant.role, grant.capabilities, grant.policies, tokenHash,
		))
	}

	resolver, err := identityService.NewStaticResolver(tokenService, strings.Join(entries, ";"))
	require.NoError(t, err)
	guard := identityUseCase.NewGuardUseCase(resolver)

	masterKey := make([]byte, 32)
	_, err = rand.Read(masterKey)
	require.NoError(t, err)
	keyURI := "base64key://" + base64.URLEncoding.EncodeToString(masterKey)
	chain, err := cryptoDomain.ParseKeyHandleChain("primary="+keyURI, "primary")
	require.NoError(t, err)

	keyProvider := cryptoService.NewKeyProvider(cryptoService.NewKMSService(), chain, 5*time.Second)
	t.Cleanup(func() { _ = keyProvider.Close() })
	codec := cryptoService.NewEnvelopeCodec(cryptoService.NewAEADManager(), cryptoDomain.AESGCM)

	escrow := escrowUseCase.NewEscrowUseCase(
		escrowRepository.NewMemoryEscrowRepository(), keyProvider, codec, 2, time.Hour)
	ledger := auditUseCase.NewLedgerUseCase(
		auditRepository.NewMemoryLedgerRepository(), database.NewNoopTxManager())

	return &securityFixture{
		useCase: NewSecurityUseCase(guard, keyProvider, codec, escrow, ledger),
		ledger:  ledger,
		tokens:  tokens,
	}
}

// lastEntry returns the newest ledger entry.
func (f *securityFixture) lastEntry(t *testing.T) *auditDomain.Entry {
	t.Helper()
	entries, err := f.ledger.Query(context.Background(), &auditDomain.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	return entries[len(entries)-1]
}

func TestSecurityUseCaseProtectAndReveal(t *testing.T) {
	ctx := context.Background()
	plaintext := []byte("cardholder record")

	t.Run("round trip", func(t *testing.T) {
		fixture := newSecurityFixture(t)

		output, err := fixture.useCase.Protect(ctx, fixture.token("alice"), plaintext, "orders/payments")
		require.NoError(t, err)
		assert.Equal(t, "primary", output.KeyHandleID)
		assert.NotEmpty(t, output.Ref)

		entry := fixture.lastEntry(t)
		assert.Equal(t, auditDomain.ProtectOperation, entry.Operation)
		assert.Equal(t, auditDomain.SuccessOutcome, entry.Outcome)
		assert.Equal(t, "alice", entry.Principal)
		assert.Equal(t, output.Ref, entry.TargetRef)

		revealed, err := fixture.useCase.Reveal(ctx, fixture.token("alice"), output.Envelope)
		require.NoError(t, err)
		assert.Equal(t, plaintext, revealed)

		entry = fixture.lastEntry(t)
		assert.Equal(t, auditDomain.RevealOperation, entry.Operation)
		assert.Equal(t, auditDomain.SuccessOutcome, entry.Outcome)
	})

	t.Run("unknown token", func(t *testing.T) {
		fixture := newSecurityFixture(t)

		_, err := fixture.useCase.Protect(ctx, "bogus", plaintext, "orders/payments")
		assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
	})

	t.Run("missing capability is denied and audited", func(t *testing.T) {
		fixture := newSecurityFixture(t)

		_, err := fixture.useCase.Protect(ctx, fixture.token("bob"), plaintext, "orders/payments")
		assert.ErrorIs(t, err, identityDomain.ErrAccessDenied)

		entry := fixture.lastEntry(t)
		assert.Equal(t, auditDomain.DeniedOutcome, entry.Outcome)
		assert.Equal(t, "bob", entry.Principal)
	})

	t.Run("policy mismatch on reveal is denied", func(t *testing.T) {
		fixture := newSecurityFixture(t)

		output, err := fixture.useCase.Protect(ctx, fixture.token("alice"), plaintext, "orders/payments")
		require.NoError(t, err)

		// mallory can encrypt under hr/* but holds no grant for orders/*.
		_, err = fixture.useCase.Protect(ctx, fixture.token("mallory"), plaintext, "orders/payments")
		assert.ErrorIs(t, err, identityDomain.ErrAccessDenied)

		_, err = fixture.useCase.Reveal(ctx, fixture.token("mallory"), output.Envelope)
		assert.ErrorIs(t, err, identityDomain.ErrAccessDenied)
	})

	t.Run("tampered envelope fails integrity and is audited", func(t *testing.T) {
		fixture := newSecurityFixture(t)

		output, err := fixture.useCase.Protect(ctx, fixture.token("alice"), plaintext, "orders/payments")
		require.NoError(t, err)

		tampered := append([]byte(nil), output.Envelope...)
		tampered[len(tampered)-1] ^= 0x01

		_, err = fixture.useCase.Reveal(ctx, fixture.token("alice"), tampered)
		require.Error(t, err)

		entry := fixture.lastEntry(t)
		assert.Equal(t, auditDomain.RevealOperation, entry.Operation)
		assert.Equal(t, auditDomain.ErrorOutcome, entry.Outcome)
	})
}

func TestSecurityUseCaseEscrowLifecycle(t *testing.T) {
	ctx := context.Background()
	plaintext := []byte("break-glass payload")

	fixture := newSecurityFixture(t)

	output, err := fixture.useCase.Protect(ctx, fixture.token("alice"), plaintext, "orders/payments")
	require.NoError(t, err)

	request, err := fixture.useCase.InitiateEscrow(
		ctx, fixture.token("alice"), output.Envelope, "primary operator unreachable")
	require.NoError(t, err)
	assert.Equal(t, escrowDomain.PendingState, request.State)
	assert.Equal(t, "alice", request.Requester)

	entry := fixture.lastEntry(t)
	assert.Equal(t, auditDomain.EscrowInitiateOperation, entry.Operation)
	assert.Equal(t, request.ID.String(), entry.TargetRef)

	// The requester cannot vote, and bob cannot redeem before approval.
	_, err = fixture.useCase.ApproveEscrow(ctx, fixture.token("alice"), request.ID)
	assert.ErrorIs(t, err, identityDomain.ErrAccessDenied)

	_, _, err = fixture.useCase.RedeemEscrow(ctx, fixture.token("alice"), request.ID)
	assert.ErrorIs(t, err, escrowDomain.ErrNotApproved)

	_, err = fixture.useCase.ApproveEscrow(ctx, fixture.token("bob"), request.ID)
	require.NoError(t, err)

	_, err = fixture.useCase.ApproveEscrow(ctx, fixture.token("bob"), request.ID)
	assert.ErrorIs(t, err, escrowDomain.ErrDuplicateApprover)

	approvedRequest, err := fixture.useCase.ApproveEscrow(ctx, fixture.token("carol"), request.ID)
	require.NoError(t, err)
	assert.Equal(t, escrowDomain.ApprovedState, approvedRequest.State)

	released, redeemedRequest, err := fixture.useCase.RedeemEscrow(
		ctx, fixture.token("alice"), request.ID)
	require.NoError(t, err)
	assert.Equal(t, plaintext, released)
	assert.Equal(t, escrowDomain.RedeemedState, redeemedRequest.State)

	entry = fixture.lastEntry(t)
	assert.Equal(t, auditDomain.EscrowRedeemOperation, entry.Operation)
	assert.Equal(t, auditDomain.SuccessOutcome, entry.Outcome)

	// Single use: the second redemption fails and the failure is audited.
	_, _, err = fixture.useCase.RedeemEscrow(ctx, fixture.token("alice"), request.ID)
	assert.ErrorIs(t, err, escrowDomain.ErrAlreadyTerminal)

	entry = fixture.lastEntry(t)
	assert.Equal(t, auditDomain.EscrowRedeemOperation, entry.Operation)
	assert.Equal(t, auditDomain.ErrorOutcome, entry.Outcome)

	stored, err := fixture.useCase.GetEscrow(ctx, fixture.token("bob"), request.ID)
	require.NoError(t, err)
	assert.Equal(t, escrowDomain.RedeemedState, stored.State)
	assert.Len(t, stored.Approvals, 2)
}

func TestSecurityUseCaseDenyEscrow(t *testing.T) {
	ctx := context.Background()

	fixture := newSecurityFixture(t)

	output, err := fixture.useCase.Protect(
		ctx, fixture.token("alice"), []byte("payload"), "orders/payments")
	require.NoError(t, err)

	request, err := fixture.useCase.InitiateEscrow(
		ctx, fixture.token("alice"), output.Envelope, "suspicious request")
	require.NoError(t, err)

	denied, err := fixture.useCase.DenyEscrow(ctx, fixture.token("bob"), request.ID)
	require.NoError(t, err)
	assert.Equal(t, escrowDomain.DeniedState, denied.State)

	entry := fixture.lastEntry(t)
	assert.Equal(t, auditDomain.EscrowDenyOperation, entry.Operation)

	_, _, err = fixture.useCase.RedeemEscrow(ctx, fixture.token("alice"), request.ID)
	assert.ErrorIs(t, err, escrowDomain.ErrAlreadyTerminal)
}

func TestSecurityUseCaseAuditAccess(t *testing.T) {
	ctx := context.Background()

	fixture := newSecurityFixture(t)

	_, err := fixture.useCase.Protect(
		ctx, fixture.token("alice"), []byte("payload"), "orders/payments")
	require.NoError(t, err)

	t.Run("requires the audit-read capability", func(t *testing.T) {
		_, err := fixture.useCase.AuditQuery(ctx, fixture.token("alice"), &auditDomain.Filter{})
		assert.ErrorIs(t, err, identityDomain.ErrAccessDenied)
	})

	t.Run("query is itself recorded", func(t *testing.T) {
		entries, err := fixture.useCase.AuditQuery(ctx, fixture.token("dave"), &auditDomain.Filter{})
		require.NoError(t, err)
		assert.NotEmpty(t, entries)

		entry := fixture.lastEntry(t)
		assert.Equal(t, auditDomain.AuditQueryOperation, entry.Operation)
		assert.Equal(t, "dave", entry.Principal)
	})

	t.Run("report aggregates by operation", func(t *testing.T) {
		report, err := fixture.useCase.AuditReport(ctx, fixture.token("dave"), &auditDomain.Filter{})
		require.NoError(t, err)
		assert.NotZero(t, report.TotalEntries)
		assert.NotZero(t, report.ByOperation[auditDomain.ProtectOperation])
	})

	t.Run("chain verifies end to end", func(t *testing.T) {
		verified, err := fixture.useCase.VerifyAuditChain(ctx, fixture.token("dave"), 0, 0)
		require.NoError(t, err)
		assert.NotZero(t, verified)
	})
}

// failingLedger simulates an unreachable audit store.
type failingLedger struct {
	auditUseCase.LedgerUseCase
}

func (f *failingLedger) Append(
	ctx context.Context,
	input *auditUseCase.AppendInput,
) (*auditDomain.Entry, error) {
	return nil, auditDomain.ErrAuditUnavailable
}

func TestSecurityUseCaseFailsClosedWithoutLedger(t *testing.T) {
	ctx := context.Background()

	fixture := newSecurityFixture(t)
	useCase := fixture.useCase.(*securityUseCase)
	useCase.ledger = &failingLedger{}

	_, err := useCase.Protect(ctx, fixture.token("alice"), []byte("payload"), "orders/payments")
	assert.ErrorIs(t, err, auditDomain.ErrAuditUnavailable)
}
