package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	auditUseCase "github.com/kbalijepalli/dreas/internal/audit/usecase"
	cryptoDomain "github.com/kbalijepalli/dreas/internal/crypto/domain"
	cryptoService "github.com/kbalijepalli/dreas/internal/crypto/service"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
	escrowUseCase "github.com/kbalijepalli/dreas/internal/escrow/usecase"
	identityDomain "github.com/kbalijepalli/dreas/internal/identity/domain"
	identityUseCase "github.com/kbalijepalli/dreas/internal/identity/usecase"
)

// securityUseCase implements SecurityUseCase.
//
// Every operation runs guard, work, ledger in that order. A denied grant is
// recorded with a denied outcome before the denial is returned, and a ledger
// append failure aborts the operation: results are discarded and plaintext
// is zeroed rather than released unaudited. Authentication failures are not
// recorded because they carry no attributable principal.
type securityUseCase struct {
	guard       identityUseCase.GuardUseCase
	keyProvider cryptoService.KeyProvider
	codec       cryptoService.EnvelopeCodec
	escrow      escrowUseCase.EscrowUseCase
	ledger      auditUseCase.LedgerUseCase
}

// NewSecurityUseCase creates a new SecurityUseCase with the provided
// dependencies.
func NewSecurityUseCase(
	guard identityUseCase.GuardUseCase,
	keyProvider cryptoService.KeyProvider,
	codec cryptoService.EnvelopeCodec,
	escrow escrowUseCase.EscrowUseCase,
	ledger auditUseCase.LedgerUseCase,
) SecurityUseCase {
	return &securityUseCase{
		guard:       guard,
		keyProvider: keyProvider,
		codec:       codec,
		escrow:      escrow,
		ledger:      ledger,
	}
}

// record appends an entry to the ledger. The Append implementation reports
// any failure as ErrAuditUnavailable, which callers return as-is to fail
// closed.
func (s *securityUseCase) record(
	ctx context.Context,
	principal string,
	operation auditDomain.Operation,
	outcome auditDomain.Outcome,
	targetRef, detail string,
) error {
	_, err := s.ledger.Append(ctx, &auditUseCase.AppendInput{
		Principal: principal,
		Operation: operation,
		Outcome:   outcome,
		TargetRef: targetRef,
		Detail:    detail,
	})
	return err
}

// finish records the operation's outcome and returns the operation error,
// unless the ledger append itself fails.
func (s *securityUseCase) finish(
	ctx context.Context,
	principal string,
	operation auditDomain.Operation,
	targetRef, detail string,
	opErr error,
) error {
	outcome := auditDomain.SuccessOutcome
	if opErr != nil {
		outcome = auditDomain.ErrorOutcome
		detail = opErr.Error()
	}
	if err := s.record(ctx, principal, operation, outcome, targetRef, detail); err != nil {
		return err
	}
	return opErr
}

// deny records a denied attempt and returns the denial.
func (s *securityUseCase) deny(
	ctx context.Context,
	principal string,
	operation auditDomain.Operation,
	targetRef string,
	denial error,
) error {
	if err := s.record(
		ctx, principal, operation, auditDomain.DeniedOutcome, targetRef, denial.Error(),
	); err != nil {
		return err
	}
	return denial
}

// checkAnyCapability passes when the identity holds at least one of the
// capabilities.
func (s *securityUseCase) checkAnyCapability(
	identity *identityDomain.Identity,
	capabilities ...identityDomain.Capability,
) error {
	var err error
	for _, capability := range capabilities {
		if err = s.guard.CheckCapability(identity, capability); err == nil {
			return nil
		}
	}
	return err
}

// Protect seals a payload under a fresh data key.
func (s *securityUseCase) Protect(
	ctx context.Context,
	token string,
	plaintext []byte,
	policyTag string,
) (*ProtectOutput, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckCapability(identity, identityDomain.EncryptCapability); err != nil {
		return nil, s.deny(ctx, identity.Principal, auditDomain.ProtectOperation, "", err)
	}
	if err := s.guard.CheckPolicy(identity, policyTag); err != nil {
		return nil, s.deny(ctx, identity.Principal, auditDomain.ProtectOperation, "", err)
	}

	output, err := s.seal(ctx, plaintext, policyTag)
	targetRef := ""
	if output != nil {
		targetRef = output.Ref
	}
	if err := s.finish(ctx, identity.Principal, auditDomain.ProtectOperation, targetRef, "", err); err != nil {
		return nil, err
	}
	return output, nil
}

func (s *securityUseCase) seal(
	ctx context.Context,
	plaintext []byte,
	policyTag string,
) (*ProtectOutput, error) {
	dek, wrapped, keyHandleID, err := s.keyProvider.GenerateDek(ctx)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dek)

	env, err := s.codec.Seal(dek, plaintext, policyTag)
	if err != nil {
		return nil, err
	}
	env.KeyHandleID = keyHandleID
	env.WrappedDek = wrapped

	data, err := env.MarshalBinary()
	if err != nil {
		return nil, err
	}

	return &ProtectOutput{
		Envelope:    data,
		Ref:         env.Ref(),
		KeyHandleID: keyHandleID,
	}, nil
}

// Reveal opens an envelope for a caller whose policies allow its tag.
func (s *securityUseCase) Reveal(
	ctx context.Context,
	token string,
	envelope []byte,
) ([]byte, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckCapability(identity, identityDomain.DecryptCapability); err != nil {
		return nil, s.deny(ctx, identity.Principal, auditDomain.RevealOperation, "", err)
	}

	env, err := cryptoDomain.UnmarshalEnvelope(envelope)
	if err != nil {
		if recordErr := s.finish(
			ctx, identity.Principal, auditDomain.RevealOperation, "", "", err,
		); recordErr != nil {
			return nil, recordErr
		}
		return nil, err
	}

	if err := s.guard.CheckPolicy(identity, env.PolicyTag); err != nil {
		return nil, s.deny(ctx, identity.Principal, auditDomain.RevealOperation, env.Ref(), err)
	}

	plaintext, err := s.open(ctx, env)
	if err := s.finish(ctx, identity.Principal, auditDomain.RevealOperation, env.Ref(), "", err); err != nil {
		cryptoDomain.Zero(plaintext)
		return nil, err
	}
	return plaintext, nil
}

func (s *securityUseCase) open(ctx context.Context, env *cryptoDomain.Envelope) ([]byte, error) {
	dek, err := s.keyProvider.UnwrapDek(ctx, env.KeyHandleID, env.WrappedDek)
	if err != nil {
		return nil, err
	}
	defer cryptoDomain.Zero(dek)

	return s.codec.Open(dek, env)
}

// InitiateEscrow opens a break-glass request for an envelope.
func (s *securityUseCase) InitiateEscrow(
	ctx context.Context,
	token string,
	envelope []byte,
	justification string,
) (*escrowDomain.Request, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckCapability(identity, identityDomain.EscrowRedeemCapability); err != nil {
		return nil, s.deny(ctx, identity.Principal, auditDomain.EscrowInitiateOperation, "", err)
	}

	request, err := s.escrow.Initiate(ctx, &escrowUseCase.InitiateInput{
		Requester:     identity.Principal,
		Justification: justification,
		Envelope:      envelope,
	})
	targetRef := ""
	if request != nil {
		targetRef = request.ID.String()
	}
	if err := s.finish(
		ctx, identity.Principal, auditDomain.EscrowInitiateOperation, targetRef, "", err,
	); err != nil {
		return nil, err
	}
	return request, nil
}

// ApproveEscrow records an approval vote on a request.
func (s *securityUseCase) ApproveEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckCapability(identity, identityDomain.EscrowApproveCapability); err != nil {
		return nil, s.deny(
			ctx, identity.Principal, auditDomain.EscrowApproveOperation, requestID.String(), err)
	}

	request, err := s.escrow.Approve(ctx, identity.Principal, requestID)
	if err := s.finish(
		ctx, identity.Principal, auditDomain.EscrowApproveOperation, requestID.String(), "", err,
	); err != nil {
		return nil, err
	}
	return request, nil
}

// DenyEscrow rejects a request.
func (s *securityUseCase) DenyEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckCapability(identity, identityDomain.EscrowApproveCapability); err != nil {
		return nil, s.deny(
			ctx, identity.Principal, auditDomain.EscrowDenyOperation, requestID.String(), err)
	}

	request, err := s.escrow.Deny(ctx, identity.Principal, requestID)
	if err := s.finish(
		ctx, identity.Principal, auditDomain.EscrowDenyOperation, requestID.String(), "", err,
	); err != nil {
		return nil, err
	}
	return request, nil
}

// RedeemEscrow releases an approved request's plaintext exactly once.
//
// The ledger entry is written after the state transition. If the append
// fails the plaintext is zeroed and withheld; the request stays redeemed, so
// the release is lost rather than repeated.
func (s *securityUseCase) RedeemEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) ([]byte, *escrowDomain.Request, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if err := s.guard.CheckCapability(identity, identityDomain.EscrowRedeemCapability); err != nil {
		return nil, nil, s.deny(
			ctx, identity.Principal, auditDomain.EscrowRedeemOperation, requestID.String(), err)
	}

	plaintext, request, err := s.escrow.Redeem(ctx, identity.Principal, requestID)
	if err := s.finish(
		ctx, identity.Principal, auditDomain.EscrowRedeemOperation, requestID.String(), "", err,
	); err != nil {
		cryptoDomain.Zero(plaintext)
		return nil, nil, err
	}
	return plaintext, request, nil
}

// GetEscrow retrieves a request.
func (s *securityUseCase) GetEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkAnyCapability(
		identity, identityDomain.EscrowApproveCapability, identityDomain.EscrowRedeemCapability,
	); err != nil {
		return nil, err
	}
	return s.escrow.Get(ctx, requestID)
}

// ListEscrow lists requests matching the filter.
func (s *securityUseCase) ListEscrow(
	ctx context.Context,
	token string,
	filter escrowDomain.Filter,
) ([]*escrowDomain.Request, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkAnyCapability(
		identity, identityDomain.EscrowApproveCapability, identityDomain.EscrowRedeemCapability,
	); err != nil {
		return nil, err
	}
	return s.escrow.List(ctx, filter)
}

// EscrowStats summarizes requests by state.
func (s *securityUseCase) EscrowStats(ctx context.Context, token string) (*escrowDomain.Stats, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.checkAnyCapability(
		identity, identityDomain.EscrowApproveCapability, identityDomain.EscrowRedeemCapability,
	); err != nil {
		return nil, err
	}
	return s.escrow.Stats(ctx)
}

// AuditQuery retrieves ledger entries matching the filter. The read itself
// is recorded in the ledger.
func (s *securityUseCase) AuditQuery(
	ctx context.Context,
	token string,
	filter *auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckCapability(identity, identityDomain.AuditReadCapability); err != nil {
		return nil, s.deny(ctx, identity.Principal, auditDomain.AuditQueryOperation, "", err)
	}

	entries, err := s.ledger.Query(ctx, filter)
	if err := s.finish(ctx, identity.Principal, auditDomain.AuditQueryOperation, "", "", err); err != nil {
		return nil, err
	}
	return entries, nil
}

// AuditReport summarizes ledger activity.
func (s *securityUseCase) AuditReport(
	ctx context.Context,
	token string,
	filter *auditDomain.Filter,
) (*auditDomain.Report, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return nil, err
	}
	if err := s.guard.CheckCapability(identity, identityDomain.AuditReadCapability); err != nil {
		return nil, s.deny(ctx, identity.Principal, auditDomain.AuditQueryOperation, "", err)
	}

	report, err := s.ledger.Report(ctx, filter)
	if err := s.finish(ctx, identity.Principal, auditDomain.AuditQueryOperation, "", "report", err); err != nil {
		return nil, err
	}
	return report, nil
}

// VerifyAuditChain verifies ledger integrity over a sequence range.
func (s *securityUseCase) VerifyAuditChain(
	ctx context.Context,
	token string,
	fromSeq, toSeq uint64,
) (uint64, error) {
	identity, err := s.guard.Authenticate(ctx, token)
	if err != nil {
		return 0, err
	}
	if err := s.guard.CheckCapability(identity, identityDomain.AuditReadCapability); err != nil {
		return 0, s.deny(ctx, identity.Principal, auditDomain.AuditQueryOperation, "", err)
	}

	verified, err := s.ledger.VerifyChain(ctx, fromSeq, toSeq)
	detail := fmt.Sprintf("verify-chain from=%d to=%d", fromSeq, toSeq)
	if err := s.finish(
		ctx, identity.Principal, auditDomain.AuditQueryOperation, "", detail, err,
	); err != nil {
		return 0, err
	}
	return verified, nil
}
