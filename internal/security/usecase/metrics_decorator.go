package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
	"github.com/kbalijepalli/dreas/internal/metrics"
)

// securityUseCaseWithMetrics decorates SecurityUseCase with metrics
// instrumentation.
type securityUseCaseWithMetrics struct {
	next    SecurityUseCase
	metrics metrics.BusinessMetrics
}

// NewSecurityUseCaseWithMetrics wraps a SecurityUseCase with metrics
// recording.
func NewSecurityUseCaseWithMetrics(useCase SecurityUseCase, m metrics.BusinessMetrics) SecurityUseCase {
	return &securityUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (s *securityUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "security", operation, status)
	s.metrics.RecordDuration(ctx, "security", operation, time.Since(start), status)
}

func (s *securityUseCaseWithMetrics) Protect(
	ctx context.Context,
	token string,
	plaintext []byte,
	policyTag string,
) (*ProtectOutput, error) {
	start := time.Now()
	output, err := s.next.Protect(ctx, token, plaintext, policyTag)
	s.record(ctx, "protect", start, err)
	return output, err
}

func (s *securityUseCaseWithMetrics) Reveal(
	ctx context.Context,
	token string,
	envelope []byte,
) ([]byte, error) {
	start := time.Now()
	plaintext, err := s.next.Reveal(ctx, token, envelope)
	s.record(ctx, "reveal", start, err)
	return plaintext, err
}

func (s *securityUseCaseWithMetrics) InitiateEscrow(
	ctx context.Context,
	token string,
	envelope []byte,
	justification string,
) (*escrowDomain.Request, error) {
	start := time.Now()
	request, err := s.next.InitiateEscrow(ctx, token, envelope, justification)
	s.record(ctx, "escrow_initiate", start, err)
	return request, err
}

func (s *securityUseCaseWithMetrics) ApproveEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	start := time.Now()
	request, err := s.next.ApproveEscrow(ctx, token, requestID)
	s.record(ctx, "escrow_approve", start, err)
	return request, err
}

func (s *securityUseCaseWithMetrics) DenyEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	start := time.Now()
	request, err := s.next.DenyEscrow(ctx, token, requestID)
	s.record(ctx, "escrow_deny", start, err)
	return request, err
}

func (s *securityUseCaseWithMetrics) RedeemEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) ([]byte, *escrowDomain.Request, error) {
	start := time.Now()
	plaintext, request, err := s.next.RedeemEscrow(ctx, token, requestID)
	s.record(ctx, "escrow_redeem", start, err)
	return plaintext, request, err
}

func (s *securityUseCaseWithMetrics) GetEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	start := time.Now()
	request, err := s.next.GetEscrow(ctx, token, requestID)
	s.record(ctx, "escrow_get", start, err)
	return request, err
}

func (s *securityUseCaseWithMetrics) ListEscrow(
	ctx context.Context,
	token string,
	filter escrowDomain.Filter,
) ([]*escrowDomain.Request, error) {
	start := time.Now()
	requests, err := s.next.ListEscrow(ctx, token, filter)
	s.record(ctx, "escrow_list", start, err)
	return requests, err
}

func (s *securityUseCaseWithMetrics) EscrowStats(
	ctx context.Context,
	token string,
) (*escrowDomain.Stats, error) {
	start := time.Now()
	stats, err := s.next.EscrowStats(ctx, token)
	s.record(ctx, "escrow_stats", start, err)
	return stats, err
}

func (s *securityUseCaseWithMetrics) AuditQuery(
	ctx context.Context,
	token string,
	filter *auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	start := time.Now()
	entries, err := s.next.AuditQuery(ctx, token, filter)
	s.record(ctx, "audit_query", start, err)
	return entries, err
}

func (s *securityUseCaseWithMetrics) AuditReport(
	ctx context.Context,
	token string,
	filter *auditDomain.Filter,
) (*auditDomain.Report, error) {
	start := time.Now()
	report, err := s.next.AuditReport(ctx, token, filter)
	s.record(ctx, "audit_report", start, err)
	return report, err
}

func (s *securityUseCaseWithMetrics) VerifyAuditChain(
	ctx context.Context,
	token string,
	fromSeq, toSeq uint64,
) (uint64, error) {
	start := time.Now()
	verified, err := s.next.VerifyAuditChain(ctx, token, fromSeq, toSeq)
	s.record(ctx, "verify_audit_chain", start, err)
	return verified, err
}
