package usecase

import (
	"context"
	"time"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	"github.com/kbalijepalli/dreas/internal/metrics"
)

// ledgerUseCaseWithMetrics decorates LedgerUseCase with metrics instrumentation.
type ledgerUseCaseWithMetrics struct {
	next    LedgerUseCase
	metrics metrics.BusinessMetrics
}

// NewLedgerUseCaseWithMetrics wraps a LedgerUseCase with metrics recording.
func NewLedgerUseCaseWithMetrics(useCase LedgerUseCase, m metrics.BusinessMetrics) LedgerUseCase {
	return &ledgerUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Append records metrics for ledger append operations.
func (l *ledgerUseCaseWithMetrics) Append(
	ctx context.Context,
	input *AppendInput,
) (*auditDomain.Entry, error) {
	start := time.Now()
	entry, err := l.next.Append(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "audit", "append", status)
	l.metrics.RecordDuration(ctx, "audit", "append", time.Since(start), status)

	return entry, err
}

// Query records metrics for ledger query operations.
func (l *ledgerUseCaseWithMetrics) Query(
	ctx context.Context,
	filter *auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	start := time.Now()
	entries, err := l.next.Query(ctx, filter)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "audit", "query", status)
	l.metrics.RecordDuration(ctx, "audit", "query", time.Since(start), status)

	return entries, err
}

// VerifyChain records metrics for chain verification operations.
func (l *ledgerUseCaseWithMetrics) VerifyChain(
	ctx context.Context,
	fromSeq, toSeq uint64,
) (uint64, error) {
	start := time.Now()
	verified, err := l.next.VerifyChain(ctx, fromSeq, toSeq)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "audit", "verify_chain", status)
	l.metrics.RecordDuration(ctx, "audit", "verify_chain", time.Since(start), status)

	return verified, err
}

// Report records metrics for report generation operations.
func (l *ledgerUseCaseWithMetrics) Report(
	ctx context.Context,
	filter *auditDomain.Filter,
) (*auditDomain.Report, error) {
	start := time.Now()
	report, err := l.next.Report(ctx, filter)

	status := "success"
	if err != nil {
		status = "error"
	}

	l.metrics.RecordOperation(ctx, "audit", "report", status)
	l.metrics.RecordDuration(ctx, "audit", "report", time.Since(start), status)

	return report, err
}
