package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
	"github.com/kbalijepalli/dreas/internal/metrics"
)

// escrowUseCaseWithMetrics decorates EscrowUseCase with metrics instrumentation.
type escrowUseCaseWithMetrics struct {
	next    EscrowUseCase
	metrics metrics.BusinessMetrics
}

// NewEscrowUseCaseWithMetrics wraps an EscrowUseCase with metrics recording.
func NewEscrowUseCaseWithMetrics(useCase EscrowUseCase, m metrics.BusinessMetrics) EscrowUseCase {
	return &escrowUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (e *escrowUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	e.metrics.RecordOperation(ctx, "escrow", operation, status)
	e.metrics.RecordDuration(ctx, "escrow", operation, time.Since(start), status)
}

// Initiate records metrics for escrow initiation operations.
func (e *escrowUseCaseWithMetrics) Initiate(
	ctx context.Context,
	input *InitiateInput,
) (*escrowDomain.Request, error) {
	start := time.Now()
	request, err := e.next.Initiate(ctx, input)
	e.record(ctx, "initiate", start, err)
	return request, err
}

// Approve records metrics for escrow approval operations.
func (e *escrowUseCaseWithMetrics) Approve(
	ctx context.Context,
	approver string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	start := time.Now()
	request, err := e.next.Approve(ctx, approver, requestID)
	e.record(ctx, "approve", start, err)
	return request, err
}

// Deny records metrics for escrow denial operations.
func (e *escrowUseCaseWithMetrics) Deny(
	ctx context.Context,
	approver string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	start := time.Now()
	request, err := e.next.Deny(ctx, approver, requestID)
	e.record(ctx, "deny", start, err)
	return request, err
}

// Redeem records metrics for escrow redemption operations.
func (e *escrowUseCaseWithMetrics) Redeem(
	ctx context.Context,
	redeemer string,
	requestID uuid.UUID,
) ([]byte, *escrowDomain.Request, error) {
	start := time.Now()
	plaintext, request, err := e.next.Redeem(ctx, redeemer, requestID)
	e.record(ctx, "redeem", start, err)
	return plaintext, request, err
}

// Get records metrics for escrow lookup operations.
func (e *escrowUseCaseWithMetrics) Get(
	ctx context.Context,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	start := time.Now()
	request, err := e.next.Get(ctx, requestID)
	e.record(ctx, "get", start, err)
	return request, err
}

// List records metrics for escrow listing operations.
func (e *escrowUseCaseWithMetrics) List(
	ctx context.Context,
	filter escrowDomain.Filter,
) ([]*escrowDomain.Request, error) {
	start := time.Now()
	requests, err := e.next.List(ctx, filter)
	e.record(ctx, "list", start, err)
	return requests, err
}

// SweepExpired records metrics for expiry sweep operations.
func (e *escrowUseCaseWithMetrics) SweepExpired(ctx context.Context) (int, error) {
	start := time.Now()
	swept, err := e.next.SweepExpired(ctx)
	e.record(ctx, "sweep_expired", start, err)
	return swept, err
}

// Stats records metrics for escrow stats operations.
func (e *escrowUseCaseWithMetrics) Stats(ctx context.Context) (*escrowDomain.Stats, error) {
	start := time.Now()
	stats, err := e.next.Stats(ctx)
	e.record(ctx, "stats", start, err)
	return stats, err
}
