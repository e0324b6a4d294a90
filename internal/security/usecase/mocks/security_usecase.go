// Package mocks provides mock implementations for testing HTTP handlers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
	securityUseCase "github.com/kbalijepalli/dreas/internal/security/usecase"
)

// MockSecurityUseCase is a mock implementation of SecurityUseCase for testing.
type MockSecurityUseCase struct {
	mock.Mock
}

// Protect mocks the Protect method of SecurityUseCase.
func (m *MockSecurityUseCase) Protect(
	ctx context.Context,
	token string,
	plaintext []byte,
	policyTag string,
) (*securityUseCase.ProtectOutput, error) {
	args := m.Called(ctx, token, plaintext, policyTag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*securityUseCase.ProtectOutput), args.Error(1)
}

// Reveal mocks the Reveal method of SecurityUseCase.
func (m *MockSecurityUseCase) Reveal(ctx context.Context, token string, envelope []byte) ([]byte, error) {
	args := m.Called(ctx, token, envelope)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// InitiateEscrow mocks the InitiateEscrow method of SecurityUseCase.
func (m *MockSecurityUseCase) InitiateEscrow(
	ctx context.Context,
	token string,
	envelope []byte,
	justification string,
) (*escrowDomain.Request, error) {
	args := m.Called(ctx, token, envelope, justification)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Request), args.Error(1)
}

// ApproveEscrow mocks the ApproveEscrow method of SecurityUseCase.
func (m *MockSecurityUseCase) ApproveEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	args := m.Called(ctx, token, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Request), args.Error(1)
}

// DenyEscrow mocks the DenyEscrow method of SecurityUseCase.
func (m *MockSecurityUseCase) DenyEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	args := m.Called(ctx, token, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Request), args.Error(1)
}

// RedeemEscrow mocks the RedeemEscrow method of SecurityUseCase.
func (m *MockSecurityUseCase) RedeemEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) ([]byte, *escrowDomain.Request, error) {
	args := m.Called(ctx, token, requestID)

	var plaintext []byte
	if args.Get(0) != nil {
		plaintext = args.Get(0).([]byte)
	}

	var request *escrowDomain.Request
	if args.Get(1) != nil {
		request = args.Get(1).(*escrowDomain.Request)
	}

	return plaintext, request, args.Error(2)
}

// GetEscrow mocks the GetEscrow method of SecurityUseCase.
func (m *MockSecurityUseCase) GetEscrow(
	ctx context.Context,
	token string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	args := m.Called(ctx, token, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Request), args.Error(1)
}

// ListEscrow mocks the ListEscrow method of SecurityUseCase.
func (m *MockSecurityUseCase) ListEscrow(
	ctx context.Context,
	token string,
	filter escrowDomain.Filter,
) ([]*escrowDomain.Request, error) {
	args := m.Called(ctx, token, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*escrowDomain.Request), args.Error(1)
}

// EscrowStats mocks the EscrowStats method of SecurityUseCase.
func (m *MockSecurityUseCase) EscrowStats(ctx context.Context, token string) (*escrowDomain.Stats, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Stats), args.Error(1)
}

// AuditQuery mocks the AuditQuery method of SecurityUseCase.
func (m *MockSecurityUseCase) AuditQuery(
	ctx context.Context,
	token string,
	filter *auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	args := m.Called(ctx, token, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Entry), args.Error(1)
}

// AuditReport mocks the AuditReport method of SecurityUseCase.
func (m *MockSecurityUseCase) AuditReport(
	ctx context.Context,
	token string,
	filter *auditDomain.Filter,
) (*auditDomain.Report, error) {
	args := m.Called(ctx, token, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.Report), args.Error(1)
}

// VerifyAuditChain mocks the VerifyAuditChain method of SecurityUseCase.
func (m *MockSecurityUseCase) VerifyAuditChain(
	ctx context.Context,
	token string,
	fromSeq, toSeq uint64,
) (uint64, error) {
	args := m.Called(ctx, token, fromSeq, toSeq)
	return args.Get(0).(uint64), args.Error(1)
}
