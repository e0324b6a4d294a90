// Package mocks provides mock implementations for testing escrow consumers.
package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	escrowDomain "github.com/kbalijepalli/dreas/internal/escrow/domain"
	escrowUseCase "github.com/kbalijepalli/dreas/internal/escrow/usecase"
)

// MockEscrowUseCase is a mock implementation of EscrowUseCase for testing.
type MockEscrowUseCase struct {
	mock.Mock
}

// Initiate mocks the Initiate method of EscrowUseCase.
func (m *MockEscrowUseCase) Initiate(
	ctx context.Context,
	input *escrowUseCase.InitiateInput,
) (*escrowDomain.Request, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Request), args.Error(1)
}

// Approve mocks the Approve method of EscrowUseCase.
func (m *MockEscrowUseCase) Approve(
	ctx context.Context,
	approver string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	args := m.Called(ctx, approver, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Request), args.Error(1)
}

// Deny mocks the Deny method of EscrowUseCase.
func (m *MockEscrowUseCase) Deny(
	ctx context.Context,
	approver string,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	args := m.Called(ctx, approver, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Request), args.Error(1)
}

// Redeem mocks the Redeem method of EscrowUseCase.
func (m *MockEscrowUseCase) Redeem(
	ctx context.Context,
	redeemer string,
	requestID uuid.UUID,
) ([]byte, *escrowDomain.Request, error) {
	args := m.Called(ctx, redeemer, requestID)

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

// Get mocks the Get method of EscrowUseCase.
func (m *MockEscrowUseCase) Get(
	ctx context.Context,
	requestID uuid.UUID,
) (*escrowDomain.Request, error) {
	args := m.Called(ctx, requestID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Request), args.Error(1)
}

// List mocks the List method of EscrowUseCase.
func (m *MockEscrowUseCase) List(
	ctx context.Context,
	filter escrowDomain.Filter,
) ([]*escrowDomain.Request, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*escrowDomain.Request), args.Error(1)
}

// SweepExpired mocks the SweepExpired method of EscrowUseCase.
func (m *MockEscrowUseCase) SweepExpired(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// Stats mocks the Stats method of EscrowUseCase.
func (m *MockEscrowUseCase) Stats(ctx context.Context) (*escrowDomain.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*escrowDomain.Stats), args.Error(1)
}
