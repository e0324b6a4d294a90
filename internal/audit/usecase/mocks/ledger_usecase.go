// Package mocks provides mock implementations for testing ledger consumers.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/kbalijepalli/dreas/internal/audit/domain"
	auditUseCase "github.com/kbalijepalli/dreas/internal/audit/usecase"
)

// MockLedgerUseCase is a mock implementation of LedgerUseCase for testing.
type MockLedgerUseCase struct {
	mock.Mock
}

// Append mocks the Append method of LedgerUseCase.
func (m *MockLedgerUseCase) Append(
	ctx context.Context,
	input *auditUseCase.AppendInput,
) (*auditDomain.Entry, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.Entry), args.Error(1)
}

// Query mocks the Query method of LedgerUseCase.
func (m *MockLedgerUseCase) Query(
	ctx context.Context,
	filter *auditDomain.Filter,
) ([]*auditDomain.Entry, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.Entry), args.Error(1)
}

// VerifyChain mocks the VerifyChain method of LedgerUseCase.
func (m *MockLedgerUseCase) VerifyChain(
	ctx context.Context,
	fromSeq, toSeq uint64,
) (uint64, error) {
	args := m.Called(ctx, fromSeq, toSeq)
	return args.Get(0).(uint64), args.Error(1)
}

// Report mocks the Report method of LedgerUseCase.
func (m *MockLedgerUseCase) Report(
	ctx context.Context,
	filter *auditDomain.Filter,
) (*auditDomain.Report, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.Report), args.Error(1)
}
