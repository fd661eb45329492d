package mocks

import (
	"context"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/stretchr/testify/mock"
)

type CreditLedgerRepository struct {
	mock.Mock
}

func (m *CreditLedgerRepository) Create(ctx context.Context, ledger *model.CreditLedger) error {
	args := m.Called(ctx, ledger)
	return args.Error(0)
}

func (m *CreditLedgerRepository) GetByAccountID(ctx context.Context, accountID string) (*model.CreditLedger, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CreditLedger), args.Error(1)
}

func (m *CreditLedgerRepository) Debit(ctx context.Context, accountID string, credits int64) error {
	args := m.Called(ctx, accountID, credits)
	return args.Error(0)
}

func (m *CreditLedgerRepository) Grant(ctx context.Context, accountID string, credits int64) error {
	args := m.Called(ctx, accountID, credits)
	return args.Error(0)
}

func (m *CreditLedgerRepository) ReverseConsumption(ctx context.Context, accountID string, credits int64) error {
	args := m.Called(ctx, accountID, credits)
	return args.Error(0)
}

type LedgerEntryRepository struct {
	mock.Mock
}

func (m *LedgerEntryRepository) Create(ctx context.Context, entry *model.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *LedgerEntryRepository) GetByIdempotencyKey(ctx context.Context, key string) (*model.LedgerEntry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LedgerEntry), args.Error(1)
}

func (m *LedgerEntryRepository) ListByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.LedgerEntry, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.LedgerEntry), args.Error(1)
}
