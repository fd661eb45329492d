package mocks

import (
	"context"

	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/stretchr/testify/mock"
)

type RecipientResolver struct {
	mock.Mock
}

func (m *RecipientResolver) Resolve(ctx context.Context, accountID string,
	explicit []service.RecipientInput, listIDs []string) ([]service.ResolvedRecipient, error) {
	args := m.Called(ctx, accountID, explicit, listIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.ResolvedRecipient), args.Error(1)
}

type SettingsService struct {
	mock.Mock
}

func (m *SettingsService) ApprovalRequiredForPromotional(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

type SettlementService struct {
	mock.Mock
}

func (m *SettlementService) SettleMessage(ctx context.Context, cmd service.SettleMessageCommand) error {
	args := m.Called(ctx, cmd)
	return args.Error(0)
}
