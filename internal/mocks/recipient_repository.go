package mocks

import (
	"context"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/stretchr/testify/mock"
)

type RecipientRepository struct {
	mock.Mock
}

func (m *RecipientRepository) CreateBatch(ctx context.Context, recipients []model.Recipient) error {
	args := m.Called(ctx, recipients)
	return args.Error(0)
}

func (m *RecipientRepository) ListByMessageID(ctx context.Context, messageID int64) ([]model.Recipient, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipient), args.Error(1)
}

func (m *RecipientRepository) ListByMessageIDAndStatus(ctx context.Context, messageID int64,
	status model.RecipientStatus) ([]model.Recipient, error) {
	args := m.Called(ctx, messageID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Recipient), args.Error(1)
}

func (m *RecipientRepository) MarkSentByMessageID(ctx context.Context, messageID int64, at time.Time) error {
	args := m.Called(ctx, messageID, at)
	return args.Error(0)
}

func (m *RecipientRepository) MarkTerminal(ctx context.Context, id int64, status model.RecipientStatus,
	reason *string, at time.Time) error {
	args := m.Called(ctx, id, status, reason, at)
	return args.Error(0)
}

func (m *RecipientRepository) CountByStatus(ctx context.Context, messageID int64) (map[model.RecipientStatus]int, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[model.RecipientStatus]int), args.Error(1)
}

func (m *RecipientRepository) CountLeftPending(ctx context.Context, messageID int64) (int, error) {
	args := m.Called(ctx, messageID)
	return args.Int(0), args.Error(1)
}

func (m *RecipientRepository) DeleteByMessageID(ctx context.Context, messageID int64) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}
