package mocks

import (
	"context"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/stretchr/testify/mock"
)

type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Create(ctx context.Context, message *model.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MessageRepository) UpdateGuarded(ctx context.Context, message *model.Message,
	fromStatuses ...model.MessageStatus) error {
	callArgs := []interface{}{ctx, message}
	for _, s := range fromStatuses {
		callArgs = append(callArgs, s)
	}
	args := m.Called(callArgs...)
	return args.Error(0)
}

func (m *MessageRepository) GetByID(ctx context.Context, id int64) (*model.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Message), args.Error(1)
}

func (m *MessageRepository) GetByAccountID(ctx context.Context, accountID string, limit, offset int) ([]model.Message, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MessageRepository) CountByAccountID(ctx context.Context, accountID string) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepository) FindDueScheduled(ctx context.Context, dueBefore time.Time, limit int) ([]model.Message, error) {
	args := m.Called(ctx, dueBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Message), args.Error(1)
}

func (m *MessageRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MessageRepository) UpdateAggregates(ctx context.Context, id int64, delivered, failed int,
	status model.MessageStatus, completedAt time.Time) error {
	args := m.Called(ctx, id, delivered, failed, status, completedAt)
	return args.Error(0)
}
