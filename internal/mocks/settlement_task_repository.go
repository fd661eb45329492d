package mocks

import (
	"context"
	"time"

	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/stretchr/testify/mock"
)

type SettlementTaskRepository struct {
	mock.Mock
}

func (m *SettlementTaskRepository) Create(ctx context.Context, task *model.SettlementTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *SettlementTaskRepository) GetByID(ctx context.Context, id string) (*model.SettlementTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SettlementTask), args.Error(1)
}

func (m *SettlementTaskRepository) FindPending(ctx context.Context, limit int) ([]model.SettlementTask, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SettlementTask), args.Error(1)
}

func (m *SettlementTaskRepository) FindStalePublished(ctx context.Context, olderThan time.Time, limit int) ([]model.SettlementTask, error) {
	args := m.Called(ctx, olderThan, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SettlementTask), args.Error(1)
}

func (m *SettlementTaskRepository) MarkPublished(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *SettlementTaskRepository) MarkDone(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *SettlementTaskRepository) RecordError(ctx context.Context, id string, lastError string) error {
	args := m.Called(ctx, id, lastError)
	return args.Error(0)
}
