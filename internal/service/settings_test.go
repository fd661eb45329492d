package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/abenikeb/biisho-a2p/internal/mocks"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"github.com/abenikeb/biisho-a2p/internal/service"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeSettingsCache struct {
	values map[string]string
	err    error
}

func (f *fakeSettingsCache) Get(ctx context.Context, key string) (string, bool, error) {
	if f.err != nil {
		return "", false, f.err
	}
	val, found := f.values[key]
	return val, found, nil
}

func (f *fakeSettingsCache) Set(ctx context.Context, key, value string) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value
	return nil
}

func TestSettings_ApprovalRequiredForPromotional(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	key := model.SettingApprovalRequiredPromotional

	t.Run("cache hit short circuits the store", func(t *testing.T) {
		mockRepo := &mocks.SettingRepository{}
		settingsCache := &fakeSettingsCache{values: map[string]string{key: "false"}}

		svc := service.NewSettingsService(mockRepo, settingsCache, logger)

		assert.False(t, svc.ApprovalRequiredForPromotional(ctx))
		mockRepo.AssertNotCalled(t, "Get", ctx, key)
	})

	t.Run("cache miss reads the store and backfills", func(t *testing.T) {
		mockRepo := &mocks.SettingRepository{}
		settingsCache := &fakeSettingsCache{values: map[string]string{}}

		mockRepo.On("Get", ctx, key).Return("false", nil)

		svc := service.NewSettingsService(mockRepo, settingsCache, logger)

		assert.False(t, svc.ApprovalRequiredForPromotional(ctx))
		assert.Equal(t, "false", settingsCache.values[key])
		mockRepo.AssertExpectations(t)
	})

	t.Run("unset setting defaults to approval required", func(t *testing.T) {
		mockRepo := &mocks.SettingRepository{}

		mockRepo.On("Get", ctx, key).Return("", repository.ErrSettingNotFound)

		svc := service.NewSettingsService(mockRepo, nil, logger)

		assert.True(t, svc.ApprovalRequiredForPromotional(ctx))
	})

	t.Run("unreachable store defaults to approval required", func(t *testing.T) {
		mockRepo := &mocks.SettingRepository{}

		mockRepo.On("Get", ctx, key).Return("", errors.New("connection refused"))

		svc := service.NewSettingsService(mockRepo, nil, logger)

		assert.True(t, svc.ApprovalRequiredForPromotional(ctx))
	})

	t.Run("cache failure falls through to the store", func(t *testing.T) {
		mockRepo := &mocks.SettingRepository{}
		settingsCache := &fakeSettingsCache{err: errors.New("redis down")}

		mockRepo.On("Get", ctx, key).Return("false", nil)

		svc := service.NewSettingsService(mockRepo, settingsCache, logger)

		assert.False(t, svc.ApprovalRequiredForPromotional(ctx))
		mockRepo.AssertExpectations(t)
	})

	t.Run("garbage value defaults to approval required", func(t *testing.T) {
		mockRepo := &mocks.SettingRepository{}

		mockRepo.On("Get", ctx, key).Return("definitely", nil)

		svc := service.NewSettingsService(mockRepo, nil, logger)

		assert.True(t, svc.ApprovalRequiredForPromotional(ctx))
	})
}
