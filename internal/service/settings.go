package service

import (
	"context"
	"errors"
	"strconv"

	"github.com/abenikeb/biisho-a2p/internal/cache"
	"github.com/abenikeb/biisho-a2p/internal/model"
	"github.com/abenikeb/biisho-a2p/internal/repository"
	"go.uber.org/zap"
)

type SettingsService interface {
	// ApprovalRequiredForPromotional reports whether promotional messages
	// must pass human review before dispatch. Defaults to true when the
	// setting is unset or the store is unreachable.
	ApprovalRequiredForPromotional(ctx context.Context) bool
}

type settings struct {
	repo   repository.SettingRepository
	cache  cache.SettingsCache
	logger *zap.Logger
}

func NewSettingsService(repo repository.SettingRepository, settingsCache cache.SettingsCache,
	logger *zap.Logger) SettingsService {
	return &settings{repo: repo, cache: settingsCache, logger: logger}
}

func (s *settings) ApprovalRequiredForPromotional(ctx context.Context) bool {
	key := model.SettingApprovalRequiredPromotional

	if s.cache != nil {
		if val, found, err := s.cache.Get(ctx, key); err == nil && found {
			return parseFlag(val)
		} else if err != nil {
			s.logger.Warn("Settings cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	val, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repository.ErrSettingNotFound) {
			s.logger.Warn("Failed to read setting, defaulting to approval required",
				zap.String("key", key), zap.Error(err))
		}
		return true
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, val); err != nil {
			s.logger.Warn("Settings cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return parseFlag(val)
}

func parseFlag(val string) bool {
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return true
	}
	return parsed
}
